package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"pricingboard/internal/access"
	"pricingboard/internal/board"
	"pricingboard/internal/logging"
)

var (
	// ErrUnknownAttachment indicates a location that is not part of the edit session.
	ErrUnknownAttachment = errors.New("attachment not in edit session")
	// ErrInvalidEdit indicates rejected edit values.
	ErrInvalidEdit = errors.New("invalid edit")
	// ErrLinkNotAllowed indicates a link set on a task outside pricing or done.
	ErrLinkNotAllowed = errors.New("link may only be set in pricing or done")
)

// Action is the pending decision for an attachment in an edit session.
type Action string

const (
	ActionKeep   Action = "keep"
	ActionDelete Action = "delete"
)

// Pending pairs an attachment with its pending action.
type Pending struct {
	Attachment board.Attachment
	Action     Action
}

// EditSession buffers attachment deletions for one task. Marking is purely
// in memory; the blob store is touched only by Manager.Commit.
type EditSession struct {
	TaskID string
	Stage  board.Stage

	entries []Pending
}

// BeginEdit opens an edit session for taskID on behalf of actor. The session
// lists only the attachments actor may view; the rest are never touched.
func (m *Manager) BeginEdit(ctx context.Context, actor access.Identity, taskID string) (*EditSession, error) {
	task, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !m.table.CanEdit(actor.Role, task.Status) {
		return nil, access.Deny(actor.Role, "edit", task.Status, "")
	}
	visible := m.Visible(actor.Role, task)
	session := &EditSession{TaskID: task.ID, Stage: task.Status, entries: make([]Pending, 0, len(visible))}
	for _, a := range visible {
		session.entries = append(session.entries, Pending{Attachment: a, Action: ActionKeep})
	}
	return session, nil
}

// Entries returns every attachment in the session with its pending action.
func (s *EditSession) Entries() []Pending {
	out := make([]Pending, len(s.entries))
	copy(out, s.entries)
	return out
}

// Displayed returns the attachments that will remain after commit.
func (s *EditSession) Displayed() []board.Attachment {
	return s.with(ActionKeep)
}

// Marked returns the attachments pending deletion.
func (s *EditSession) Marked() []board.Attachment {
	return s.with(ActionDelete)
}

func (s *EditSession) with(action Action) []board.Attachment {
	var out []board.Attachment
	for _, p := range s.entries {
		if p.Action == action {
			out = append(out, p.Attachment)
		}
	}
	return out
}

// Mark schedules location for deletion on commit.
func (s *EditSession) Mark(location string) error {
	return s.set(location, ActionDelete)
}

// Unmark reverts a pending deletion.
func (s *EditSession) Unmark(location string) error {
	return s.set(location, ActionKeep)
}

func (s *EditSession) set(location string, action Action) error {
	for i := range s.entries {
		if s.entries[i].Attachment.FilePath == location {
			s.entries[i].Action = action
			return nil
		}
	}
	return fmt.Errorf("%s: %w", location, ErrUnknownAttachment)
}

// Cancel restores every marked attachment.
func (s *EditSession) Cancel() {
	for i := range s.entries {
		s.entries[i].Action = ActionKeep
	}
}

// Changes are the field edits applied alongside a session commit. Nil
// pointers leave a field unchanged.
type Changes struct {
	Title        *string
	DueDate      *time.Time
	ClearDueDate bool
	Link         *string
	FileName     string
	File         io.Reader
}

// CommitResult reports the outcome of Commit.
type CommitResult struct {
	// Task is the persisted task. Nil when Stale.
	Task *board.Task
	// Stale is set when the task no longer exists.
	Stale bool
	// Unreleased lists marked attachments whose blobs could not be deleted.
	// They remain on Task.
	Unreleased []board.Attachment
}

// Commit applies the session and changes: the new file is uploaded first,
// the task is persisted without the marked attachments, then their blobs are
// released. An upload or write failure aborts before any deletion. Marked
// attachments whose blobs survive the release are written back onto the task.
func (m *Manager) Commit(ctx context.Context, actor access.Identity, s *EditSession, ch Changes) (CommitResult, error) {
	if s == nil {
		return CommitResult{}, errors.New("edit session is nil")
	}
	ctx = logging.WithTaskID(ctx, s.TaskID)
	task, err := m.store.GetTask(ctx, s.TaskID)
	if errors.Is(err, board.ErrNotFound) {
		s.Cancel()
		return CommitResult{Stale: true}, nil
	}
	if err != nil {
		return CommitResult{}, err
	}
	if !m.table.CanEdit(actor.Role, task.Status) {
		return CommitResult{}, access.Deny(actor.Role, "edit", task.Status, "")
	}
	if err := applyFields(task, ch); err != nil {
		return CommitResult{}, err
	}

	var added *board.Attachment
	if ch.File != nil {
		att, err := m.Upload(ctx, task.Status, ch.FileName, ch.File)
		if err != nil {
			return CommitResult{}, err
		}
		added = &att
	}

	marked := make(map[string]struct{})
	for _, a := range s.Marked() {
		marked[a.FilePath] = struct{}{}
	}
	var release []board.Attachment
	kept := make([]board.Attachment, 0, len(task.Attachments)+1)
	for _, a := range task.Attachments {
		if _, ok := marked[a.FilePath]; ok {
			release = append(release, a)
			continue
		}
		kept = append(kept, a)
	}
	if added != nil {
		kept = append(kept, *added)
	}
	task.Attachments = kept

	// The reduced list is stored before any blob is deleted, so a failed write
	// leaves every referenced blob in place.
	if err := m.store.UpdateTask(ctx, task); err != nil {
		if added != nil {
			_, _ = m.Release(ctx, []board.Attachment{*added})
		}
		if errors.Is(err, board.ErrNotFound) {
			s.Cancel()
			return CommitResult{Stale: true}, nil
		}
		return CommitResult{}, err
	}

	unreleased, _ := m.Release(ctx, release)
	if len(unreleased) > 0 {
		task.Attachments = append(task.Attachments, unreleased...)
		if err := m.store.UpdateTask(ctx, task); err != nil && !errors.Is(err, board.ErrNotFound) {
			logging.WarnWithContext(logging.WithContext(ctx, m.logger), "reattach unreleased blobs failed", "attachment_reattach_failed",
				logging.Error(err),
				logging.Int("unreleased", len(unreleased)),
				logging.ErrorHint("the orphan sweep deletes the unreferenced blobs"),
			)
		}
	}
	s.entries = s.entries[:0]
	for _, a := range FilterVisible(m.table, actor.Role, task.Attachments) {
		s.entries = append(s.entries, Pending{Attachment: a, Action: ActionKeep})
	}
	return CommitResult{Task: task, Unreleased: unreleased}, nil
}

func applyFields(task *board.Task, ch Changes) error {
	if ch.Title != nil {
		title := strings.TrimSpace(*ch.Title)
		if title == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidEdit)
		}
		task.Title = title
	}
	switch {
	case ch.ClearDueDate:
		task.DueDate = nil
	case ch.DueDate != nil:
		due := ch.DueDate.UTC()
		task.DueDate = &due
	}
	if ch.Link != nil {
		link := strings.TrimSpace(*ch.Link)
		if link != task.Link && !LinkAllowed(task.Status) {
			return fmt.Errorf("%w (task is in %s)", ErrLinkNotAllowed, task.Status)
		}
		task.Link = link
	}
	return nil
}

// LinkAllowed reports whether a task in stage may carry a pricing link.
func LinkAllowed(stage board.Stage) bool {
	return stage == board.StagePricing || stage == board.StageDone
}
