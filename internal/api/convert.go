package api

import (
	"time"

	"pricingboard/internal/access"
	"pricingboard/internal/archive"
	"pricingboard/internal/board"
	"pricingboard/internal/preflight"
	"pricingboard/internal/workflow"
)

// AttachmentView filters and resolves attachments for a role.
type AttachmentView interface {
	Visible(role access.Role, task *board.Task) []board.Attachment
	Resolve(location string) (string, error)
}

// FromTask converts a task record to its API representation. Attachments the
// role may not view are omitted.
func FromTask(task *board.Task, view AttachmentView, role access.Role) Task {
	if task == nil {
		return Task{}
	}
	dto := Task{
		ID:        task.ID,
		Title:     task.Title,
		CreatedBy: task.CreatedBy,
		Status:    string(task.Status),
		Link:      task.Link,
		Position:  task.Position,
	}
	dto.CreatedAt = formatTime(task.CreatedAt)
	dto.StageEnteredAt = formatTime(task.StageEnteredAt)
	dto.UpdatedAt = formatTime(task.UpdatedAt)
	if task.DueDate != nil {
		dto.DueDate = task.DueDate.Format(DateFormat)
	}
	var visible []board.Attachment
	if view != nil {
		visible = view.Visible(role, task)
	}
	dto.Attachments = FromAttachments(visible, view)
	return dto
}

// FromTasks converts a slice of tasks.
func FromTasks(tasks []*board.Task, view AttachmentView, role access.Role) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, FromTask(task, view, role))
	}
	return out
}

// FromAttachments converts attachments, resolving URLs when view is non-nil.
func FromAttachments(atts []board.Attachment, view AttachmentView) []Attachment {
	out := make([]Attachment, 0, len(atts))
	for _, att := range atts {
		dto := Attachment{Folder: string(att.Folder), Name: att.Name, FilePath: att.FilePath}
		if view != nil {
			if u, err := view.Resolve(att.FilePath); err == nil {
				dto.URL = u
			}
		}
		out = append(out, dto)
	}
	return out
}

// BuildBoard groups tasks into the four board columns in pipeline order.
// Archived tasks are not part of the board.
func BuildBoard(tasks []*board.Task, view AttachmentView, role access.Role) BoardResponse {
	byStage := make(map[board.Stage][]*board.Task)
	for _, task := range board.Reconcile(tasks) {
		byStage[task.Status] = append(byStage[task.Status], task)
	}
	stages := board.BoardStages()
	resp := BoardResponse{Columns: make([]Column, 0, len(stages))}
	for _, stage := range stages {
		resp.Columns = append(resp.Columns, Column{
			Stage: string(stage),
			Label: stage.Label(),
			Tasks: FromTasks(byStage[stage], view, role),
		})
	}
	return resp
}

// FromUser converts a stored user.
func FromUser(user *board.User) User {
	if user == nil {
		return User{}
	}
	role, ok := access.ParseRole(user.Role)
	if !ok {
		role = access.RoleNone
	}
	return User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        string(role),
		RoleLabel:   role.Label(),
		CreatedAt:   formatTime(user.CreatedAt),
	}
}

// FromIdentity converts the acting identity.
func FromIdentity(id access.Identity) User {
	return User{ID: id.UserID, DisplayName: id.DisplayName, Role: string(id.Role), RoleLabel: id.Role.Label()}
}

// FromSweepReport converts an archive sweep report.
func FromSweepReport(report archive.Report) SweepReport {
	out := SweepReport{
		Candidates: report.Candidates,
		Archived:   report.Archived,
		Stale:      report.Stale,
	}
	for _, f := range report.Failed {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		out.Failed = append(out.Failed, SweepFailure{TaskID: f.TaskID, Title: f.Title, Error: msg})
	}
	return out
}

// FromStatusSummary converts workflow status into the API representation.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	out := WorkflowStatus{Running: summary.Running, Jobs: make([]JobStatus, 0, len(summary.Jobs))}
	for _, job := range summary.Jobs {
		js := JobStatus{
			Name:      job.Name,
			Scheduled: job.Scheduled,
			Runs:      job.Runs,
			Failures:  job.Failures,
			LastRun:   formatTime(job.LastRun),
			LastError: job.LastError,
		}
		if job.Interval > 0 {
			js.Interval = job.Interval.String()
		}
		if job.LastTook > 0 {
			js.LastTook = job.LastTook.Round(time.Millisecond).String()
		}
		out.Jobs = append(out.Jobs, js)
	}
	return out
}

// FromCheckResults converts preflight results.
func FromCheckResults(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Optional: r.Optional, Detail: r.Detail})
	}
	return out
}

// ParseTime parses an API timestamp.
func ParseTime(value string) (time.Time, error) {
	return time.Parse(dateTimeFormat, value)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
