package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pricingboard/internal/access"
	"pricingboard/internal/attachments"
	"pricingboard/internal/board"
	"pricingboard/internal/notifications"
	"pricingboard/internal/pipeline"
	"pricingboard/internal/testsupport"
)

func TestCreatePlacesTaskInRawWithAttachment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	actor := testsupport.Actor(access.RoleClient)
	due := time.Date(2026, 11, 2, 17, 0, 0, 0, time.FixedZone("EST", -5*3600))
	testsupport.SeedTask(t, h.store, "Existing", board.StageRaw)

	task, err := h.engine.Create(ctx, actor, pipeline.NewTask{
		Title:    "  Widgets Q4  ",
		DueDate:  &due,
		FileName: "catalog.csv",
		File:     strings.NewReader("sku,price\n"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Title != "Widgets Q4" || task.Status != board.StageRaw {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.CreatedBy != actor.Name() {
		t.Fatalf("createdBy = %q, want %q", task.CreatedBy, actor.Name())
	}
	if task.Position != 1 {
		t.Fatalf("new task position = %d, want end of stage", task.Position)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("due date = %v, want %v", task.DueDate, due)
	}
	if len(task.Attachments) != 1 || task.Attachments[0].Folder != board.StageRaw {
		t.Fatalf("unexpected attachments: %+v", task.Attachments)
	}
	if !strings.HasPrefix(task.Attachments[0].FilePath, "raw/") {
		t.Fatalf("attachment stored outside raw: %s", task.Attachments[0].FilePath)
	}

	events := h.events()
	if len(events) != 1 || events[0].Event != notifications.EventTaskCreated {
		t.Fatalf("expected created event, got %+v", events)
	}
}

func TestCreateRights(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, role := range append(access.AllRoles(), access.RoleNone) {
		_, err := h.engine.Create(ctx, testsupport.Actor(role), pipeline.NewTask{
			Title:    "by " + string(role),
			FileName: "f.csv",
			File:     strings.NewReader("x"),
		})
		allowed := role == access.RoleAdmin || role == access.RoleClient
		if allowed && err != nil {
			t.Fatalf("%s should create: %v", role, err)
		}
		if !allowed && !errors.Is(err, pipeline.ErrPermissionDenied) {
			t.Fatalf("%s should be denied, got %v", role, err)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	actor := testsupport.Actor(access.RoleAdmin)

	_, err := h.engine.Create(ctx, actor, pipeline.NewTask{Title: " ", File: strings.NewReader("x")})
	if !errors.Is(err, pipeline.ErrInvalidTask) {
		t.Fatalf("blank title: expected ErrInvalidTask, got %v", err)
	}
	_, err = h.engine.Create(ctx, actor, pipeline.NewTask{Title: "No file"})
	if !errors.Is(err, attachments.ErrRequired) || !errors.Is(err, pipeline.ErrInvalidTask) {
		t.Fatalf("missing file: expected ErrRequired, got %v", err)
	}
	if uploads, _ := h.blobs.Calls(); uploads != 0 {
		t.Fatalf("validation failures uploaded %d blobs", uploads)
	}
}

func TestCreateUploadFailurePersistsNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.blobs.FailUpload = true

	_, err := h.engine.Create(ctx, testsupport.Actor(access.RoleClient), pipeline.NewTask{
		Title:    "Doomed",
		FileName: "f.csv",
		File:     strings.NewReader("x"),
	})
	if !errors.Is(err, attachments.ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	counts, err := h.store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("task persisted after failed upload: %v", counts)
	}
	if events := h.events(); len(events) != 0 {
		t.Fatalf("failed create notified: %+v", events)
	}
}

func TestEditThroughEngine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.attachment(t, board.StagePricing, "draft.pdf")
	task := testsupport.SeedTask(t, h.store, "Quote", board.StagePricing, testsupport.WithAttachments(a))
	actor := testsupport.Actor(access.RolePromptEngineer)

	session, err := h.engine.BeginEdit(ctx, actor, task.ID)
	if err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := session.Mark(a.FilePath); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	link := "https://sheets.example/q"
	res, err := h.engine.Edit(ctx, actor, session, attachments.Changes{
		Link:     &link,
		FileName: "final.pdf",
		File:     strings.NewReader("%PDF"),
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if res.Task.Link != link || len(res.Task.Attachments) != 1 || res.Task.Attachments[0].Name != "final.pdf" {
		t.Fatalf("unexpected edit result: %+v", res.Task)
	}
}

func TestRemoveTwiceIsSafe(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.attachment(t, board.StageRaw, "a.csv")
	task := testsupport.SeedTask(t, h.store, "Short lived", board.StageRaw, testsupport.WithAttachments(a))
	admin := testsupport.Actor(access.RoleAdmin)

	res, err := h.engine.Remove(ctx, admin, task.ID, true)
	if err != nil {
		t.Fatalf("first Remove: %v", err)
	}
	if res.Outcome != pipeline.OutcomeRemoved {
		t.Fatalf("first outcome = %s", res.Outcome)
	}
	res, err = h.engine.Remove(ctx, admin, task.ID, true)
	if err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if res.Outcome != pipeline.OutcomeStale {
		t.Fatalf("second outcome = %s", res.Outcome)
	}
	entries, err := h.blobs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("blobs left after removal: %+v", entries)
	}
}

func TestRemoveRequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	task := testsupport.SeedTask(t, h.store, "Keep", board.StageRaw)
	_, err := h.engine.Remove(context.Background(), testsupport.Actor(access.RoleAdmin), task.ID, false)
	if !errors.Is(err, pipeline.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if _, err := h.store.GetTask(context.Background(), task.ID); err != nil {
		t.Fatalf("task removed without confirmation: %v", err)
	}
}

func TestRemoveRights(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := testsupport.Actor(access.RoleClient)

	inFiltering := testsupport.SeedTask(t, h.store, "Busy", board.StageFiltering)
	if _, err := h.engine.Remove(ctx, client, inFiltering.ID, true); !errors.Is(err, pipeline.ErrPermissionDenied) {
		t.Fatalf("client removing from filtering: expected denial, got %v", err)
	}
	inDone := testsupport.SeedTask(t, h.store, "Finished", board.StageDone)
	if _, err := h.engine.Remove(ctx, client, inDone.ID, true); err != nil {
		t.Fatalf("client removing from done: %v", err)
	}
	inRaw := testsupport.SeedTask(t, h.store, "Fresh", board.StageRaw)
	if _, err := h.engine.Remove(ctx, testsupport.Actor(access.RoleDataQA), inRaw.ID, true); !errors.Is(err, pipeline.ErrPermissionDenied) {
		t.Fatalf("dataQA removing: expected denial, got %v", err)
	}
}

func TestRemoveKeepsRecordWhenReleaseFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.attachment(t, board.StageRaw, "a.csv")
	b := h.attachment(t, board.StageRaw, "b.csv")
	task := testsupport.SeedTask(t, h.store, "Sticky", board.StageRaw, testsupport.WithAttachments(a, b))
	h.blobs.FailDeleteOf(b.FilePath)

	res, err := h.engine.Remove(ctx, testsupport.Actor(access.RoleAdmin), task.ID, true)
	if !errors.Is(err, attachments.ErrReleaseFailed) {
		t.Fatalf("expected ErrReleaseFailed, got %v", err)
	}
	if len(res.Unreleased) != 1 || res.Unreleased[0].FilePath != b.FilePath {
		t.Fatalf("unexpected unreleased: %+v", res.Unreleased)
	}
	stored, err := h.store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("record deleted despite release failure: %v", err)
	}
	if len(stored.Attachments) != 1 || stored.Attachments[0].FilePath != b.FilePath {
		t.Fatalf("record should reference only the unreleased blob, got %+v", stored.Attachments)
	}
	if _, deletes := h.blobs.Calls(); deletes != 2 {
		t.Fatalf("expected both blobs attempted, got %d", deletes)
	}
}
