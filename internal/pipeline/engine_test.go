package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"pgregory.net/rapid"

	"pricingboard/internal/access"
	"pricingboard/internal/board"
	"pricingboard/internal/notifications"
	"pricingboard/internal/pipeline"
	"pricingboard/internal/telemetry"
	"pricingboard/internal/testsupport"
)

func TestDataManagerAdvancesRawToFiltering(t *testing.T) {
	h := newHarness(t)
	task := testsupport.SeedTask(t, h.store, "Gadgets", board.StageRaw)
	actor := testsupport.Actor(access.RoleDataManager)

	res, err := h.engine.AttemptTransition(context.Background(), actor, task, board.StageFiltering, -1)
	if err != nil {
		t.Fatalf("AttemptTransition: %v", err)
	}
	if res.Outcome != pipeline.OutcomeMoved || res.Task.Status != board.StageFiltering {
		t.Fatalf("unexpected result: %+v", res)
	}
	if n := countID(stageIDs(t, h.store, board.StageRaw), task.ID); n != 0 {
		t.Fatalf("task still visible in raw (%d copies)", n)
	}
	if n := countID(stageIDs(t, h.store, board.StageFiltering), task.ID); n != 1 {
		t.Fatalf("task visible %d times in filtering", n)
	}

	events := h.events()
	if len(events) != 1 || events[0].Event != notifications.EventTaskMoved {
		t.Fatalf("expected one moved event, got %+v", events)
	}
	payload := events[0].Payload
	if payload["title"] != "Gadgets" || payload["from"] != "raw" || payload["to"] != "filtering" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestDataManagerCannotMovePricingToDone(t *testing.T) {
	h := newHarness(t)
	task := testsupport.SeedTask(t, h.store, "Quote", board.StagePricing)

	_, err := h.engine.AttemptTransition(context.Background(), testsupport.Actor(access.RoleDataManager), task, board.StageDone, -1)
	if !errors.Is(err, pipeline.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	var perr *pipeline.PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PermissionError, got %T", err)
	}
	if perr.Role != access.RoleDataManager || perr.From != board.StagePricing || perr.To != board.StageDone {
		t.Fatalf("unexpected permission error fields: %+v", perr)
	}
	stored, err := h.store.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if stored.Status != board.StagePricing {
		t.Fatalf("status changed to %s after denial", stored.Status)
	}
	if events := h.events(); len(events) != 0 {
		t.Fatalf("denied transition notified: %+v", events)
	}
}

func TestClientNeverTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	actor := testsupport.Actor(access.RoleClient)
	for _, from := range board.AllStages() {
		task := testsupport.SeedTask(t, h.store, "Client "+string(from), from)
		for _, to := range board.AllStages() {
			if to == from {
				continue
			}
			_, err := h.engine.AttemptTransition(ctx, actor, task, to, -1)
			if !errors.Is(err, pipeline.ErrPermissionDenied) {
				t.Fatalf("client %s -> %s: expected denial, got %v", from, to, err)
			}
		}
		stored, err := h.store.GetTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("GetTask: %v", err)
		}
		if stored.Status != from {
			t.Fatalf("client changed status %s -> %s", from, stored.Status)
		}
	}
}

func TestAdminArchiveRoundTripKeepsAttachments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	atts := []board.Attachment{
		h.attachment(t, board.StageRaw, "source.csv"),
		h.attachment(t, board.StagePricing, "quote.pdf"),
	}
	task := testsupport.SeedTask(t, h.store, "Finished", board.StageDone, testsupport.WithAttachments(atts...))
	admin := testsupport.Actor(access.RoleAdmin)

	res, err := h.engine.AttemptTransition(ctx, admin, task, board.StageArchive, -1)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	res, err = h.engine.AttemptTransition(ctx, admin, res.Task, board.StageDone, -1)
	if err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	if res.Task.Status != board.StageDone {
		t.Fatalf("final status = %s", res.Task.Status)
	}
	if len(res.Task.Attachments) != len(atts) {
		t.Fatalf("attachments changed: %+v", res.Task.Attachments)
	}
	for i := range atts {
		if res.Task.Attachments[i] != atts[i] {
			t.Fatalf("attachment %d changed: %+v != %+v", i, res.Task.Attachments[i], atts[i])
		}
	}

	events := h.events()
	if len(events) != 2 ||
		events[0].Event != notifications.EventTaskArchived ||
		events[1].Event != notifications.EventTaskUnarchived {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestNonAdminCannotArchive(t *testing.T) {
	h := newHarness(t)
	task := testsupport.SeedTask(t, h.store, "Priced", board.StagePricing)
	_, err := h.engine.AttemptTransition(context.Background(), testsupport.Actor(access.RoleDataScientist), task, board.StageArchive, -1)
	if !errors.Is(err, pipeline.ErrPermissionDenied) {
		t.Fatalf("expected denial, got %v", err)
	}
}

func TestSameStageIsNotATransition(t *testing.T) {
	h := newHarness(t)
	task := testsupport.SeedTask(t, h.store, "Still", board.StageRaw)
	_, err := h.engine.AttemptTransition(context.Background(), testsupport.Actor(access.RoleAdmin), task, board.StageRaw, 0)
	if !errors.Is(err, pipeline.ErrNoOpTransition) {
		t.Fatalf("expected ErrNoOpTransition, got %v", err)
	}
}

func TestUnknownStageRejected(t *testing.T) {
	if err := pipeline.Check(access.Default(), access.RoleAdmin, board.StageRaw, board.Stage("shipping")); !errors.Is(err, pipeline.ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestUnassignedRoleFailsClosed(t *testing.T) {
	table := access.Default()
	for _, from := range board.AllStages() {
		for _, to := range board.AllStages() {
			if from == to {
				continue
			}
			if err := pipeline.Check(table, access.RoleNone, from, to); !errors.Is(err, pipeline.ErrPermissionDenied) {
				t.Fatalf("unassigned %s -> %s: expected denial, got %v", from, to, err)
			}
			if err := pipeline.Check(table, access.Role("superuser"), from, to); !errors.Is(err, pipeline.ErrPermissionDenied) {
				t.Fatalf("unknown role %s -> %s: expected denial, got %v", from, to, err)
			}
		}
	}
}

func TestTransitionOnRemovedTaskIsStale(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task := testsupport.SeedTask(t, h.store, "Racing", board.StageRaw)
	if _, err := h.store.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	res, err := h.engine.AttemptTransition(ctx, testsupport.Actor(access.RoleDataManager), task, board.StageFiltering, -1)
	if err != nil {
		t.Fatalf("expected stale no-op, got %v", err)
	}
	if res.Outcome != pipeline.OutcomeStale || res.Task != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if n := countID(stageIDs(t, h.store, board.StageFiltering), task.ID); n != 0 {
		t.Fatal("stale transition resurrected the task")
	}

	res, err = h.engine.Move(ctx, testsupport.Actor(access.RoleDataManager), task.ID, board.StageFiltering, -1)
	if err != nil || res.Outcome != pipeline.OutcomeStale {
		t.Fatalf("Move on missing task: %+v, %v", res, err)
	}
}

func TestTransitionAgainstMovedTaskConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	snapshot := testsupport.SeedTask(t, h.store, "Contested", board.StageRaw)
	if _, err := h.engine.AttemptTransition(ctx, testsupport.Actor(access.RoleAdmin), snapshot, board.StagePricing, -1); err != nil {
		t.Fatalf("admin move: %v", err)
	}

	_, err := h.engine.AttemptTransition(ctx, testsupport.Actor(access.RoleDataManager), snapshot, board.StageFiltering, -1)
	if !errors.Is(err, pipeline.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	stored, err := h.store.GetTask(ctx, snapshot.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if stored.Status != board.StagePricing {
		t.Fatalf("stale-snapshot transition overwrote status: %s", stored.Status)
	}
}

func TestMoveInsertsAtIndex(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := testsupport.SeedTask(t, h.store, "A", board.StageFiltering)
	b := testsupport.SeedTask(t, h.store, "B", board.StageFiltering)
	moving := testsupport.SeedTask(t, h.store, "M", board.StageRaw)

	if _, err := h.engine.Move(ctx, testsupport.Actor(access.RoleDataQA), moving.ID, board.StageFiltering, 1); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got := stageIDs(t, h.store, board.StageFiltering)
	want := []string{a.ID, moving.ID, b.ID}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("filtering order = %v, want %v", got, want)
	}
}

func TestReorderRequiresDragRights(t *testing.T) {
	h := newHarness(t)
	task := testsupport.SeedTask(t, h.store, "Fixed", board.StageDone)
	_, err := h.engine.Reorder(context.Background(), testsupport.Actor(access.RoleDataManager), task.ID, board.StageDone, 0)
	if !errors.Is(err, pipeline.ErrPermissionDenied) {
		t.Fatalf("expected denial, got %v", err)
	}
}

func TestPropertyTransitionMatchesTable(t *testing.T) {
	h := newHarness(t)
	table := access.Default()
	roles := append(access.AllRoles(), access.RoleNone)
	stages := board.AllStages()

	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		role := rapid.SampledFrom(roles).Draw(rt, "role")
		from := rapid.SampledFrom(stages).Draw(rt, "from")
		var others []board.Stage
		for _, s := range stages {
			if s != from {
				others = append(others, s)
			}
		}
		to := rapid.SampledFrom(others).Draw(rt, "to")

		task, err := h.store.CreateTask(ctx, &board.Task{Title: "prop", CreatedBy: "rapid", Status: from})
		if err != nil {
			rt.Fatalf("CreateTask: %v", err)
		}
		res, err := h.engine.AttemptTransition(ctx, testsupport.Actor(role), task, to, -1)
		stored, getErr := h.store.GetTask(ctx, task.ID)
		if getErr != nil {
			rt.Fatalf("GetTask: %v", getErr)
		}

		if table.CanTransition(role, from, to) {
			if err != nil {
				rt.Fatalf("%s %s -> %s should succeed: %v", role, from, to, err)
			}
			if res.Outcome != pipeline.OutcomeMoved || stored.Status != to {
				rt.Fatalf("%s %s -> %s: status %s", role, from, to, stored.Status)
			}
			tasks, err := h.store.List(ctx, board.ListOptions{})
			if err != nil {
				rt.Fatalf("List: %v", err)
			}
			seen := 0
			for _, listed := range tasks {
				if listed.ID == task.ID {
					seen++
					if listed.Status != to {
						rt.Fatalf("task observed in %s after move to %s", listed.Status, to)
					}
				}
			}
			if seen != 1 {
				rt.Fatalf("task observed %d times", seen)
			}
			return
		}
		if !errors.Is(err, pipeline.ErrPermissionDenied) {
			rt.Fatalf("%s %s -> %s should be denied, got %v", role, from, to, err)
		}
		if stored.Status != from {
			rt.Fatalf("denied transition changed status to %s", stored.Status)
		}
	})
}

func TestPropertyReorderNeverChangesStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, testsupport.SeedTask(t, h.store, fmt.Sprintf("T%d", i), board.StagePricing).ID)
	}
	admin := testsupport.Actor(access.RoleAdmin)

	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.SampledFrom(ids).Draw(rt, "id")
		index := rapid.IntRange(-1, len(ids)+1).Draw(rt, "index")
		res, err := h.engine.Reorder(ctx, admin, id, board.StagePricing, index)
		if err != nil {
			rt.Fatalf("Reorder: %v", err)
		}
		if res.Outcome != pipeline.OutcomeReordered {
			rt.Fatalf("outcome = %s", res.Outcome)
		}
		tasks, err := h.store.ListStage(ctx, board.StagePricing)
		if err != nil {
			rt.Fatalf("ListStage: %v", err)
		}
		if len(tasks) != len(ids) {
			rt.Fatalf("pricing holds %d tasks, want %d", len(tasks), len(ids))
		}
		for i, task := range tasks {
			if task.Status != board.StagePricing {
				rt.Fatalf("reorder changed status of %s to %s", task.ID, task.Status)
			}
			if task.Position != i {
				rt.Fatalf("positions not dense: %s at %d, index %d", task.ID, task.Position, i)
			}
		}
		if index >= 0 && index < len(ids) && tasks[index].ID != id {
			rt.Fatalf("task %s not at index %d", id, index)
		}
	})
}

func TestTransitionMetricsByResult(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := telemetry.NewWithReader(reader)
	if err != nil {
		t.Fatalf("NewWithReader: %v", err)
	}
	t.Cleanup(func() { _ = metrics.Shutdown(context.Background()) })
	h := newHarnessWithMetrics(t, metrics)
	ctx := context.Background()

	ok := testsupport.SeedTask(t, h.store, "ok", board.StageRaw)
	denied := testsupport.SeedTask(t, h.store, "denied", board.StageDone)
	if _, err := h.engine.AttemptTransition(ctx, testsupport.Actor(access.RoleDataQA), ok, board.StageFiltering, -1); err != nil {
		t.Fatalf("permitted transition: %v", err)
	}
	_, _ = h.engine.AttemptTransition(ctx, testsupport.Actor(access.RoleDataQA), denied, board.StageArchive, -1)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	byResult := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "board.transitions" {
				continue
			}
			sum := m.Data.(metricdata.Sum[int64])
			for _, dp := range sum.DataPoints {
				result, _ := dp.Attributes.Value("result")
				byResult[result.AsString()] += dp.Value
			}
		}
	}
	if byResult[telemetry.ResultPermitted] != 1 || byResult[telemetry.ResultDenied] != 1 {
		t.Fatalf("unexpected transition counts: %v", byResult)
	}
}
