package pipeline_test

import (
	"context"
	"testing"
	"time"

	"pricingboard/internal/access"
	"pricingboard/internal/attachments"
	"pricingboard/internal/board"
	"pricingboard/internal/logging"
	"pricingboard/internal/notifications"
	"pricingboard/internal/pipeline"
	"pricingboard/internal/telemetry"
	"pricingboard/internal/testsupport"
)

type harness struct {
	engine   *pipeline.Engine
	store    *board.Store
	blobs    *testsupport.FlakyBlobs
	recorder *testsupport.RecordingNotifier
	emitter  *notifications.Emitter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithMetrics(t, telemetry.Noop())
}

func newHarnessWithMetrics(t *testing.T, metrics *telemetry.Metrics) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	blobs := testsupport.NewFlakyBlobs(testsupport.NewBlobStore(t, cfg))
	recorder := &testsupport.RecordingNotifier{}
	emitter := notifications.NewEmitter(recorder, logging.NewNop(), time.Second)
	files := attachments.NewManager(store, blobs, access.Default(), metrics, logging.NewNop())
	engine := pipeline.NewEngine(store, files, access.Default(), emitter, metrics, logging.NewNop())
	return &harness{engine: engine, store: store, blobs: blobs, recorder: recorder, emitter: emitter}
}

func (h *harness) attachment(t *testing.T, folder board.Stage, name string) board.Attachment {
	t.Helper()
	loc := testsupport.MustUpload(t, h.blobs.Inner, string(folder), name, "content of "+name)
	return board.Attachment{Folder: folder, FilePath: loc, Name: name}
}

func (h *harness) events() []testsupport.RecordedEvent {
	h.emitter.Wait()
	return h.recorder.Events()
}

func stageIDs(t *testing.T, store *board.Store, stage board.Stage) []string {
	t.Helper()
	tasks, err := store.ListStage(context.Background(), stage)
	if err != nil {
		t.Fatalf("ListStage(%s): %v", stage, err)
	}
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func countID(ids []string, id string) int {
	n := 0
	for _, candidate := range ids {
		if candidate == id {
			n++
		}
	}
	return n
}
