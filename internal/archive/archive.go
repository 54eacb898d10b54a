// Package archive moves finished tasks into the archive, manually or on a
// retention sweep, and restores them.
//
// The sweep acts as a system admin identity and reuses the pipeline's
// transition path. Each task is attempted independently; one failure is
// logged and counted and the sweep carries on.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pricingboard/internal/access"
	"pricingboard/internal/board"
	"pricingboard/internal/logging"
	"pricingboard/internal/notifications"
	"pricingboard/internal/pipeline"
	"pricingboard/internal/telemetry"
)

var (
	// ErrNotDone indicates an archive request for a task outside done.
	ErrNotDone = errors.New("only done tasks can be archived")
	// ErrNotArchived indicates a restore request for a task outside the archive.
	ErrNotArchived = errors.New("task is not archived")
)

// SweepActorID identifies the sweep in logs and notifications.
const SweepActorID = "archive-sweep"

// SweepActor is the identity the automatic sweep acts as.
func SweepActor() access.Identity {
	return access.Identity{UserID: SweepActorID, DisplayName: "Archive sweep", Role: access.RoleAdmin}
}

// Store is the document store surface the service reads.
type Store interface {
	GetTask(ctx context.Context, id string) (*board.Task, error)
	ListStage(ctx context.Context, stage board.Stage) ([]*board.Task, error)
}

// Transitioner applies transitions. pipeline.Engine satisfies it.
type Transitioner interface {
	AttemptTransition(ctx context.Context, actor access.Identity, task *board.Task, to board.Stage, index int, opts ...pipeline.TransitionOption) (pipeline.TransitionResult, error)
}

// Service runs archive operations.
type Service struct {
	store     Store
	engine    Transitioner
	notifier  pipeline.Notifier
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time
}

// NewService wires a Service. retention is how long a task stays in done
// past its due date (or its arrival in done when undated).
func NewService(store Store, engine Transitioner, notifier pipeline.Notifier, metrics *telemetry.Metrics, logger *slog.Logger, retention time.Duration) *Service {
	return &Service{
		store:     store,
		engine:    engine,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logging.NewComponentLogger(logger, "archive"),
		retention: retention,
		now:       time.Now,
	}
}

// SetClock overrides the sweep's notion of now.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Retention returns the configured retention window.
func (s *Service) Retention() time.Duration {
	return s.retention
}

// Archive moves a done task into the archive. Admin only.
func (s *Service) Archive(ctx context.Context, actor access.Identity, taskID string) (pipeline.TransitionResult, error) {
	return s.manual(ctx, actor, taskID, board.StageDone, board.StageArchive, ErrNotDone)
}

// Unarchive restores an archived task to done. Admin only.
func (s *Service) Unarchive(ctx context.Context, actor access.Identity, taskID string) (pipeline.TransitionResult, error) {
	return s.manual(ctx, actor, taskID, board.StageArchive, board.StageDone, ErrNotArchived)
}

func (s *Service) manual(ctx context.Context, actor access.Identity, taskID string, from, to board.Stage, wrongStage error) (pipeline.TransitionResult, error) {
	if !actor.IsAdmin() {
		return pipeline.TransitionResult{}, access.Deny(actor.Role, "move", from, to)
	}
	task, err := s.store.GetTask(ctx, taskID)
	if errors.Is(err, board.ErrNotFound) {
		return pipeline.TransitionResult{Outcome: pipeline.OutcomeStale, To: to}, nil
	}
	if err != nil {
		return pipeline.TransitionResult{}, err
	}
	if task.Status != from {
		return pipeline.TransitionResult{}, fmt.Errorf("%w (task is in %s)", wrongStage, task.Status)
	}
	return s.engine.AttemptTransition(ctx, actor, task, to, -1)
}

// List returns archived tasks in position order.
func (s *Service) List(ctx context.Context) ([]*board.Task, error) {
	return s.store.ListStage(ctx, board.StageArchive)
}

// Failure records a task the sweep could not archive.
type Failure struct {
	TaskID string
	Title  string
	Err    error
}

// Report summarizes a sweep.
type Report struct {
	Candidates int
	Archived   int
	Stale      int
	Failed     []Failure
}

// Run performs a sweep on behalf of actor. Admin only.
func (s *Service) Run(ctx context.Context, actor access.Identity) (Report, error) {
	if !actor.IsAdmin() {
		return Report{}, access.Deny(actor.Role, "run the archive sweep", "", "")
	}
	return s.Sweep(ctx)
}

// Sweep archives every done task whose retention has lapsed. It returns an
// error only when the candidates cannot be listed.
func (s *Service) Sweep(ctx context.Context) (Report, error) {
	tasks, err := s.store.ListStage(ctx, board.StageDone)
	if err != nil {
		return Report{}, fmt.Errorf("list done tasks: %w", err)
	}
	now := s.now()
	actor := SweepActor()
	var report Report
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !task.ArchiveDue(now, s.retention) {
			continue
		}
		report.Candidates++
		res, err := s.engine.AttemptTransition(ctx, actor, task, board.StageArchive, -1, pipeline.Quiet())
		if err != nil {
			report.Failed = append(report.Failed, Failure{TaskID: task.ID, Title: task.Title, Err: err})
			logging.WarnWithContext(logging.WithContext(logging.WithTaskID(ctx, task.ID), s.logger),
				"archive sweep could not archive task", "archive_failed",
				logging.String("title", task.Title),
				logging.ErrorHint("the task is retried on the next sweep"),
				logging.Error(err),
			)
			continue
		}
		if res.Outcome == pipeline.OutcomeStale {
			report.Stale++
			continue
		}
		report.Archived++
	}

	s.metrics.ArchiveSwept(ctx, report.Archived)
	s.metrics.ArchiveFailed(ctx, len(report.Failed))
	if report.Archived > 0 || len(report.Failed) > 0 {
		s.logger.Info("archive sweep finished",
			logging.Int("candidates", report.Candidates),
			logging.Int("archived", report.Archived),
			logging.Int("failed", len(report.Failed)),
		)
		if s.notifier != nil {
			s.notifier.Emit(notifications.EventSweepSummary, notifications.Payload{
				"archived": report.Archived,
				"failed":   len(report.Failed),
				"actor":    actor.Name(),
			})
		}
	}
	return report, nil
}
