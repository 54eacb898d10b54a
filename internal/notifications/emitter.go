package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pricingboard/internal/logging"
)

const defaultEmitTimeout = 15 * time.Second

// Emitter publishes events asynchronously. Emit never blocks on the network
// and never reports delivery errors to the caller.
type Emitter struct {
	svc     Service
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewEmitter wraps svc. A nil svc discards events.
func NewEmitter(svc Service, logger *slog.Logger, timeout time.Duration) *Emitter {
	if svc == nil {
		svc = noopService{}
	}
	if timeout <= 0 {
		timeout = defaultEmitTimeout
	}
	return &Emitter{
		svc:     svc,
		logger:  logging.NewComponentLogger(logger, "notifications"),
		timeout: timeout,
	}
}

// Emit schedules delivery of event on its own goroutine.
func (e *Emitter) Emit(event Event, payload Payload) {
	if e == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if err := e.svc.Publish(ctx, event, payload); err != nil {
			logging.WarnWithContext(e.logger, "notification delivery failed", "notification_failed",
				logging.String("event", string(event)),
				logging.ErrorHint("check notifications.webhook_url / ntfy_topic reachability"),
				logging.Error(err),
			)
		}
	}()
}

// Wait blocks until every scheduled delivery has finished.
func (e *Emitter) Wait() {
	if e == nil {
		return
	}
	e.wg.Wait()
}
