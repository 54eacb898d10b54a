package notifications

import (
	"context"
	"net/http"
	"time"

	"pricingboard/internal/config"
)

const userAgent = "PricingBoard/1.0"

// Service defines the notification surface exposed to board components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service for the configured provider.
// When no provider is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	n := cfg.Notifications
	timeout := time.Duration(n.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var transport sender
	switch n.Provider {
	case "webhook":
		if n.WebhookURL == "" {
			return noopService{}
		}
		transport = &webhookSender{endpoint: n.WebhookURL, boardURL: n.BoardURL, client: client}
	case "ntfy":
		if n.NtfyTopic == "" {
			return noopService{}
		}
		transport = &ntfySender{endpoint: n.NtfyTopic, boardURL: n.BoardURL, client: client}
	default:
		return noopService{}
	}
	return &service{
		transport: transport,
		enabled: map[Event]bool{
			EventTaskCreated:    n.Created,
			EventTaskMoved:      n.Transitions,
			EventTaskArchived:   n.Archive,
			EventTaskUnarchived: n.Archive,
			EventSweepSummary:   n.Archive,
			EventTest:           true,
		},
	}
}

type sender interface {
	send(ctx context.Context, msg Message) error
}

type service struct {
	transport sender
	enabled   map[Event]bool
}

func (s *service) Publish(ctx context.Context, event Event, payload Payload) error {
	if s == nil || s.transport == nil || !s.enabled[event] {
		return nil
	}
	msg, ok := Render(event, payload)
	if !ok {
		return nil
	}
	return s.transport.send(ctx, msg)
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
