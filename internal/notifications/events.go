package notifications

import (
	"fmt"
	"strings"
)

// Event identifies a notification category.
type Event string

const (
	EventTaskCreated    Event = "task_created"
	EventTaskMoved      Event = "task_moved"
	EventTaskArchived   Event = "task_archived"
	EventTaskUnarchived Event = "task_unarchived"
	EventSweepSummary   Event = "archive_sweep"
	EventTest           Event = "test"
)

// Payload carries event fields. Recognised keys: title, from, to, actor, link,
// archived, failed.
type Payload map[string]any

// Message is the rendered form handed to a transport.
type Message struct {
	Title    string
	Body     string
	Link     string
	Tags     []string
	Priority string
}

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Payload) num(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func stageLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

// Render turns an event into a message. Unknown events report false.
func Render(event Event, payload Payload) (Message, bool) {
	title := payload.str("title")
	actor := payload.str("actor")
	if actor == "" {
		actor = "someone"
	}
	msg := Message{Link: payload.str("link")}
	switch event {
	case EventTaskCreated:
		msg.Title = "New Task Created"
		msg.Body = fmt.Sprintf("%s created %q", actor, title)
		msg.Tags = []string{"board", "task", "created"}
	case EventTaskMoved:
		to := stageLabel(payload.str("to"))
		msg.Title = "Task Moved to " + to
		if from := payload.str("from"); from != "" {
			msg.Body = fmt.Sprintf("%q moved from %s to %s by %s", title, stageLabel(from), to, actor)
		} else {
			msg.Body = fmt.Sprintf("%q moved to %s by %s", title, to, actor)
		}
		msg.Tags = []string{"board", "task", payload.str("to")}
	case EventTaskArchived:
		msg.Title = "Task Archived"
		msg.Body = fmt.Sprintf("%q archived by %s", title, actor)
		msg.Tags = []string{"board", "archive"}
	case EventTaskUnarchived:
		msg.Title = "Task Restored"
		msg.Body = fmt.Sprintf("%q restored to Done by %s", title, actor)
		msg.Tags = []string{"board", "archive", "restored"}
	case EventSweepSummary:
		archived := payload.num("archived")
		failed := payload.num("failed")
		msg.Title = "Archive Sweep Complete"
		msg.Body = fmt.Sprintf("Archived %d task(s)", archived)
		msg.Tags = []string{"board", "archive", "sweep"}
		if failed > 0 {
			msg.Title = "Archive Sweep Complete (with errors)"
			msg.Body = fmt.Sprintf("Archived %d task(s), %d failed", archived, failed)
			msg.Priority = "high"
		}
	case EventTest:
		msg.Title = "Pricing Board - Test"
		msg.Body = "Notification system test"
		msg.Tags = []string{"board", "test"}
		msg.Priority = "low"
	default:
		return Message{}, false
	}
	return msg, true
}
