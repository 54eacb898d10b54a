package testsupport

import (
	"context"
	"testing"
	"time"

	"pricingboard/internal/access"
	"pricingboard/internal/board"
	"pricingboard/internal/config"
)

// MustOpenStore opens a board.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *board.Store {
	t.Helper()

	store, err := board.Open(cfg)
	if err != nil {
		t.Fatalf("board.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// TaskOption customizes a seeded task.
type TaskOption func(*board.Task)

// WithAttachments sets the seeded task's attachments.
func WithAttachments(attachments ...board.Attachment) TaskOption {
	return func(task *board.Task) {
		task.Attachments = append(task.Attachments, attachments...)
	}
}

// WithDueDate sets the seeded task's due date.
func WithDueDate(due time.Time) TaskOption {
	return func(task *board.Task) {
		task.DueDate = &due
	}
}

// WithLink sets the seeded task's link.
func WithLink(link string) TaskOption {
	return func(task *board.Task) {
		task.Link = link
	}
}

// SeedTask inserts a task directly into stage, bypassing permission checks.
func SeedTask(t testing.TB, store *board.Store, title string, stage board.Stage, opts ...TaskOption) *board.Task {
	t.Helper()

	task := &board.Task{Title: title, CreatedBy: "seed", Status: stage}
	for _, opt := range opts {
		opt(task)
	}
	created, err := store.CreateTask(context.Background(), task)
	if err != nil {
		t.Fatalf("store.CreateTask: %v", err)
	}
	return created
}

// MustRegister creates a user with role and returns it with a session token.
func MustRegister(t testing.TB, store *board.Store, name string, role access.Role) (*board.User, string) {
	t.Helper()

	ctx := context.Background()
	user, err := store.CreateUser(ctx, name, "")
	if err != nil {
		t.Fatalf("store.CreateUser: %v", err)
	}
	if role != access.RoleNone {
		if err := store.SetUserRole(ctx, user.ID, string(role)); err != nil {
			t.Fatalf("store.SetUserRole: %v", err)
		}
		user.Role = string(role)
	}
	token, err := store.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
	return user, token
}

// Actor returns an identity with role for permission tests.
func Actor(role access.Role) access.Identity {
	name := string(role)
	if name == "" {
		name = "nobody"
	}
	return access.Identity{UserID: "user-" + name, DisplayName: role.Label(), Role: role}
}
