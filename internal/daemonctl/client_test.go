package daemonctl_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pricingboard/internal/access"
	"pricingboard/internal/daemon"
	"pricingboard/internal/daemonctl"
	"pricingboard/internal/logging"
	"pricingboard/internal/telemetry"
	"pricingboard/internal/testsupport"
)

type env struct {
	base   string
	daemon *daemon.Daemon
}

func startDaemon(t *testing.T) env {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	services := daemon.Assemble(cfg, store, testsupport.NewBlobStore(t, cfg), &testsupport.RecordingNotifier{}, telemetry.Noop(), logging.NewNop())
	d, err := daemon.New(cfg, services, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)
	return env{base: daemonctl.BaseURL(d.Addr()), daemon: d}
}

func (e env) clientWithRole(t *testing.T, name string, role access.Role) *daemonctl.Client {
	t.Helper()
	_, token := testsupport.MustRegister(t, e.daemon.Services().Store, name, role)
	return daemonctl.New(e.base, token)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestClientDrivesTaskLifecycle(t *testing.T) {
	e := startDaemon(t)
	ctx := context.Background()
	client := e.clientWithRole(t, "Client", access.RoleClient)
	manager := e.clientWithRole(t, "Manager", access.RoleDataManager)

	if err := client.WaitReady(ctx, 5*time.Second); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}

	task, err := client.CreateTask(ctx, daemonctl.CreateRequest{Title: "Catalogue", DueDate: "2026-12-01", FilePath: writeFile(t, "brief.txt", "brief")})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Status != "raw" || len(task.Attachments) != 1 {
		t.Fatalf("unexpected task %+v", task)
	}

	if _, err := client.Move(ctx, task.ID, "filtering", 0); !daemonctl.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("client move should be forbidden, got %v", err)
	}
	moved, err := manager.Move(ctx, task.ID, "filtering", 0)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if moved.Outcome != "transitioned" {
		t.Fatalf("unexpected outcome %+v", moved)
	}

	board, err := manager.Board(ctx, "title", "desc")
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if got := len(board.Columns[1].Tasks); got != 1 {
		t.Fatalf("expected one task in filtering, got %d", got)
	}

	title := "Catalogue v2"
	edited, err := manager.EditTask(ctx, task.ID, daemonctl.EditRequest{Title: &title})
	if err != nil {
		t.Fatalf("EditTask: %v", err)
	}
	if edited.Task == nil || edited.Task.Title != title {
		t.Fatalf("unexpected edit %+v", edited)
	}

	if _, err := client.Remove(ctx, task.ID, true); !daemonctl.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("client may not remove from filtering, got %v", err)
	}
}

func TestClientRegisterAndAdministerUsers(t *testing.T) {
	e := startDaemon(t)
	ctx := context.Background()
	admin := e.clientWithRole(t, "Admin", access.RoleAdmin)

	reg, err := daemonctl.New(e.base, "").Register(ctx, "Priya", "priya@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	self := daemonctl.New(e.base, reg.Token)
	if _, err := self.Users(ctx); !daemonctl.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("unassigned user must not list users, got %v", err)
	}

	user, err := admin.AssignRole(ctx, reg.User.ID, "promptEngineer")
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if user.RoleLabel != "Prompt Engineer" {
		t.Fatalf("unexpected role label %q", user.RoleLabel)
	}
	status, err := self.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Identity == nil || status.Identity.Role != "promptEngineer" {
		t.Fatalf("role should apply to the existing session, got %+v", status.Identity)
	}

	if err := admin.RemoveUser(ctx, reg.User.ID); err != nil {
		t.Fatalf("RemoveUser: %v", err)
	}
	if _, err := self.Status(ctx); !daemonctl.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("removed user's token should be rejected, got %v", err)
	}
}

func TestClientReportsConnectionFailure(t *testing.T) {
	client := daemonctl.New("http://127.0.0.1:1", "token")
	if _, err := client.Status(context.Background()); err == nil {
		t.Fatal("expected connection error")
	}
}
