package identity_test

import (
	"context"
	"errors"
	"testing"

	"pricingboard/internal/access"
	"pricingboard/internal/identity"
	"pricingboard/internal/testsupport"
)

func TestRegisterIssuesTokenWithNoRights(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	provider := identity.NewProvider(store)
	ctx := context.Background()

	reg, err := provider.Register(ctx, "Casey", "casey@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Token == "" {
		t.Fatal("expected session token")
	}
	who, err := provider.Resolve(ctx, reg.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if who.Role != access.RoleNone {
		t.Fatalf("expected unassigned role, got %q", who.Role)
	}
	if who.DisplayName != "Casey" || who.UserID != reg.User.ID {
		t.Fatalf("unexpected identity %+v", who)
	}
}

func TestResolveRejectsUnknownTokens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	provider := identity.NewProvider(store)

	for _, token := range []string{"", "  ", "not-a-token"} {
		if _, err := provider.Resolve(context.Background(), token); !errors.Is(err, identity.ErrUnauthenticated) {
			t.Fatalf("Resolve(%q): expected ErrUnauthenticated, got %v", token, err)
		}
	}
}

func TestAssignRoleRequiresAdmin(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	provider := identity.NewProvider(store)
	ctx := context.Background()

	admin, _ := testsupport.MustRegister(t, store, "Root", access.RoleAdmin)
	client, clientToken := testsupport.MustRegister(t, store, "Client", access.RoleClient)

	if _, err := provider.AssignRole(ctx, identity.FromUser(client), admin.ID, "client"); !errors.Is(err, identity.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
	if _, err := provider.AssignRole(ctx, identity.FromUser(admin), client.ID, "wizard"); !errors.Is(err, identity.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	updated, err := provider.AssignRole(ctx, identity.FromUser(admin), client.ID, "datascientist")
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if updated.Role != string(access.RoleDataScientist) {
		t.Fatalf("expected canonical role name, got %q", updated.Role)
	}
	who, err := provider.Resolve(ctx, clientToken)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if who.Role != access.RoleDataScientist {
		t.Fatalf("expected role to take effect on next resolve, got %q", who.Role)
	}
}

func TestRemoveUserRevokesSessions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	provider := identity.NewProvider(store)
	ctx := context.Background()

	admin, _ := testsupport.MustRegister(t, store, "Root", access.RoleAdmin)
	user, token := testsupport.MustRegister(t, store, "Temp", access.RoleDataQA)

	removed, err := provider.RemoveUser(ctx, identity.FromUser(admin), user.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveUser: removed=%v err=%v", removed, err)
	}
	if _, err := provider.Resolve(ctx, token); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Fatalf("expected revoked session, got %v", err)
	}
	if _, err := provider.RemoveUser(ctx, identity.FromUser(admin), admin.ID); err == nil {
		t.Fatal("expected admin self-removal to be refused")
	}
}

func TestFromUserFailsClosedOnUnknownRole(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	user, _ := testsupport.MustRegister(t, store, "Odd", access.RoleNone)
	if err := store.SetUserRole(context.Background(), user.ID, "superuser"); err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	fetched, err := store.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got := identity.FromUser(fetched).Role; got != access.RoleNone {
		t.Fatalf("expected RoleNone for unknown stored role, got %q", got)
	}
}
