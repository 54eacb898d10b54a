// Package identity resolves session tokens to acting identities and manages
// role assignment. Resolution fails closed: an unknown, empty, or unassigned
// role yields an identity that may view the board but holds no rights.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pricingboard/internal/access"
	"pricingboard/internal/board"
)

var (
	// ErrUnauthenticated indicates a missing or unknown session token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the acting identity may not perform user administration.
	ErrForbidden = errors.New("admin role required")
	// ErrInvalidRole indicates a role value outside the six assignable roles.
	ErrInvalidRole = errors.New("invalid role")
	// ErrSelfRemoval indicates an admin attempting to remove their own account.
	ErrSelfRemoval = errors.New("cannot remove the acting admin")
)

// Users is the slice of the board store the provider needs.
type Users interface {
	CreateUser(ctx context.Context, displayName, email string) (*board.User, error)
	GetUser(ctx context.Context, id string) (*board.User, error)
	ListUsers(ctx context.Context) ([]*board.User, error)
	SetUserRole(ctx context.Context, id, role string) error
	DeleteUser(ctx context.Context, id string) (bool, error)
	CreateSession(ctx context.Context, userID string) (string, error)
	UserForToken(ctx context.Context, token string) (*board.User, error)
}

// Provider issues and resolves identities.
type Provider struct {
	users Users
}

// NewProvider returns a Provider backed by users.
func NewProvider(users Users) *Provider {
	return &Provider{users: users}
}

// Registration is the result of registering a user.
type Registration struct {
	User  *board.User
	Token string
}

// Register creates a user with no role and issues a session token.
func (p *Provider) Register(ctx context.Context, displayName, email string) (Registration, error) {
	user, err := p.users.CreateUser(ctx, displayName, email)
	if err != nil {
		return Registration{}, err
	}
	token, err := p.users.CreateSession(ctx, user.ID)
	if err != nil {
		return Registration{}, err
	}
	return Registration{User: user, Token: token}, nil
}

// Resolve maps a session token to an Identity.
func (p *Provider) Resolve(ctx context.Context, token string) (access.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return access.Identity{}, ErrUnauthenticated
	}
	user, err := p.users.UserForToken(ctx, token)
	if errors.Is(err, board.ErrNotFound) {
		return access.Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return access.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return FromUser(user), nil
}

// FromUser converts a stored user into an Identity. Unrecognised roles become RoleNone.
func FromUser(user *board.User) access.Identity {
	if user == nil {
		return access.Identity{}
	}
	role, ok := access.ParseRole(user.Role)
	if !ok {
		role = access.RoleNone
	}
	return access.Identity{UserID: user.ID, DisplayName: user.DisplayName, Role: role}
}

// ListUsers returns every registered user. Admin only.
func (p *Provider) ListUsers(ctx context.Context, actor access.Identity) ([]*board.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return p.users.ListUsers(ctx)
}

// AssignRole sets a user's role. Admin only; the role must be one of the six.
func (p *Provider) AssignRole(ctx context.Context, actor access.Identity, userID, roleName string) (*board.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	role, ok := access.ParseRole(roleName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, roleName)
	}
	if err := p.users.SetUserRole(ctx, userID, string(role)); err != nil {
		return nil, err
	}
	return p.users.GetUser(ctx, userID)
}

// RemoveUser deletes a user. Admin only; admins cannot remove themselves.
func (p *Provider) RemoveUser(ctx context.Context, actor access.Identity, userID string) (bool, error) {
	if !actor.IsAdmin() {
		return false, ErrForbidden
	}
	if actor.UserID == userID {
		return false, ErrSelfRemoval
	}
	return p.users.DeleteUser(ctx, userID)
}
