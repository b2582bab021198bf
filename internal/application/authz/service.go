package authz

import (
	"context"
	"fmt"

	"github.com/occamy/fieldops-api/internal/domain"
)

// Service is the authorization gate consulted on every protected request,
// independent of which login path produced the session. It always re-reads
// the role from the durable store; a role cached in a token is never the
// basis of an access decision.
type Service interface {
	// RequireUser re-reads the identity and rejects disabled accounts.
	RequireUser(ctx context.Context, userID string) (*domain.User, error)
	// RequireRole re-reads the identity and checks it against the allowed roles.
	RequireRole(ctx context.Context, userID string, allowed ...domain.Role) (*domain.User, error)
	// AuthorizeRecord allows admins everywhere and everyone else only on
	// records they own. Applied to reads and writes alike.
	AuthorizeRecord(ctx context.Context, userID, recordOwnerID string) (*domain.User, error)
	// AssignRole writes a role to the durable store. Self-service assignment
	// is possible only while the role is still unassigned after a first SSO
	// login, and never grants ADMIN. Admins may set any role on any user.
	AssignRole(ctx context.Context, actorID, targetID string, requested domain.Role) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type service struct {
	users userStore
}

func NewService(users userStore) Service {
	return &service{users: users}
}

func (s *service) RequireUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("identity not found: %w", domain.ErrUnauthorized)
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	return u, nil
}

func (s *service) RequireRole(ctx context.Context, userID string, allowed ...domain.Role) (*domain.User, error) {
	u, err := s.RequireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, role := range allowed {
		if u.Role == role {
			return u, nil
		}
	}
	return nil, fmt.Errorf("role %s not permitted: %w", u.Role, domain.ErrForbidden)
}

func (s *service) AuthorizeRecord(ctx context.Context, userID, recordOwnerID string) (*domain.User, error) {
	u, err := s.RequireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role == domain.RoleAdmin {
		return u, nil
	}
	if recordOwnerID != u.UserID {
		return nil, fmt.Errorf("not the record owner: %w", domain.ErrForbidden)
	}
	return u, nil
}

func (s *service) AssignRole(ctx context.Context, actorID, targetID string, requested domain.Role) (*domain.User, error) {
	if !requested.Valid() {
		return nil, fmt.Errorf("invalid role: %w", domain.ErrBadRequest)
	}

	actor, err := s.RequireUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if actorID == targetID {
		// Self-service path: one shot, right after first SSO login.
		if actor.RoleAssigned {
			return nil, fmt.Errorf("role already assigned: %w", domain.ErrForbidden)
		}
		if requested == domain.RoleAdmin {
			return nil, fmt.Errorf("admin role cannot be self-assigned: %w", domain.ErrForbidden)
		}
		return s.writeRole(ctx, actor, requested)
	}

	// Cross-user assignment is an explicit admin action.
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("only admins may assign roles to others: %w", domain.ErrForbidden)
	}
	target, err := s.users.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return s.writeRole(ctx, target, requested)
}

func (s *service) writeRole(ctx context.Context, u *domain.User, role domain.Role) (*domain.User, error) {
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"role":          string(role),
		"role_assigned": true,
	}); err != nil {
		return nil, err
	}
	u.Role = role
	u.RoleAssigned = true
	return u, nil
}
