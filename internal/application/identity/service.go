package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/occamy/fieldops-api/internal/domain"
	"github.com/occamy/fieldops-api/internal/infrastructure/google"
	"github.com/occamy/fieldops-api/internal/pkg/id"
)

// Service maps a verified phone or an external SSO profile onto a durable
// identity, creating one if absent. Creation is race-safe: the storage
// layer's uniqueness guards turn a lost race into a re-fetch, never into a
// duplicate or a crash.
type Service interface {
	ResolveOrCreateByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	ResolveOrCreateBySSO(ctx context.Context, p *google.Payload) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUnique(ctx context.Context, u *domain.User) error
}

type service struct {
	users userStore
}

func NewService(users userStore) Service {
	return &service{users: users}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

// ResolveOrCreateByPhone returns the identity owning the phone, creating a
// FARMER account with a synthesized placeholder email on first contact.
// Phone-path accounts carry an assigned role from birth; there is no
// role-selection step for them.
func (s *service) ResolveOrCreateByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	u, err := s.users.GetByPhone(ctx, phoneNumber)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	p := phoneNumber
	created := &domain.User{
		UserID:       id.New(),
		Username:     "farmer_" + phoneNumber,
		Name:         "Farmer " + phoneNumber,
		Email:        domain.PlaceholderEmail(phoneNumber),
		Phone:        &p,
		Role:         domain.RoleFarmer,
		RoleAssigned: true,
		AuthProvider: "phone",
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUnique(ctx, created); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a creation race; the winner's row is the identity.
			return s.users.GetByPhone(ctx, phoneNumber)
		}
		return nil, err
	}
	return created, nil
}

// ResolveOrCreateBySSO returns the identity owning the profile's email,
// creating one on first SSO login. Placeholder (phone-derived) emails are
// never SSO identities. A valid role claim seeds the role; ADMIN is never
// granted from a claim. Without a usable claim the account lands on the
// OFFICER default with role assignment still pending.
func (s *service) ResolveOrCreateBySSO(ctx context.Context, p *google.Payload) (*domain.User, error) {
	if p.Email == "" || !p.EmailVerified {
		return nil, fmt.Errorf("sso profile has no verified email: %w", domain.ErrUnauthorized)
	}
	if domain.IsPlaceholderEmail(p.Email) {
		return nil, fmt.Errorf("placeholder email cannot log in via sso: %w", domain.ErrForbidden)
	}

	u, err := s.users.GetByEmail(ctx, p.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	role := domain.RoleOfficer
	roleAssigned := false
	if claimed, err := domain.ParseRole(p.Role); err == nil && claimed != domain.RoleAdmin {
		role = claimed
		roleAssigned = true
	}

	name := p.Name
	if name == "" {
		name = p.Email
	}
	now := time.Now().UTC()
	created := &domain.User{
		UserID:       id.New(),
		Username:     strings.SplitN(p.Email, "@", 2)[0],
		Name:         name,
		Email:        p.Email,
		Role:         role,
		RoleAssigned: roleAssigned,
		AuthProvider: "google",
		GoogleSub:    p.Sub,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUnique(ctx, created); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.users.GetByEmail(ctx, p.Email)
		}
		return nil, err
	}
	return created, nil
}
