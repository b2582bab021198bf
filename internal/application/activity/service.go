package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/occamy/fieldops-api/internal/domain"
	"github.com/occamy/fieldops-api/internal/pkg/id"
)

// Service manages field activity records. Every operation re-checks the
// caller's role against the durable store before touching a record.
type Service interface {
	Create(ctx context.Context, actorID string, req domain.CreateActivityRequest) (*domain.Activity, error)
	Get(ctx context.Context, actorID, activityID string) (*domain.Activity, error)
	// List returns all activities for admins and only the caller's own for
	// everyone else.
	List(ctx context.Context, actorID string) ([]domain.Activity, error)
}

type activityStore interface {
	Put(ctx context.Context, a *domain.Activity) error
	Get(ctx context.Context, activityID string) (*domain.Activity, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Activity, error)
	ListAll(ctx context.Context) ([]domain.Activity, error)
}

type authorizer interface {
	RequireRole(ctx context.Context, userID string, allowed ...domain.Role) (*domain.User, error)
	AuthorizeRecord(ctx context.Context, userID, recordOwnerID string) (*domain.User, error)
}

type service struct {
	store activityStore
	authz authorizer
}

func NewService(store activityStore, authz authorizer) Service {
	return &service{store: store, authz: authz}
}

func (s *service) Create(ctx context.Context, actorID string, req domain.CreateActivityRequest) (*domain.Activity, error) {
	actor, err := s.authz.RequireRole(ctx, actorID, domain.RoleOfficer, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	activityType, err := domain.ParseActivityType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("unknown activity type %q: %w", req.Type, domain.ErrBadRequest)
	}
	if err := validateDetails(activityType, req); err != nil {
		return nil, err
	}

	a := &domain.Activity{
		ActivityID:   id.New(),
		UserID:       actor.UserID,
		Type:         activityType,
		Title:        req.Title,
		Description:  req.Description,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Timestamp:    time.Now().UTC(),
		Meeting:      req.Meeting,
		Sale:         req.Sale,
		Distribution: req.Distribution,
	}
	if err := s.store.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Get(ctx context.Context, actorID, activityID string) (*domain.Activity, error) {
	a, err := s.store.Get(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.AuthorizeRecord(ctx, actorID, a.UserID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) List(ctx context.Context, actorID string) ([]domain.Activity, error) {
	actor, err := s.authz.RequireRole(ctx, actorID, domain.RoleOfficer, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleAdmin {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByUser(ctx, actor.UserID)
}

// validateDetails enforces that exactly the detail block matching the type is
// present. A typed record with the wrong payload is rejected outright.
func validateDetails(t domain.ActivityType, req domain.CreateActivityRequest) error {
	switch t {
	case domain.ActivityMeeting:
		if req.Meeting == nil || req.Sale != nil || req.Distribution != nil {
			return fmt.Errorf("meeting activity requires only meeting details: %w", domain.ErrBadRequest)
		}
	case domain.ActivitySales:
		if req.Sale == nil || req.Meeting != nil || req.Distribution != nil {
			return fmt.Errorf("sales activity requires only sale details: %w", domain.ErrBadRequest)
		}
	case domain.ActivityDistribution:
		if req.Distribution == nil || req.Meeting != nil || req.Sale != nil {
			return fmt.Errorf("distribution activity requires only distribution details: %w", domain.ErrBadRequest)
		}
	}
	return nil
}
