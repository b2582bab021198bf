package http

import (
	"context"
	"time"

	"github.com/occamy/fieldops-api/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	CreateUnique(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	// ScanPage returns a page of enabled users; the cursor is opaque.
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

// OTPRepository is the minimal interface the router requires from the
// one-time-code store, verification receipts included.
type OTPRepository interface {
	Put(ctx context.Context, o *domain.OTPCode) error
	Delete(ctx context.Context, otpID string) error
	DeleteByPhone(ctx context.Context, phoneNumber string) error
	FindActive(ctx context.Context, phoneNumber string, now time.Time) (*domain.OTPCode, error)
	FindRecentVerified(ctx context.Context, phoneNumber string, since time.Time) (*domain.OTPCode, error)
	IncrementAttempts(ctx context.Context, otpID string, maxAttempts int) (int, error)
	MarkVerified(ctx context.Context, otpID, userID string) error
	PutReceipt(ctx context.Context, rec *domain.VerificationReceipt) error
	TakeReceipt(ctx context.Context, receiptToken string, now time.Time) (*domain.VerificationReceipt, error)
}

// SessionRepository is the minimal interface the router requires from a session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
}

// ActivityRepository is the minimal interface the router requires from an activity store.
type ActivityRepository interface {
	Put(ctx context.Context, a *domain.Activity) error
	Get(ctx context.Context, activityID string) (*domain.Activity, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Activity, error)
	ListAll(ctx context.Context) ([]domain.Activity, error)
}
