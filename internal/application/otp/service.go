package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/occamy/fieldops-api/internal/domain"
	"github.com/occamy/fieldops-api/internal/infrastructure/sns"
	"github.com/occamy/fieldops-api/internal/pkg/id"
	pkgphone "github.com/occamy/fieldops-api/internal/pkg/phone"
	pkgtoken "github.com/occamy/fieldops-api/internal/pkg/token"
)

const (
	codeTTL      = 5 * time.Minute
	lookupWindow = 60 * time.Second
	receiptTTL   = 10 * time.Minute
)

// LookupResult bridges a fresh verification into session issuance: the
// receipt token rides the farmer-auth cookie and is redeemed exactly once.
type LookupResult struct {
	User    *domain.User
	Receipt *domain.VerificationReceipt
}

// Service drives the one-time-code lifecycle: a code moves
// SENT -> VERIFIED | LOCKED | EXPIRED, and only SENT accepts transitions.
// Retrying after any terminal state requires a fresh Send.
type Service interface {
	Send(ctx context.Context, rawPhone string) (devCode string, err error)
	Verify(ctx context.Context, rawPhone, submittedCode string) (*domain.User, error)
	Lookup(ctx context.Context, rawPhone string) (*LookupResult, error)
}

type otpStore interface {
	Put(ctx context.Context, o *domain.OTPCode) error
	Delete(ctx context.Context, otpID string) error
	DeleteByPhone(ctx context.Context, phoneNumber string) error
	FindActive(ctx context.Context, phoneNumber string, now time.Time) (*domain.OTPCode, error)
	FindRecentVerified(ctx context.Context, phoneNumber string, since time.Time) (*domain.OTPCode, error)
	IncrementAttempts(ctx context.Context, otpID string, maxAttempts int) (int, error)
	MarkVerified(ctx context.Context, otpID, userID string) error
	PutReceipt(ctx context.Context, rec *domain.VerificationReceipt) error
}

type identityResolver interface {
	ResolveOrCreateByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type service struct {
	store       otpStore
	identities  identityResolver
	sender      sns.CodeSender
	maxAttempts int
	devMode     bool
}

type ServiceDeps struct {
	Store       otpStore
	Identities  identityResolver
	Sender      sns.CodeSender
	MaxAttempts int
	DevMode     bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		store:       deps.Store,
		identities:  deps.Identities,
		sender:      deps.Sender,
		maxAttempts: deps.MaxAttempts,
		devMode:     deps.DevMode,
	}
}

// Send supersedes any prior code for the phone, persists a fresh one and
// hands it to the delivery channel. The code is only returned to the caller
// in dev mode; in production it travels over SMS alone.
func (s *service) Send(ctx context.Context, rawPhone string) (string, error) {
	phoneNumber, err := pkgphone.Normalize(rawPhone)
	if err != nil {
		return "", err
	}

	if err := s.store.DeleteByPhone(ctx, phoneNumber); err != nil {
		return "", err
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	record := &domain.OTPCode{
		OTPID:       id.New(),
		Phone:       phoneNumber,
		Code:        code,
		Attempts:    0,
		MaxAttempts: s.maxAttempts,
		Verified:    false,
		CreatedAt:   now.Unix(),
		ExpiresAt:   now.Add(codeTTL).Unix(),
	}
	if err := s.store.Put(ctx, record); err != nil {
		return "", err
	}

	if err := s.sender.SendCode(ctx, phoneNumber, code); err != nil {
		// The just-created record must not be presented as usable.
		if delErr := s.store.Delete(ctx, record.OTPID); delErr != nil {
			slog.Warn("failed to delete code after delivery failure", "phone", phoneNumber, "err", delErr)
		}
		return "", err
	}

	if s.devMode {
		return code, nil
	}
	return "", nil
}

// Verify consumes the active code for the phone. A match resolves (or
// creates) the identity and marks the record verified exactly once; a
// mismatch burns an attempt and reports how many remain. Exhaustion deletes
// the record, so recovery is always a fresh Send.
func (s *service) Verify(ctx context.Context, rawPhone, submittedCode string) (*domain.User, error) {
	phoneNumber, err := pkgphone.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}

	record, err := s.store.FindActive(ctx, phoneNumber, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Covers never-sent, expired and already-consumed alike.
			return nil, fmt.Errorf("code expired or not found, request a new one: %w", domain.ErrNoActiveCode)
		}
		return nil, err
	}

	if record.Exhausted() {
		if err := s.store.Delete(ctx, record.OTPID); err != nil {
			slog.Warn("failed to delete exhausted code", "phone", phoneNumber, "err", err)
		}
		return nil, fmt.Errorf("request a new code: %w", domain.ErrTooManyAttempts)
	}

	// Exact string equality: 6-digit codes keep leading zeros.
	if record.Code != submittedCode {
		return nil, s.recordFailedAttempt(ctx, record)
	}

	user, err := s.identities.ResolveOrCreateByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkVerified(ctx, record.OTPID, user.UserID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a race against a concurrent verify; the record is consumed.
			return nil, fmt.Errorf("code already used: %w", domain.ErrNoActiveCode)
		}
		return nil, err
	}
	return user, nil
}

func (s *service) recordFailedAttempt(ctx context.Context, record *domain.OTPCode) error {
	attempts, err := s.store.IncrementAttempts(ctx, record.OTPID, record.MaxAttempts)
	if err != nil {
		if errors.Is(err, domain.ErrTooManyAttempts) {
			// A concurrent guess already spent the last attempt.
			s.deleteLocked(ctx, record)
			return fmt.Errorf("request a new code: %w", domain.ErrTooManyAttempts)
		}
		return err
	}
	if attempts >= record.MaxAttempts {
		s.deleteLocked(ctx, record)
		return fmt.Errorf("request a new code: %w", domain.ErrTooManyAttempts)
	}
	return &domain.InvalidCodeError{Remaining: record.MaxAttempts - attempts}
}

func (s *service) deleteLocked(ctx context.Context, record *domain.OTPCode) {
	if err := s.store.Delete(ctx, record.OTPID); err != nil {
		slog.Warn("failed to delete locked-out code", "phone", record.Phone, "err", err)
	}
}

// Lookup finds a verification completed within the last minute and issues a
// short-lived single-use receipt for session issuance. The receipt is the
// only thing the farmer-auth cookie ever carries.
func (s *service) Lookup(ctx context.Context, rawPhone string) (*LookupResult, error) {
	phoneNumber, err := pkgphone.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record, err := s.store.FindRecentVerified(ctx, phoneNumber, now.Add(-lookupWindow))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no recent verified code: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	if record.UserID == nil {
		return nil, fmt.Errorf("verified code has no user: %w", domain.ErrNotFound)
	}

	user, err := s.identities.Get(ctx, *record.UserID)
	if err != nil {
		return nil, err
	}

	receiptToken, err := pkgtoken.NewOpaque()
	if err != nil {
		return nil, err
	}
	receipt := &domain.VerificationReceipt{
		Token:     receiptToken,
		UserID:    user.UserID,
		Phone:     phoneNumber,
		ExpiresAt: now.Add(receiptTTL).Unix(),
	}
	if err := s.store.PutReceipt(ctx, receipt); err != nil {
		return nil, err
	}
	return &LookupResult{User: user, Receipt: receipt}, nil
}

// generateCode draws a uniformly distributed 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
