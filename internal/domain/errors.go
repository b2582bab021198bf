package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// OTP-flow sentinels. A code is usable only while unverified, unexpired and
// under the attempt limit; every other state collapses into one of these.
var (
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrNoActiveCode    = errors.New("no active code")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrDeliveryFailed  = errors.New("delivery failed")
)

// InvalidCodeError is returned on a wrong guess while attempts remain.
// Remaining is surfaced to the caller for user feedback.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code, %d attempts remaining", e.Remaining)
}

func (e *InvalidCodeError) Unwrap() error { return ErrUnauthorized }
