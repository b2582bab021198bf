package domain

import "time"

// OTPCode stores a pending one-time code for a phone number.
// PK: otp_id. The phone GSI enforces the "at most one active record per
// phone" invariant together with the delete-before-create in the store.
// ExpiresAt is a Unix timestamp doubling as the DynamoDB TTL attribute;
// the authoritative expiry check happens at read time.
type OTPCode struct {
	OTPID       string  `json:"id" dynamodbav:"otp_id"`
	Phone       string  `json:"phone" dynamodbav:"phone"`
	Code        string  `json:"-" dynamodbav:"code"`
	Attempts    int     `json:"attempts" dynamodbav:"attempts"`
	MaxAttempts int     `json:"max_attempts" dynamodbav:"max_attempts"`
	Verified    bool    `json:"verified" dynamodbav:"verified"`
	UserID      *string `json:"user_id,omitempty" dynamodbav:"user_id"`
	CreatedAt   int64   `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt   int64   `json:"expires_at" dynamodbav:"expires_at"`
}

// Expired reports whether the code's validity window has passed.
func (o *OTPCode) Expired(now time.Time) bool {
	return o.ExpiresAt < now.Unix()
}

// Exhausted reports whether the attempt budget is used up.
func (o *OTPCode) Exhausted() bool {
	return o.Attempts >= o.MaxAttempts
}

// VerificationReceipt is a short-lived, single-use proof that an OTP
// verification succeeded. It bridges the verify step to session issuance
// across a client-side redirect; it never grants access by itself.
type VerificationReceipt struct {
	Token     string `json:"-" dynamodbav:"receipt_token"`
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Phone     string `json:"phone" dynamodbav:"phone"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}

func (r *VerificationReceipt) Expired(now time.Time) bool {
	return r.ExpiresAt < now.Unix()
}
