package domain

import (
	"fmt"
	"strings"
	"time"
)

// PlaceholderEmailDomain is the synthetic domain given to accounts created
// through the phone-OTP path so they satisfy the email uniqueness constraint.
// Accounts on this domain are never treated as SSO identities.
const PlaceholderEmailDomain = "occamy-field-ops.local"

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	Name         string     `json:"name" dynamodbav:"name"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        *string    `json:"phone" dynamodbav:"phone"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         Role       `json:"role" dynamodbav:"role"`
	RoleAssigned bool       `json:"role_assigned" dynamodbav:"role_assigned"`
	AuthProvider string     `json:"auth_provider,omitempty" dynamodbav:"auth_provider"` // "local" | "google" | "phone"
	GoogleSub    string     `json:"-" dynamodbav:"google_sub"`
	Enable       bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// PlaceholderEmail derives the synthetic email for a phone-first account.
func PlaceholderEmail(phone string) string {
	return fmt.Sprintf("farmer-%s@%s", phone, PlaceholderEmailDomain)
}

// IsPlaceholderEmail reports whether the email belongs to a phone-first
// account rather than a genuine SSO identity.
func IsPlaceholderEmail(email string) bool {
	return strings.HasSuffix(email, "@"+PlaceholderEmailDomain)
}

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
