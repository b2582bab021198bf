// Package phone normalizes subscriber numbers before they touch storage or
// the delivery channel.
package phone

import (
	"fmt"
	"strings"

	"github.com/occamy/fieldops-api/internal/domain"
)

const subscriberDigits = 10

// Normalize strips every non-digit rune and requires exactly ten digits.
// The result is the canonical storage key for a phone number.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) != subscriberDigits {
		return "", fmt.Errorf("expected %d digits, got %d: %w", subscriberDigits, len(clean), domain.ErrInvalidPhone)
	}
	return clean, nil
}

// Format prefixes a normalized number with the configured country code
// for the delivery channel, e.g. Format("+91", "9876543210") = "+919876543210".
func Format(countryCode, normalized string) string {
	return countryCode + normalized
}
