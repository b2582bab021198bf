package phone

import (
	"errors"
	"testing"

	"github.com/occamy/fieldops-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare digits", "9876543210", "9876543210", true},
		{"spaces stripped", "98765 43210", "9876543210", true},
		{"country prefix rejected", "+919876543210", "", false},
		{"dashes stripped", "98765-43210", "9876543210", true},
		{"too short", "12345", "", false},
		{"too long", "98765432101", "", false},
		{"letters only", "phone", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if !tc.ok {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidPhone))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "+919876543210", Format("+91", "9876543210"))
}
