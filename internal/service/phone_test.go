package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		countryCode string
		want        string
	}{
		{"plain local number", "775312571", "221", "775312571"},
		{"international prefix stripped", "221775312571", "221", "775312571"},
		{"plus and spaces stripped", "+221 77 531 25 71", "221", "775312571"},
		{"dashes stripped", "77-531-25-71", "221", "775312571"},
		{"number equal to country code kept", "221", "221", "221"},
		{"empty input", "", "221", ""},
		{"letters only", "call me", "221", ""},
		{"no country code configured", "221775312571", "", "221775312571"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw, tt.countryCode))
		})
	}
}
