package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var transferRefPattern = regexp.MustCompile(`^TRX\d{10,}[A-Z0-9]{4}$`)
var paymentRefPattern = regexp.MustCompile(`^PAY\d{10,}[A-Z0-9]{4}$`)

func TestNewTransferReference(t *testing.T) {
	ref := NewTransferReference()
	assert.Regexp(t, transferRefPattern, ref)
}

func TestNewPaymentReference(t *testing.T) {
	ref := NewPaymentReference()
	assert.Regexp(t, paymentRefPattern, ref)
}

func TestReferencesAreDistinct(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		seen[NewTransferReference()] = struct{}{}
	}
	// The 4-char random token makes collisions within one second unlikely;
	// a handful of duplicates out of 100 would indicate a broken generator.
	assert.Greater(t, len(seen), 90)
}

func TestRandToken(t *testing.T) {
	tok := randToken(4)
	assert.Len(t, tok, 4)
	assert.Regexp(t, `^[A-Z0-9]{4}$`, tok)
}
