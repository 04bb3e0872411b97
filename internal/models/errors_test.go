package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerErrorKindMatching(t *testing.T) {
	err := NewLedgerError(KindInsufficientFunds, "balance too low for this transfer")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("transfer: %w", err)
	assert.ErrorIs(t, wrapped, ErrInsufficientFunds)
}

func TestWrapLedgerErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapLedgerError(KindConflict, "please retry", cause)

	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "conflict")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSameParty, KindOf(ErrSameParty))
	assert.Equal(t, KindAmbiguousMerchant, KindOf(fmt.Errorf("pay: %w", ErrAmbiguousMerchant)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}
