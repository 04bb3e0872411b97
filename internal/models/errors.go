package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable classification surfaced to callers. Messages are
// human-readable; kinds are what transports switch on.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindAmbiguousMerchant ErrorKind = "ambiguous_merchant"
	KindSameParty         ErrorKind = "same_party"
	KindConflict          ErrorKind = "conflict"
	KindInternal          ErrorKind = "internal"
)

// LedgerError carries a stable kind plus a user-safe message. Internal causes
// are wrapped so operators keep the chain while callers never see it.
type LedgerError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *LedgerError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *LedgerError) Unwrap() error { return e.cause }

// Is lets errors.Is match on kind, so sentinel comparisons against e.g.
// ErrInsufficientFunds work regardless of message.
func (e *LedgerError) Is(target error) bool {
	var le *LedgerError
	if !errors.As(target, &le) {
		return false
	}
	return e.Kind == le.Kind
}

func NewLedgerError(kind ErrorKind, message string) *LedgerError {
	return &LedgerError{Kind: kind, Message: message}
}

func WrapLedgerError(kind ErrorKind, message string, cause error) *LedgerError {
	return &LedgerError{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the kind from err, defaulting to KindInternal for anything
// that is not a LedgerError.
func KindOf(err error) ErrorKind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

var (
	ErrInsufficientFunds = NewLedgerError(KindInsufficientFunds, "insufficient funds for this operation")
	ErrSameParty         = NewLedgerError(KindSameParty, "cannot transfer money to yourself")
	ErrAmbiguousMerchant = NewLedgerError(KindAmbiguousMerchant, "merchant code and phone number do not resolve to the same merchant")
	ErrNotFound          = NewLedgerError(KindNotFound, "resource not found")
	ErrForbidden         = NewLedgerError(KindForbidden, "access to this resource is not allowed")
	ErrConflict          = NewLedgerError(KindConflict, "operation could not be completed due to concurrent activity, please retry")
)
