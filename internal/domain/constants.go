package domain

const (
	TxTypeDeposit        = "deposit"
	TxTypeWithdrawal     = "withdrawal"
	TxTypeTransfer       = "transfer"
	TxTypePayment        = "payment"
	TxTypeMerchantCredit = "merchant_credit"

	TxStatusPending   = "PENDING"
	TxStatusCompleted = "COMPLETED"
	TxStatusCancelled = "CANCELLED"
	TxStatusFailed    = "FAILED"

	// Reference suffixes pairing the two legs of a transfer or payment.
	RefSuffixCredit         = "-CR"
	RefSuffixPaymentDebit   = "-DEB"
	RefSuffixMerchantCredit = "-CRED"

	ClientStatusActive    = "active"
	ClientStatusInactive  = "inactive"
	ClientStatusSuspended = "suspended"

	AccountStatusActive  = "active"
	AccountStatusBlocked = "blocked"
	AccountStatusClosed  = "closed"
)

// KnownTxType reports whether t is a persisted transaction type.
func KnownTxType(t string) bool {
	switch t {
	case TxTypeDeposit, TxTypeWithdrawal, TxTypeTransfer, TxTypePayment, TxTypeMerchantCredit:
		return true
	}
	return false
}

var txStatusTransitions = map[string]map[string]struct{}{
	TxStatusPending: {
		TxStatusCompleted: {},
		TxStatusFailed:    {},
	},
	TxStatusCompleted: {},
	TxStatusCancelled: {},
	TxStatusFailed:    {},
}

// CanTransitionTxStatus reports whether a transaction record may move from
// current to next. Records are immutable apart from PENDING resolving to a
// terminal status.
func CanTransitionTxStatus(current, next string) bool {
	nextStates, ok := txStatusTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}
