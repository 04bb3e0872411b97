package domain

// Sign derives the rendered sign of a transaction record. It is the single
// source of truth used by every view of the transaction log.
//
// Deposits and merchant credits are credits (+). Withdrawals and payments are
// debits (-). A transfer record can sit on either side of the operation, so the
// balance snapshots decide: a balance that went down is a debit.
func Sign(txType string, balanceBefore, balanceAfter int64) string {
	switch txType {
	case TxTypeDeposit, TxTypeMerchantCredit:
		return "+"
	case TxTypeWithdrawal, TxTypePayment:
		return "-"
	case TxTypeTransfer:
		if balanceAfter < balanceBefore {
			return "-"
		}
		return "+"
	default:
		return ""
	}
}

// SignedAmount renders a record amount with its sign prefix, e.g. "-5000.00".
func SignedAmount(txType string, amount, balanceBefore, balanceAfter int64) string {
	return Sign(txType, balanceBefore, balanceAfter) + FormatAmount(amount)
}
