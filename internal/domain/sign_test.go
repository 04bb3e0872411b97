package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name          string
		txType        string
		balanceBefore int64
		balanceAfter  int64
		want          string
	}{
		{"deposit is a credit", TxTypeDeposit, 0, 100_000, "+"},
		{"merchant credit is a credit", TxTypeMerchantCredit, 0, 100_000, "+"},
		{"withdrawal is a debit", TxTypeWithdrawal, 100_000, 50_000, "-"},
		{"payment is a debit", TxTypePayment, 100_000, 50_000, "-"},
		{"outgoing transfer is a debit", TxTypeTransfer, 1_000_000, 496_000, "-"},
		{"incoming transfer is a credit", TxTypeTransfer, 1_500_000, 2_000_000, "+"},
		{"unknown type has no sign", "chargeback", 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sign(tt.txType, tt.balanceBefore, tt.balanceAfter))
		})
	}
}

func TestSignedAmount(t *testing.T) {
	assert.Equal(t, "-5000.00", SignedAmount(TxTypeTransfer, 500_000, 1_000_000, 496_000))
	assert.Equal(t, "+5000.00", SignedAmount(TxTypeTransfer, 500_000, 1_500_000, 2_000_000))
	assert.Equal(t, "-100.00", SignedAmount(TxTypePayment, 10_000, 50_000, 40_000))
	assert.Equal(t, "+100.00", SignedAmount(TxTypeMerchantCredit, 10_000, 0, 10_000))
}
