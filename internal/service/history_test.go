package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaalispay/xaalis/internal/domain"
	"github.com/xaalispay/xaalis/internal/models"
	"github.com/xaalispay/xaalis/internal/repository"
)

func TestHistoryList(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	ledger := NewLedgerService(store, testPolicy())
	history := NewHistoryService(store, 10)
	ctx := context.Background()

	awa, awaAccount := seedClientWithAccount(t, store.Queries(), "775312571", 10_000_000)
	seedClientWithAccount(t, store.Queries(), "761234567", 0)
	seedMerchant(t, store.Queries(), "MCH001", "338889900")

	// 12 outgoing transfers and one payment.
	for i := 0; i < 12; i++ {
		_, err := ledger.Transfer(ctx, TransferRequest{
			SourceAccountID:    awaAccount.ID,
			RequestingClientID: awa.ID,
			DestinationPhone:   "761234567",
			Amount:             50_000,
		})
		require.NoError(t, err)
	}
	_, err := ledger.Pay(ctx, PaymentRequest{
		SourceAccountID:    awaAccount.ID,
		RequestingClientID: awa.ID,
		MerchantCode:       "MCH001",
		Amount:             30_000,
	})
	require.NoError(t, err)

	// Page 1: 10 of 13 records, newest first.
	page, err := history.List(ctx, awaAccount.ID, awa.ID, "", 1)
	require.NoError(t, err)
	assert.Len(t, page.Entries, 10)
	assert.Equal(t, int64(13), page.Meta.Total)
	assert.Equal(t, 10, page.Meta.PerPage)
	assert.Equal(t, 1, page.Meta.CurrentPage)
	assert.Equal(t, 2, page.Meta.LastPage)
	assert.Equal(t, 1, page.Meta.From)
	assert.Equal(t, 10, page.Meta.To)

	// The newest record is the payment, rendered as a debit.
	newest := page.Entries[0]
	assert.Equal(t, domain.TxTypePayment, newest.Type)
	assert.Equal(t, "-300.00", newest.Amount)

	page2, err := history.List(ctx, awaAccount.ID, awa.ID, "", 2)
	require.NoError(t, err)
	assert.Len(t, page2.Entries, 3)
	assert.Equal(t, 11, page2.Meta.From)
	assert.Equal(t, 13, page2.Meta.To)

	// Type filter narrows to payments only.
	payments, err := history.List(ctx, awaAccount.ID, awa.ID, domain.TxTypePayment, 1)
	require.NoError(t, err)
	assert.Len(t, payments.Entries, 1)
	assert.Equal(t, int64(1), payments.Meta.Total)

	// All transfer records on the payer side carry a negative sign.
	transfers, err := history.List(ctx, awaAccount.ID, awa.ID, domain.TxTypeTransfer, 1)
	require.NoError(t, err)
	for _, entry := range transfers.Entries {
		assert.Equal(t, "-500.00", entry.Amount)
		assert.Equal(t, "4.00", entry.Fee)
	}
}

func TestHistoryListIncomingTransferSign(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	ledger := NewLedgerService(store, testPolicy())
	history := NewHistoryService(store, 10)
	ctx := context.Background()

	awa, awaAccount := seedClientWithAccount(t, store.Queries(), "775312571", 1_000_000)
	moussa, moussaAccount := seedClientWithAccount(t, store.Queries(), "761234567", 0)

	_, err := ledger.Transfer(ctx, TransferRequest{
		SourceAccountID:    awaAccount.ID,
		RequestingClientID: awa.ID,
		DestinationPhone:   "761234567",
		Amount:             500_000,
	})
	require.NoError(t, err)

	page, err := history.List(ctx, moussaAccount.ID, moussa.ID, "", 1)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, domain.TxTypeTransfer, page.Entries[0].Type)
	assert.Equal(t, "+5000.00", page.Entries[0].Amount)
	assert.Equal(t, "0.00", page.Entries[0].Fee)
}

func TestHistoryListValidation(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	history := NewHistoryService(store, 10)
	ctx := context.Background()

	awa, awaAccount := seedClientWithAccount(t, store.Queries(), "775312571", 0)

	_, err := history.List(ctx, awaAccount.ID, awa.ID, "chargeback", 1)
	require.Error(t, err)
	assert.Equal(t, models.KindValidation, models.KindOf(err))

	_, err = history.List(ctx, awaAccount.ID, uuid.New(), "", 1)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = history.List(ctx, uuid.New(), awa.ID, "", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHistoryEmptyPage(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	history := NewHistoryService(store, 10)

	awa, awaAccount := seedClientWithAccount(t, store.Queries(), "775312571", 0)

	page, err := history.List(context.Background(), awaAccount.ID, awa.ID, "", 1)
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.Equal(t, int64(0), page.Meta.Total)
	assert.Equal(t, 1, page.Meta.LastPage)
	assert.Zero(t, page.Meta.From)
	assert.Zero(t, page.Meta.To)
}

func TestHistoryDetail(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	ledger := NewLedgerService(store, testPolicy())
	history := NewHistoryService(store, 10)
	ctx := context.Background()

	awa, awaAccount := seedClientWithAccount(t, store.Queries(), "775312571", 1_000_000)
	moussa, moussaAccount := seedClientWithAccount(t, store.Queries(), "761234567", 0)

	result, err := ledger.Transfer(ctx, TransferRequest{
		SourceAccountID:    awaAccount.ID,
		RequestingClientID: awa.ID,
		DestinationPhone:   "761234567",
		Amount:             500_000,
	})
	require.NoError(t, err)

	entry, err := history.Detail(ctx, awaAccount.ID, awa.ID, result.Reference)
	require.NoError(t, err)
	assert.Equal(t, "-5000.00", entry.Amount)
	assert.Equal(t, "10000.00", entry.BalanceBefore)
	assert.Equal(t, "4960.00", entry.BalanceAfter)

	// The debit reference does not exist on the recipient's account.
	_, err = history.Detail(ctx, moussaAccount.ID, moussa.ID, result.Reference)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// The recipient sees the credit leg under the suffixed reference.
	entry, err = history.Detail(ctx, moussaAccount.ID, moussa.ID, result.Reference+domain.RefSuffixCredit)
	require.NoError(t, err)
	assert.Equal(t, "+5000.00", entry.Amount)

	_, err = history.Detail(ctx, awaAccount.ID, awa.ID, "TRX0000000000XXXX")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
