package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaalispay/xaalis/internal/repository"
)

func TestVerificationCleanLedger(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	ledger := NewLedgerService(store, testPolicy())
	verification := NewVerificationService(store)
	ctx := context.Background()

	awa, awaAccount := seedClientWithAccount(t, store.Queries(), "775312571", 1_000_000)
	seedClientWithAccount(t, store.Queries(), "761234567", 0)

	_, err := ledger.Transfer(ctx, TransferRequest{
		SourceAccountID:    awaAccount.ID,
		RequestingClientID: awa.ID,
		DestinationPhone:   "761234567",
		Amount:             500_000,
	})
	require.NoError(t, err)

	mismatches, err := store.Queries().ListBalanceMismatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	violations, err := store.Queries().ListSnapshotViolations(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)

	assert.NoError(t, verification.Run(ctx))
}

func TestVerificationDetectsTamperedBalance(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	ledger := NewLedgerService(store, testPolicy())
	verification := NewVerificationService(store)
	ctx := context.Background()

	awa, awaAccount := seedClientWithAccount(t, store.Queries(), "775312571", 1_000_000)
	seedClientWithAccount(t, store.Queries(), "761234567", 0)

	_, err := ledger.Transfer(ctx, TransferRequest{
		SourceAccountID:    awaAccount.ID,
		RequestingClientID: awa.ID,
		DestinationPhone:   "761234567",
		Amount:             500_000,
	})
	require.NoError(t, err)

	// Simulate an out-of-band balance edit that bypassed the ledger.
	_, err = pool.Exec(ctx, `UPDATE accounts SET balance = balance + 100000 WHERE id = $1`, awaAccount.ID)
	require.NoError(t, err)

	mismatches, err := store.Queries().ListBalanceMismatches(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, awaAccount.ID, mismatches[0].AccountID)
	assert.Equal(t, int64(596_000), mismatches[0].Balance)
	assert.Equal(t, int64(496_000), mismatches[0].BalanceAfter)

	// Run only reports, it never repairs.
	require.NoError(t, verification.Run(ctx))
	account, err := store.Queries().GetAccount(ctx, awaAccount.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(596_000), account.Balance)
}

func TestVerificationDetectsBrokenSnapshots(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	ledger := NewLedgerService(store, testPolicy())
	ctx := context.Background()

	awa, awaAccount := seedClientWithAccount(t, store.Queries(), "775312571", 1_000_000)
	seedClientWithAccount(t, store.Queries(), "761234567", 0)

	result, err := ledger.Transfer(ctx, TransferRequest{
		SourceAccountID:    awaAccount.ID,
		RequestingClientID: awa.ID,
		DestinationPhone:   "761234567",
		Amount:             500_000,
	})
	require.NoError(t, err)

	// Corrupt the debit record's amount so the snapshots no longer add up.
	_, err = pool.Exec(ctx, `UPDATE transactions SET amount = amount + 1 WHERE reference = $1`, result.Reference)
	require.NoError(t, err)

	violations, err := store.Queries().ListSnapshotViolations(ctx)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, result.Reference, violations[0])
}
