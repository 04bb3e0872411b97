package service

import (
	"context"
	"fmt"

	"github.com/xaalispay/xaalis/internal/observability"
	"go.uber.org/zap"
)

// VerificationService checks ledger integrity invariants: every account's
// balance must equal the balance_after of its latest completed record, and
// every record's snapshots must differ by exactly its amount (plus fee on the
// debit side).
type VerificationService struct {
	store QueryStore
}

func NewVerificationService(store QueryStore) *VerificationService {
	return &VerificationService{store: store}
}

// Run scans for violations and reports them. It never mutates the ledger;
// a violation is an operator signal, not something to auto-repair.
func (s *VerificationService) Run(ctx context.Context) error {
	queries := s.store.Queries()

	mismatches, err := queries.ListBalanceMismatches(ctx)
	if err != nil {
		return fmt.Errorf("run balance mismatch query: %w", err)
	}
	for _, row := range mismatches {
		observability.IncrementLedgerImbalance("balance")
		zap.L().Error("CRITICAL: account balance diverged from transaction log",
			zap.String("account_id", row.AccountID.String()),
			zap.Int64("account_balance", row.Balance),
			zap.Int64("latest_balance_after", row.BalanceAfter),
		)
	}

	violations, err := queries.ListSnapshotViolations(ctx)
	if err != nil {
		return fmt.Errorf("run snapshot violation query: %w", err)
	}
	for _, reference := range violations {
		observability.IncrementLedgerImbalance("snapshot")
		zap.L().Error("CRITICAL: transaction snapshots inconsistent with amount",
			zap.String("reference", reference),
		)
	}

	if len(mismatches) == 0 && len(violations) == 0 {
		zap.L().Info("ledger verified")
	}
	return nil
}
