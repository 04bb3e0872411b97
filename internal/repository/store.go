package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xaalispay/xaalis/internal/models"
)

// Store provides access to the query set and transaction scoping.
type Store struct {
	db      *pgxpool.Pool
	queries *Queries

	maxAttempts  int
	retryBackoff time.Duration
}

// NewStore creates a store wrapper around a pgx connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db:           db,
		queries:      New(db),
		maxAttempts:  3,
		retryBackoff: 50 * time.Millisecond,
	}
}

// WithRetryPolicy overrides the bounded retry applied to serialization
// conflicts.
func (s *Store) WithRetryPolicy(maxAttempts int, initialBackoff time.Duration) *Store {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if initialBackoff > 0 {
		s.retryBackoff = initialBackoff
	}
	return s
}

// Queries returns the non-transactional query set.
func (s *Store) Queries() *Queries {
	return s.queries
}

// RunInTx executes fn within a database transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunInTxRetry runs fn like RunInTx but retries serialization failures and
// deadlocks a bounded number of times with exponential backoff. Sustained
// conflict surfaces as models.ErrConflict; business errors abort immediately.
func (s *Store) RunInTxRetry(ctx context.Context, fn func(q *Queries) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.maxAttempts-1)), ctx)

	err := backoff.Retry(func() error {
		txErr := s.RunInTx(ctx, fn)
		if txErr == nil {
			return nil
		}
		if isSerializationFailure(txErr) {
			return txErr
		}
		return backoff.Permanent(txErr)
	}, policy)

	if err != nil && isSerializationFailure(err) {
		return models.WrapLedgerError(models.KindConflict, "operation could not be completed due to concurrent activity, please retry", err)
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
