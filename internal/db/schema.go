package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id UUID PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY,
		client_id UUID NOT NULL REFERENCES clients(id),
		account_number TEXT NOT NULL UNIQUE,
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		currency TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		opened_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS merchants (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		merchant_code TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL UNIQUE,
		balance BIGINT NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		account_id UUID REFERENCES accounts(id),
		client_id UUID REFERENCES clients(id),
		merchant_id UUID REFERENCES merchants(id),
		counterparty_account_id UUID REFERENCES accounts(id),
		type TEXT NOT NULL,
		amount BIGINT NOT NULL CHECK (amount > 0),
		fee BIGINT NOT NULL DEFAULT 0 CHECK (fee >= 0),
		balance_before BIGINT NOT NULL,
		balance_after BIGINT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account_created
		ON transactions (account_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id UUID NOT NULL,
		actor_id UUID,
		action TEXT NOT NULL,
		prev_state TEXT,
		next_state TEXT,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate applies the idempotent schema. Safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
