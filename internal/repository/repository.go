package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xaalispay/xaalis/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the same query set
// runs against the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries is the hand-written data access layer for the account store and the
// transaction log.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns the query set bound to an open transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// --- clients ---

func (q *Queries) CreateClient(ctx context.Context, client *models.Client) error {
	query := `INSERT INTO clients (id, first_name, last_name, phone, email, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query,
		client.ID, client.FirstName, client.LastName, client.Phone, client.Email, client.Status,
	).Scan(&client.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (q *Queries) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client := &models.Client{}
	query := `SELECT id, first_name, last_name, phone, email, status, created_at FROM clients WHERE id = $1`
	err := q.db.QueryRow(ctx, query, id).Scan(
		&client.ID, &client.FirstName, &client.LastName, &client.Phone, &client.Email, &client.Status, &client.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// GetClientByPhone resolves a client by normalized phone number.
func (q *Queries) GetClientByPhone(ctx context.Context, phone string) (*models.Client, error) {
	client := &models.Client{}
	query := `SELECT id, first_name, last_name, phone, email, status, created_at FROM clients WHERE phone = $1`
	err := q.db.QueryRow(ctx, query, phone).Scan(
		&client.ID, &client.FirstName, &client.LastName, &client.Phone, &client.Email, &client.Status, &client.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// --- accounts ---

func (q *Queries) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (id, client_id, account_number, balance, currency, status, opened_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING opened_at, created_at`
	err := q.db.QueryRow(ctx, query,
		account.ID, account.ClientID, account.AccountNumber, account.Balance, account.Currency, account.Status,
	).Scan(&account.OpenedAt, &account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (q *Queries) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return q.getAccount(ctx, id, false)
}

// GetAccountForUpdate reads an account under a row lock. Only valid inside a
// transaction.
func (q *Queries) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return q.getAccount(ctx, id, true)
}

func (q *Queries) getAccount(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Account, error) {
	query := `SELECT id, client_id, account_number, balance, currency, status, opened_at, created_at
		FROM accounts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	account := &models.Account{}
	err := q.db.QueryRow(ctx, query, id).Scan(
		&account.ID, &account.ClientID, &account.AccountNumber, &account.Balance,
		&account.Currency, &account.Status, &account.OpenedAt, &account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetActiveAccountByClient returns the client's active account, if any.
func (q *Queries) GetActiveAccountByClient(ctx context.Context, clientID uuid.UUID) (*models.Account, error) {
	query := `SELECT id, client_id, account_number, balance, currency, status, opened_at, created_at
		FROM accounts WHERE client_id = $1 AND status = 'active'`
	account := &models.Account{}
	err := q.db.QueryRow(ctx, query, clientID).Scan(
		&account.ID, &account.ClientID, &account.AccountNumber, &account.Balance,
		&account.Currency, &account.Status, &account.OpenedAt, &account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (q *Queries) AccountNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account number: %w", err)
	}
	return exists, nil
}

// UpdateAccountBalance sets a freshly computed balance. Callers must hold the
// row lock taken by GetAccountForUpdate in the same transaction.
func (q *Queries) UpdateAccountBalance(ctx context.Context, id uuid.UUID, balance int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, balance, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update account balance: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- merchants ---

func (q *Queries) CreateMerchant(ctx context.Context, merchant *models.Merchant) error {
	query := `INSERT INTO merchants (id, name, merchant_code, phone, balance, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query,
		merchant.ID, merchant.Name, merchant.MerchantCode, merchant.Phone, merchant.Balance, merchant.Status,
	).Scan(&merchant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create merchant: %w", err)
	}
	return nil
}

func (q *Queries) GetMerchantByCode(ctx context.Context, code string) (*models.Merchant, error) {
	return q.getMerchant(ctx, `merchant_code = $1`, code)
}

func (q *Queries) GetMerchantByPhone(ctx context.Context, phone string) (*models.Merchant, error) {
	return q.getMerchant(ctx, `phone = $1`, phone)
}

func (q *Queries) getMerchant(ctx context.Context, where string, arg any) (*models.Merchant, error) {
	merchant := &models.Merchant{}
	query := `SELECT id, name, merchant_code, phone, balance, status, created_at FROM merchants WHERE ` + where
	err := q.db.QueryRow(ctx, query, arg).Scan(
		&merchant.ID, &merchant.Name, &merchant.MerchantCode, &merchant.Phone,
		&merchant.Balance, &merchant.Status, &merchant.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return merchant, nil
}

// GetMerchantForUpdate reads a merchant under a row lock, inside a transaction.
func (q *Queries) GetMerchantForUpdate(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	merchant := &models.Merchant{}
	query := `SELECT id, name, merchant_code, phone, balance, status, created_at FROM merchants WHERE id = $1 FOR UPDATE`
	err := q.db.QueryRow(ctx, query, id).Scan(
		&merchant.ID, &merchant.Name, &merchant.MerchantCode, &merchant.Phone,
		&merchant.Balance, &merchant.Status, &merchant.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return merchant, nil
}

func (q *Queries) UpdateMerchantBalance(ctx context.Context, id uuid.UUID, balance int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE merchants SET balance = $1 WHERE id = $2`, balance, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update merchant balance: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- transactions ---

const transactionColumns = `id, reference, account_id, client_id, merchant_id, counterparty_account_id,
	type, amount, fee, balance_before, balance_after, currency, status, description, created_at`

func (q *Queries) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `INSERT INTO transactions (id, reference, account_id, client_id, merchant_id, counterparty_account_id,
			type, amount, fee, balance_before, balance_after, currency, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query,
		tx.ID, tx.Reference, tx.AccountID, tx.ClientID, tx.MerchantID, tx.CounterpartyAccountID,
		tx.Type, tx.Amount, tx.Fee, tx.BalanceBefore, tx.BalanceAfter, tx.Currency, tx.Status, tx.Description,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := row.Scan(
		&tx.ID, &tx.Reference, &tx.AccountID, &tx.ClientID, &tx.MerchantID, &tx.CounterpartyAccountID,
		&tx.Type, &tx.Amount, &tx.Fee, &tx.BalanceBefore, &tx.BalanceAfter,
		&tx.Currency, &tx.Status, &tx.Description, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// GetTransactionByReference fetches a record by reference scoped to an account.
func (q *Queries) GetTransactionByReference(ctx context.Context, accountID uuid.UUID, reference string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1 AND account_id = $2`
	return scanTransaction(q.db.QueryRow(ctx, query, reference, accountID))
}

// ListTransactions pages through an account's records, newest first. typeFilter
// is optional; empty means all types.
func (q *Queries) ListTransactions(ctx context.Context, accountID uuid.UUID, typeFilter string, limit, offset int) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND ($2 = '' OR type = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := q.db.Query(ctx, query, accountID, typeFilter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func (q *Queries) CountTransactions(ctx context.Context, accountID uuid.UUID, typeFilter string) (int64, error) {
	var total int64
	query := `SELECT COUNT(*) FROM transactions WHERE account_id = $1 AND ($2 = '' OR type = $2)`
	if err := q.db.QueryRow(ctx, query, accountID, typeFilter).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return total, nil
}

// --- verification ---

// BalanceMismatch reports an account whose stored balance diverged from the
// latest completed record's balance_after snapshot.
type BalanceMismatch struct {
	AccountID    uuid.UUID
	Balance      int64
	BalanceAfter int64
}

func (q *Queries) ListBalanceMismatches(ctx context.Context) ([]BalanceMismatch, error) {
	query := `
		SELECT a.id, a.balance, t.balance_after
		FROM accounts a
		JOIN LATERAL (
			SELECT balance_after FROM transactions
			WHERE account_id = a.id AND status = 'COMPLETED'
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) t ON TRUE
		WHERE t.balance_after <> a.balance`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance mismatches: %w", err)
	}
	defer rows.Close()

	var out []BalanceMismatch
	for rows.Next() {
		var m BalanceMismatch
		if err := rows.Scan(&m.AccountID, &m.Balance, &m.BalanceAfter); err != nil {
			return nil, fmt.Errorf("failed to scan balance mismatch: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListSnapshotViolations returns references of completed records whose
// balance delta does not match their signed amount (fee on the debit side).
func (q *Queries) ListSnapshotViolations(ctx context.Context) ([]string, error) {
	query := `
		SELECT reference FROM transactions
		WHERE status = 'COMPLETED' AND account_id IS NOT NULL
		AND CASE WHEN balance_after < balance_before
			THEN balance_before - balance_after <> amount + fee
			ELSE balance_after - balance_before <> amount
		END`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot violations: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot violation: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// --- audit ---

func (q *Queries) CreateAuditLog(ctx context.Context, entityType string, entityID uuid.UUID, actorID *uuid.UUID, action, prevState, nextState string, metadata []byte) error {
	query := `INSERT INTO audit_log (entity_type, entity_id, actor_id, action, prev_state, next_state, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`
	if _, err := q.db.Exec(ctx, query, entityType, entityID, actorID, action, prevState, nextState, metadata); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
