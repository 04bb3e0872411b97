package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/xaalispay/xaalis/internal/domain"
	"github.com/xaalispay/xaalis/internal/models"
	"github.com/xaalispay/xaalis/internal/observability"
	"github.com/xaalispay/xaalis/internal/repository"
	"go.uber.org/zap"
)

// Policy carries the deployment's ledger rules. All amounts are minor units.
type Policy struct {
	Currency            string
	CountryCode         string
	TransferFeeRate     decimal.Decimal
	MinTransfer         int64
	MaxTransfer         int64
	MinPayment          int64
	AllowOpeningBalance bool
}

// LedgerService is the sole writer of account balances. Every mutation runs in
// one database transaction that also writes the paired transaction records, so
// a debit never commits without its credit.
type LedgerService struct {
	store  QueryStore
	policy Policy
	audit  *AuditService
}

func NewLedgerService(store QueryStore, policy Policy) *LedgerService {
	return &LedgerService{
		store:  store,
		policy: policy,
		audit:  NewAuditService(),
	}
}

type TransferRequest struct {
	SourceAccountID    uuid.UUID
	RequestingClientID uuid.UUID
	DestinationPhone   string
	Amount             int64
}

type TransferResult struct {
	NewBalance        int64     `json:"new_balance"`
	Reference         string    `json:"reference"`
	TransactionID     uuid.UUID `json:"transaction_id"`
	PeerTransactionID uuid.UUID `json:"peer_transaction_id"`
	RecipientName     string    `json:"recipient_name"`
	Fee               int64     `json:"fee"`
}

// Transfer moves amount from the requester's account to the account of the
// client owning the destination phone number. The fee is charged to the payer
// on top of the amount; the payee receives the amount in full.
func (s *LedgerService) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.Amount < s.policy.MinTransfer || req.Amount > s.policy.MaxTransfer {
		return nil, models.NewLedgerError(models.KindValidation, fmt.Sprintf(
			"transfer amount must be between %s and %s %s",
			domain.FormatAmount(s.policy.MinTransfer), domain.FormatAmount(s.policy.MaxTransfer), s.policy.Currency))
	}
	phone := NormalizePhone(req.DestinationPhone, s.policy.CountryCode)
	if phone == "" {
		return nil, models.NewLedgerError(models.KindValidation, "destination phone number is required")
	}

	fee := domain.FeeFor(req.Amount, s.policy.TransferFeeRate)
	totalDebit := req.Amount + fee

	var result *TransferResult
	err := s.store.RunInTxRetry(ctx, func(q *repository.Queries) error {
		source, err := q.GetAccount(ctx, req.SourceAccountID)
		if err != nil {
			return asNotFound(err, "account not found")
		}
		if source.ClientID != req.RequestingClientID {
			return models.ErrForbidden
		}
		if source.Status != domain.AccountStatusActive {
			return models.NewLedgerError(models.KindValidation, "source account is not active")
		}

		destClient, err := q.GetClientByPhone(ctx, phone)
		if err != nil {
			return asNotFound(err, "no recipient found with this phone number")
		}
		if destClient.ID == req.RequestingClientID {
			return models.ErrSameParty
		}
		if destClient.Status != domain.ClientStatusActive {
			return models.NewLedgerError(models.KindValidation, "recipient is not active")
		}
		destAccount, err := q.GetActiveAccountByClient(ctx, destClient.ID)
		if err != nil {
			return asNotFound(err, "recipient has no active account")
		}

		source, destAccount, err = lockAccountPair(ctx, q, source.ID, destAccount.ID)
		if err != nil {
			return err
		}
		if source.Balance < totalDebit {
			return models.ErrInsufficientFunds
		}

		newSourceBalance := source.Balance - totalDebit
		newDestBalance := destAccount.Balance + req.Amount
		reference := NewTransferReference()

		debit := &models.Transaction{
			ID:                    uuid.New(),
			Reference:             reference,
			AccountID:             &source.ID,
			ClientID:              &req.RequestingClientID,
			CounterpartyAccountID: &destAccount.ID,
			Type:                  domain.TxTypeTransfer,
			Amount:                req.Amount,
			Fee:                   fee,
			BalanceBefore:         source.Balance,
			BalanceAfter:          newSourceBalance,
			Currency:              source.Currency,
			Status:                domain.TxStatusCompleted,
			Description:           "Transfer to " + destClient.FirstName + " " + destClient.LastName,
		}
		credit := &models.Transaction{
			ID:                    uuid.New(),
			Reference:             reference + domain.RefSuffixCredit,
			AccountID:             &destAccount.ID,
			ClientID:              &destClient.ID,
			CounterpartyAccountID: &source.ID,
			Type:                  domain.TxTypeTransfer,
			Amount:                req.Amount,
			Fee:                   0,
			BalanceBefore:         destAccount.Balance,
			BalanceAfter:          newDestBalance,
			Currency:              destAccount.Currency,
			Status:                domain.TxStatusCompleted,
		}
		if err := q.CreateTransaction(ctx, debit); err != nil {
			return err
		}
		if err := q.CreateTransaction(ctx, credit); err != nil {
			return err
		}

		rows, err := q.UpdateAccountBalance(ctx, source.ID, newSourceBalance)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "debit source account"); err != nil {
			return err
		}
		rows, err = q.UpdateAccountBalance(ctx, destAccount.ID, newDestBalance)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "credit destination account"); err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]any{"reference": reference, "amount": req.Amount, "fee": fee})
		if err := s.audit.Write(ctx, q, "transaction", debit.ID, &req.RequestingClientID, "transfer", "", domain.TxStatusCompleted, meta); err != nil {
			return err
		}

		result = &TransferResult{
			NewBalance:        newSourceBalance,
			Reference:         reference,
			TransactionID:     debit.ID,
			PeerTransactionID: credit.ID,
			RecipientName:     destClient.FirstName + " " + destClient.LastName,
			Fee:               fee,
		}
		return nil
	})
	if err != nil {
		observability.IncrementLedgerOperation("transfer", string(models.KindOf(err)))
		return nil, err
	}

	observability.IncrementLedgerOperation("transfer", "completed")
	zap.L().Info("transfer completed",
		zap.String("reference", result.Reference),
		zap.Int64("amount", req.Amount),
		zap.Int64("fee", result.Fee),
	)
	return result, nil
}

type PaymentRequest struct {
	SourceAccountID    uuid.UUID
	RequestingClientID uuid.UUID
	MerchantCode       string
	MerchantPhone      string
	Amount             int64
}

type MerchantSummary struct {
	Name         string `json:"name"`
	MerchantCode string `json:"merchant_code"`
}

type PaymentResult struct {
	NewBalance    int64           `json:"new_balance"`
	Reference     string          `json:"reference"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Merchant      MerchantSummary `json:"merchant"`
}

// Pay debits the requester's account and credits the merchant's settlement
// balance. Payments carry no fee. The merchant is looked up by code, by
// normalized phone, or both; when both are given they must agree.
func (s *LedgerService) Pay(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if req.Amount < s.policy.MinPayment {
		return nil, models.NewLedgerError(models.KindValidation, fmt.Sprintf(
			"payment amount must be at least %s %s", domain.FormatAmount(s.policy.MinPayment), s.policy.Currency))
	}
	if req.MerchantCode == "" && req.MerchantPhone == "" {
		return nil, models.NewLedgerError(models.KindValidation, "merchant code or phone number is required")
	}

	var result *PaymentResult
	err := s.store.RunInTxRetry(ctx, func(q *repository.Queries) error {
		merchant, err := s.resolveMerchant(ctx, q, req.MerchantCode, req.MerchantPhone)
		if err != nil {
			return err
		}

		source, err := q.GetAccountForUpdate(ctx, req.SourceAccountID)
		if err != nil {
			return asNotFound(err, "account not found")
		}
		if source.ClientID != req.RequestingClientID {
			return models.ErrForbidden
		}
		if source.Status != domain.AccountStatusActive {
			return models.NewLedgerError(models.KindValidation, "source account is not active")
		}
		if source.Balance < req.Amount {
			return models.ErrInsufficientFunds
		}

		merchant, err = q.GetMerchantForUpdate(ctx, merchant.ID)
		if err != nil {
			return asNotFound(err, "merchant not found")
		}

		newSourceBalance := source.Balance - req.Amount
		newMerchantBalance := merchant.Balance + req.Amount
		reference := NewPaymentReference()

		debit := &models.Transaction{
			ID:            uuid.New(),
			Reference:     reference + domain.RefSuffixPaymentDebit,
			AccountID:     &source.ID,
			ClientID:      &req.RequestingClientID,
			MerchantID:    &merchant.ID,
			Type:          domain.TxTypePayment,
			Amount:        req.Amount,
			Fee:           0,
			BalanceBefore: source.Balance,
			BalanceAfter:  newSourceBalance,
			Currency:      source.Currency,
			Status:        domain.TxStatusCompleted,
			Description:   "Payment to " + merchant.Name,
		}
		credit := &models.Transaction{
			ID:            uuid.New(),
			Reference:     reference + domain.RefSuffixMerchantCredit,
			MerchantID:    &merchant.ID,
			Type:          domain.TxTypeMerchantCredit,
			Amount:        req.Amount,
			Fee:           0,
			BalanceBefore: merchant.Balance,
			BalanceAfter:  newMerchantBalance,
			Currency:      source.Currency,
			Status:        domain.TxStatusCompleted,
		}
		if err := q.CreateTransaction(ctx, debit); err != nil {
			return err
		}
		if err := q.CreateTransaction(ctx, credit); err != nil {
			return err
		}

		rows, err := q.UpdateAccountBalance(ctx, source.ID, newSourceBalance)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "debit source account"); err != nil {
			return err
		}
		rows, err = q.UpdateMerchantBalance(ctx, merchant.ID, newMerchantBalance)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "credit merchant balance"); err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]any{"reference": reference, "amount": req.Amount, "merchant_id": merchant.ID})
		if err := s.audit.Write(ctx, q, "transaction", debit.ID, &req.RequestingClientID, "payment", "", domain.TxStatusCompleted, meta); err != nil {
			return err
		}

		result = &PaymentResult{
			NewBalance:    newSourceBalance,
			Reference:     reference,
			TransactionID: debit.ID,
			Merchant:      MerchantSummary{Name: merchant.Name, MerchantCode: merchant.MerchantCode},
		}
		return nil
	})
	if err != nil {
		observability.IncrementLedgerOperation("payment", string(models.KindOf(err)))
		return nil, err
	}

	observability.IncrementLedgerOperation("payment", "completed")
	zap.L().Info("payment completed",
		zap.String("reference", result.Reference),
		zap.Int64("amount", req.Amount),
		zap.String("merchant_code", result.Merchant.MerchantCode),
	)
	return result, nil
}

func (s *LedgerService) resolveMerchant(ctx context.Context, q *repository.Queries, code, rawPhone string) (*models.Merchant, error) {
	phone := NormalizePhone(rawPhone, s.policy.CountryCode)

	var byCode, byPhone *models.Merchant
	var err error
	if code != "" {
		byCode, err = q.GetMerchantByCode(ctx, code)
		if err != nil {
			return nil, asNotFound(err, "no merchant found with this code")
		}
	}
	if phone != "" {
		byPhone, err = q.GetMerchantByPhone(ctx, phone)
		if err != nil {
			return nil, asNotFound(err, "no merchant found with this phone number")
		}
	}
	if byCode != nil && byPhone != nil && byCode.ID != byPhone.ID {
		return nil, models.ErrAmbiguousMerchant
	}
	if byCode != nil {
		return byCode, nil
	}
	return byPhone, nil
}

type OpenAccountRequest struct {
	FirstName      string
	LastName       string
	Phone          string
	Email          string
	OpeningBalance int64
}

type OpenAccountResult struct {
	ClientID      uuid.UUID `json:"client_id"`
	AccountID     uuid.UUID `json:"account_id"`
	AccountNumber string    `json:"account_number"`
}

// OpenAccount creates a client and their account atomically. The opening
// balance defaults to zero; a caller-supplied balance is only honored when the
// deployment policy allows it, and is recorded as a deposit so the trail
// starts complete.
func (s *LedgerService) OpenAccount(ctx context.Context, req OpenAccountRequest) (*OpenAccountResult, error) {
	phone := NormalizePhone(req.Phone, s.policy.CountryCode)
	if phone == "" {
		return nil, models.NewLedgerError(models.KindValidation, "phone number is required")
	}
	if req.FirstName == "" || req.LastName == "" {
		return nil, models.NewLedgerError(models.KindValidation, "first and last name are required")
	}
	if req.OpeningBalance < 0 {
		return nil, models.NewLedgerError(models.KindValidation, "opening balance cannot be negative")
	}
	if req.OpeningBalance > 0 && !s.policy.AllowOpeningBalance {
		return nil, models.NewLedgerError(models.KindValidation, "opening balances are not allowed")
	}

	var result *OpenAccountResult
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		if _, err := q.GetClientByPhone(ctx, phone); err == nil {
			return models.NewLedgerError(models.KindConflict, "a client with this phone number already has an account")
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check existing client: %w", err)
		}

		client := &models.Client{
			ID:        uuid.New(),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     phone,
			Email:     req.Email,
			Status:    domain.ClientStatusActive,
		}
		if err := q.CreateClient(ctx, client); err != nil {
			return err
		}

		number, err := GenerateAccountNumber(ctx, q)
		if err != nil {
			return err
		}
		account := &models.Account{
			ID:            uuid.New(),
			ClientID:      client.ID,
			AccountNumber: number,
			Balance:       0,
			Currency:      s.policy.Currency,
			Status:        domain.AccountStatusActive,
		}
		if err := q.CreateAccount(ctx, account); err != nil {
			return err
		}

		if req.OpeningBalance > 0 {
			deposit := &models.Transaction{
				ID:            uuid.New(),
				Reference:     NewTransferReference(),
				AccountID:     &account.ID,
				ClientID:      &client.ID,
				Type:          domain.TxTypeDeposit,
				Amount:        req.OpeningBalance,
				BalanceBefore: 0,
				BalanceAfter:  req.OpeningBalance,
				Currency:      account.Currency,
				Status:        domain.TxStatusCompleted,
				Description:   "Opening balance",
			}
			if err := q.CreateTransaction(ctx, deposit); err != nil {
				return err
			}
			rows, err := q.UpdateAccountBalance(ctx, account.ID, req.OpeningBalance)
			if err != nil {
				return err
			}
			if err := requireExactlyOne(rows, "apply opening balance"); err != nil {
				return err
			}
		}

		if err := s.audit.Write(ctx, q, "account", account.ID, &client.ID, "created", "", domain.AccountStatusActive, nil); err != nil {
			return err
		}

		result = &OpenAccountResult{
			ClientID:      client.ID,
			AccountID:     account.ID,
			AccountNumber: number,
		}
		return nil
	})
	if err != nil {
		observability.IncrementLedgerOperation("open_account", string(models.KindOf(err)))
		return nil, err
	}
	observability.IncrementLedgerOperation("open_account", "completed")
	return result, nil
}

type BalanceResult struct {
	AccountNumber string `json:"account_number"`
	Balance       int64  `json:"balance"`
	Currency      string `json:"currency"`
}

// GetBalance is a pure read; it never opens a transaction.
func (s *LedgerService) GetBalance(ctx context.Context, accountID, requestingClientID uuid.UUID) (*BalanceResult, error) {
	account, err := s.store.Queries().GetAccount(ctx, accountID)
	if err != nil {
		return nil, asNotFound(err, "account not found")
	}
	if account.ClientID != requestingClientID {
		return nil, models.ErrForbidden
	}
	return &BalanceResult{
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
		Currency:      account.Currency,
	}, nil
}

// lockAccountPair takes row locks on both accounts in ascending ID order, the
// fixed global order that keeps concurrent opposite-direction transfers from
// deadlocking, and returns them keyed back to the caller's (first, second).
func lockAccountPair(ctx context.Context, q *repository.Queries, firstID, secondID uuid.UUID) (*models.Account, *models.Account, error) {
	lockOrder := []uuid.UUID{firstID, secondID}
	if lockOrder[0].String() > lockOrder[1].String() {
		lockOrder[0], lockOrder[1] = lockOrder[1], lockOrder[0]
	}

	locked := make(map[uuid.UUID]*models.Account, 2)
	for _, id := range lockOrder {
		account, err := q.GetAccountForUpdate(ctx, id)
		if err != nil {
			return nil, nil, asNotFound(err, "account not found")
		}
		locked[id] = account
	}
	return locked[firstID], locked[secondID], nil
}

func asNotFound(err error, message string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewLedgerError(models.KindNotFound, message)
	}
	return err
}
