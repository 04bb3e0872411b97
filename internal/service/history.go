package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xaalispay/xaalis/internal/domain"
	"github.com/xaalispay/xaalis/internal/models"
)

// HistoryService reads the transaction log. It never mutates anything.
type HistoryService struct {
	store    QueryStore
	pageSize int
}

func NewHistoryService(store QueryStore, pageSize int) *HistoryService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &HistoryService{store: store, pageSize: pageSize}
}

// HistoryEntry is a rendered transaction record. Amount carries the sign from
// the account's point of view, so statements read the way bank statements do.
type HistoryEntry struct {
	ID            uuid.UUID `json:"id"`
	Reference     string    `json:"reference"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	Fee           string    `json:"fee"`
	BalanceBefore string    `json:"balance_before"`
	BalanceAfter  string    `json:"balance_after"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type PageMeta struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

type HistoryPage struct {
	Entries []HistoryEntry `json:"transactions"`
	Meta    PageMeta       `json:"meta"`
}

// List returns one page of the account's history, newest first, optionally
// filtered by transaction type.
func (s *HistoryService) List(ctx context.Context, accountID, requestingClientID uuid.UUID, typeFilter string, page int) (*HistoryPage, error) {
	account, err := s.store.Queries().GetAccount(ctx, accountID)
	if err != nil {
		return nil, asNotFound(err, "account not found")
	}
	if account.ClientID != requestingClientID {
		return nil, models.ErrForbidden
	}
	if typeFilter != "" && !domain.KnownTxType(typeFilter) {
		return nil, models.NewLedgerError(models.KindValidation, "unknown transaction type "+typeFilter)
	}
	if page < 1 {
		page = 1
	}

	q := s.store.Queries()
	total, err := q.CountTransactions(ctx, accountID, typeFilter)
	if err != nil {
		return nil, err
	}
	offset := (page - 1) * s.pageSize
	records, err := q.ListTransactions(ctx, accountID, typeFilter, s.pageSize, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, renderEntry(record))
	}

	lastPage := int((total + int64(s.pageSize) - 1) / int64(s.pageSize))
	if lastPage < 1 {
		lastPage = 1
	}
	meta := PageMeta{
		Total:       total,
		PerPage:     s.pageSize,
		CurrentPage: page,
		LastPage:    lastPage,
	}
	if len(entries) > 0 {
		meta.From = offset + 1
		meta.To = offset + len(entries)
	}
	return &HistoryPage{Entries: entries, Meta: meta}, nil
}

// Detail returns a single record by reference, scoped to the account so a
// client can never read another account's records by guessing references.
func (s *HistoryService) Detail(ctx context.Context, accountID, requestingClientID uuid.UUID, reference string) (*HistoryEntry, error) {
	account, err := s.store.Queries().GetAccount(ctx, accountID)
	if err != nil {
		return nil, asNotFound(err, "account not found")
	}
	if account.ClientID != requestingClientID {
		return nil, models.ErrForbidden
	}
	record, err := s.store.Queries().GetTransactionByReference(ctx, accountID, reference)
	if err != nil {
		return nil, asNotFound(err, "transaction not found")
	}
	entry := renderEntry(*record)
	return &entry, nil
}

func renderEntry(record models.Transaction) HistoryEntry {
	return HistoryEntry{
		ID:            record.ID,
		Reference:     record.Reference,
		Type:          record.Type,
		Amount:        domain.SignedAmount(record.Type, record.Amount, record.BalanceBefore, record.BalanceAfter),
		Fee:           domain.FormatAmount(record.Fee),
		BalanceBefore: domain.FormatAmount(record.BalanceBefore),
		BalanceAfter:  domain.FormatAmount(record.BalanceAfter),
		Currency:      record.Currency,
		Status:        record.Status,
		Description:   record.Description,
		CreatedAt:     record.CreatedAt,
	}
}
