package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is the party owning an account. Contact details are what the OTP
// dispatcher and peer resolution need; everything else about identity lives
// with the auth provider.
type Client struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"` // normalized, digits only
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Account struct {
	ID            uuid.UUID `json:"id"`
	ClientID      uuid.UUID `json:"client_id"`
	AccountNumber string    `json:"account_number"`
	Balance       int64     `json:"balance"` // minor units, never negative once committed
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	OpenedAt      time.Time `json:"opened_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Merchant holds a settlement balance. It only ever receives payments; it
// cannot initiate peer transfers.
type Merchant struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	MerchantCode string    `json:"merchant_code"`
	Phone        string    `json:"phone"`
	Balance      int64     `json:"balance"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transaction is one immutable entry of the transaction log. balance_before
// and balance_after are snapshots of the account (or merchant settlement
// balance) this record belongs to, taken inside the same atomic unit that
// moved the money.
type Transaction struct {
	ID                    uuid.UUID  `json:"id"`
	Reference             string     `json:"reference"`
	AccountID             *uuid.UUID `json:"account_id,omitempty"`
	ClientID              *uuid.UUID `json:"client_id,omitempty"`
	MerchantID            *uuid.UUID `json:"merchant_id,omitempty"`
	CounterpartyAccountID *uuid.UUID `json:"counterparty_account_id,omitempty"`
	Type                  string     `json:"type"`
	Amount                int64      `json:"amount"` // positive, minor units
	Fee                   int64      `json:"fee"`    // >= 0, payer side only
	BalanceBefore         int64      `json:"balance_before"`
	BalanceAfter          int64      `json:"balance_after"`
	Currency              string     `json:"currency"`
	Status                string     `json:"status"`
	Description           string     `json:"description"`
	CreatedAt             time.Time  `json:"created_at"`
}
