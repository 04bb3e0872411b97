package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value in a specific currency.
// Amount is stored as BIGINT minor units (10^-2) to avoid floating point errors.
type Money struct {
	Amount   int64  // minor units
	Currency string // ISO 4217
}

// NewMoney creates a new Money instance from minor units.
func NewMoney(amount int64, currency string) Money {
	return Money{
		Amount:   amount,
		Currency: currency,
	}
}

// ToDecimal converts the int64 minor units to a shopspring/decimal.Decimal.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(100))
}

// FromDecimal converts a decimal.Decimal to int64 minor units, rounding to the cent.
func FromDecimal(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FeeFor computes the fee charged on amount at the given rate, in minor units,
// rounded to the nearest minor unit.
func FeeFor(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}

// FormatAmount renders minor units with two fractional digits, e.g. 500000 -> "5000.00".
func FormatAmount(amount int64) string {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// String returns the string representation of the money.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.ToDecimal().StringFixed(2), m.Currency)
}
