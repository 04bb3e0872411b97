package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeFor(t *testing.T) {
	rate, err := decimal.NewFromString("0.008")
	require.NoError(t, err)

	// 5000.00 at 0.8% is 40.00
	assert.Equal(t, int64(4000), FeeFor(500_000, rate))
	// 500.00 at 0.8% is 4.00
	assert.Equal(t, int64(400), FeeFor(50_000, rate))
	// 1.25 at 0.8% rounds to 0.01
	assert.Equal(t, int64(1), FeeFor(125, rate))
	// rounding boundary: 0.62 * 0.008 = 0.00496 rounds to 0.00
	assert.Equal(t, int64(0), FeeFor(62, rate))
	assert.Equal(t, int64(0), FeeFor(0, rate))

	zero := decimal.Zero
	assert.Equal(t, int64(0), FeeFor(500_000, zero))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "5000.00", FormatAmount(500_000))
	assert.Equal(t, "0.01", FormatAmount(1))
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "1000000.00", FormatAmount(100_000_000))
	assert.Equal(t, "-40.00", FormatAmount(-4000))
}

func TestMoneyConversions(t *testing.T) {
	m := NewMoney(123_456, "XOF")
	assert.Equal(t, "1234.56", m.ToDecimal().StringFixed(2))
	assert.Equal(t, "1234.56 XOF", m.String())

	d, err := decimal.NewFromString("1234.56")
	require.NoError(t, err)
	assert.Equal(t, int64(123_456), FromDecimal(d))
}
