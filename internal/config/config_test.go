package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "XOF", cfg.Currency)
	assert.Equal(t, "221", cfg.CountryCode)
	assert.True(t, cfg.TransferFeeRate.Equal(decimal.RequireFromString("0.008")))
	assert.Equal(t, int64(50_000), cfg.MinTransfer)
	assert.Equal(t, int64(100_000_000), cfg.MaxTransfer)
	assert.Equal(t, int64(10_000), cfg.MinPayment)
	assert.Equal(t, 10, cfg.HistoryPageSize)
	assert.False(t, cfg.AllowOpeningBalance)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 characters")
}

func TestLoadRejectsBadFeeRate(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("LEDGER_TRANSFER_FEE_RATE", "1.5")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvertedBounds(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("LEDGER_MIN_TRANSFER", "1000000")
	t.Setenv("LEDGER_MAX_TRANSFER", "1000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transfer bounds")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("XAALIS_PORT", "9090")
	t.Setenv("LEDGER_ALLOW_OPENING_BALANCE", "true")
	t.Setenv("LEDGER_HISTORY_PAGE_SIZE", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.True(t, cfg.AllowOpeningBalance)
	assert.Equal(t, 25, cfg.HistoryPageSize)
}
