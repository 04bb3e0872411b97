package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaalispay/xaalis/internal/models"
)

func TestRespondLedgerErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", models.NewLedgerError(models.KindValidation, "amount out of bounds"), http.StatusBadRequest},
		{"same party", models.ErrSameParty, http.StatusBadRequest},
		{"ambiguous merchant", models.ErrAmbiguousMerchant, http.StatusBadRequest},
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"forbidden", models.ErrForbidden, http.StatusForbidden},
		{"insufficient funds", models.ErrInsufficientFunds, http.StatusForbidden},
		{"conflict", models.ErrConflict, http.StatusConflict},
		{"unclassified", errors.New("pool exhausted"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/transfers", nil)
			rec := httptest.NewRecorder()

			RespondLedgerError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRespondLedgerErrorHidesInternals(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/transfers", nil)
	rec := httptest.NewRecorder()

	RespondLedgerError(rec, req, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unexpected server error", body["detail"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestRespondLedgerErrorExposesSafeMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/transfers", nil)
	rec := httptest.NewRecorder()

	RespondLedgerError(rec, req, models.ErrInsufficientFunds)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "insufficient funds for this operation", body["detail"])
}
