package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xaalispay/xaalis/internal/api/middleware"
	"github.com/xaalispay/xaalis/internal/api/problem"
	"github.com/xaalispay/xaalis/internal/models"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func requestActor(r *http.Request) (uuid.UUID, error) {
	clientID := middleware.ClientIDFromContext(r.Context())
	if clientID == "" {
		return uuid.Nil, errors.New("missing client in auth context")
	}

	actorID, err := uuid.Parse(clientID)
	if err != nil {
		return uuid.Nil, errors.New("invalid client_id in auth context")
	}

	return actorID, nil
}

// RespondLedgerError maps a service error to its HTTP representation. Kinds
// carried by the error decide the status; unclassified errors become 500s
// with a generic message so internals never leak.
func RespondLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	if status, problemType, message, ok := mapDBError(err); ok {
		RespondError(w, r, status, problemType, message)
		return
	}

	kind := models.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case models.KindValidation, models.KindAmbiguousMerchant, models.KindSameParty:
		status = http.StatusBadRequest
	case models.KindNotFound:
		status = http.StatusNotFound
	case models.KindForbidden, models.KindInsufficientFunds:
		status = http.StatusForbidden
	case models.KindConflict:
		status = http.StatusConflict
	}

	message := "unexpected server error"
	var le *models.LedgerError
	if errors.As(err, &le) && kind != models.KindInternal {
		message = le.Message
	}
	RespondError(w, r, status, "ledger/"+string(kind), message)
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}
