package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/xaalispay/xaalis/internal/service"
)

type AccountHandler struct {
	svc *service.LedgerService
}

func NewAccountHandler(svc *service.LedgerService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

type openAccountRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	OpeningBalance int64  `json:"opening_balance"`
}

func (req openAccountRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Phone, validation.Required, validation.Length(5, 20)),
		validation.Field(&req.Email, is.EmailFormat),
		validation.Field(&req.OpeningBalance, validation.Min(0)),
	)
}

// Open creates a client and their account in one request.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/validation", err.Error())
		return
	}

	result, err := h.svc.OpenAccount(r.Context(), service.OpenAccountRequest{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Email:          req.Email,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		RespondLedgerError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result)
}

// Balance returns the authenticated client's account balance.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account id")
		return
	}

	result, err := h.svc.GetBalance(r.Context(), accountID, actorID)
	if err != nil {
		RespondLedgerError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}
