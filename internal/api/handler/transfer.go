package handler

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/xaalispay/xaalis/internal/service"
)

type TransferHandler struct {
	svc *service.LedgerService
}

func NewTransferHandler(svc *service.LedgerService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

type transferRequest struct {
	SourceAccountID  string `json:"source_account_id"`
	DestinationPhone string `json:"destination_phone"`
	Amount           int64  `json:"amount"`
}

func (req transferRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.SourceAccountID, validation.Required),
		validation.Field(&req.DestinationPhone, validation.Required, validation.Length(5, 20)),
		validation.Field(&req.Amount, validation.Required, validation.Min(1)),
	)
}

// Create executes a transfer from the authenticated client's account to the
// client owning the destination phone number.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/validation", err.Error())
		return
	}
	sourceID, err := uuid.Parse(req.SourceAccountID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid source_account_id")
		return
	}

	result, err := h.svc.Transfer(r.Context(), service.TransferRequest{
		SourceAccountID:    sourceID,
		RequestingClientID: actorID,
		DestinationPhone:   req.DestinationPhone,
		Amount:             req.Amount,
	})
	if err != nil {
		RespondLedgerError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result)
}
