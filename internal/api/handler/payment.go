package handler

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/xaalispay/xaalis/internal/service"
)

type PaymentHandler struct {
	svc *service.LedgerService
}

func NewPaymentHandler(svc *service.LedgerService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type paymentRequest struct {
	SourceAccountID string `json:"source_account_id"`
	MerchantCode    string `json:"merchant_code"`
	MerchantPhone   string `json:"merchant_phone"`
	Amount          int64  `json:"amount"`
}

func (req paymentRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.SourceAccountID, validation.Required),
		validation.Field(&req.MerchantCode, validation.Required.When(req.MerchantPhone == "").Error("merchant_code or merchant_phone is required")),
		validation.Field(&req.Amount, validation.Required, validation.Min(1)),
	)
}

// Create executes a merchant payment from the authenticated client's account.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	var req paymentRequest
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

	result, err := h.svc.Pay(r.Context(), service.PaymentRequest{
		SourceAccountID:    sourceID,
		RequestingClientID: actorID,
		MerchantCode:       req.MerchantCode,
		MerchantPhone:      req.MerchantPhone,
		Amount:             req.Amount,
	})
	if err != nil {
		RespondLedgerError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result)
}
