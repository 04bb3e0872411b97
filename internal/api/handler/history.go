package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xaalispay/xaalis/internal/service"
)

type HistoryHandler struct {
	svc *service.HistoryService
}

func NewHistoryHandler(svc *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// List returns a page of the account's transaction history.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
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

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-page", "page must be a positive integer")
			return
		}
		page = parsed
	}
	typeFilter := r.URL.Query().Get("type")

	result, err := h.svc.List(r.Context(), accountID, actorID, typeFilter, page)
	if err != nil {
		RespondLedgerError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Detail returns a single transaction record by reference.
func (h *HistoryHandler) Detail(w http.ResponseWriter, r *http.Request) {
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
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-reference", "reference is required")
		return
	}

	result, err := h.svc.Detail(r.Context(), accountID, actorID, reference)
	if err != nil {
		RespondLedgerError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}
