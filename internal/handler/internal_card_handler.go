package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bankcore/card-transactions/internal/errors"
	"github.com/bankcore/card-transactions/internal/httputil"
	"github.com/bankcore/card-transactions/internal/models"
	"github.com/bankcore/card-transactions/internal/service"
)

// InternalCardHandler serves the debit/reversal endpoints consumed by the
// transaction service. These are not exposed to end users.
type InternalCardHandler struct {
	cardService service.CardService
	logger      *slog.Logger
}

func NewInternalCardHandler(cardService service.CardService, logger *slog.Logger) *InternalCardHandler {
	return &InternalCardHandler{
		cardService: cardService,
		logger:      logger,
	}
}

func (h *InternalCardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/card/internal/debit", h.Debit).Methods(http.MethodPost)
	router.HandleFunc("/card/internal/reversal", h.Reversal).Methods(http.MethodPost)
}

func (h *InternalCardHandler) Debit(w http.ResponseWriter, r *http.Request) {
	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid debit request", "error", err.Error())
		httputil.WriteError(w, r, http.StatusBadRequest, "invalid request payload")
		return
	}

	if _, err := h.cardService.Debit(r.Context(), req.CardID, req.Price); err != nil {
		h.handleServiceError(w, r, err, "debit")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, nil)
}

func (h *InternalCardHandler) Reversal(w http.ResponseWriter, r *http.Request) {
	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid reversal request", "error", err.Error())
		httputil.WriteError(w, r, http.StatusBadRequest, "invalid request payload")
		return
	}

	if _, err := h.cardService.Credit(r.Context(), req.CardID, req.Price); err != nil {
		h.handleServiceError(w, r, err, "reversal")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, nil)
}

func (h *InternalCardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	switch {
	case errors.IsNotFound(err):
		httputil.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.IsInsufficientFunds(err),
		errors.Is(err, errors.ErrCardInactive),
		errors.Is(err, errors.ErrCardBlocked),
		errors.Is(err, errors.ErrCardExpired),
		errors.Is(err, errors.ErrInvalidAmount):
		httputil.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal server error during "+operation, "error", err.Error())
		httputil.WriteError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
