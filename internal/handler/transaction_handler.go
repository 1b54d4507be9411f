package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/bankcore/card-transactions/internal/errors"
	"github.com/bankcore/card-transactions/internal/httputil"
	"github.com/bankcore/card-transactions/internal/models"
	"github.com/bankcore/card-transactions/internal/service"
)

type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

func NewTransactionHandler(transactionService service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/transaction/purchase", h.Purchase).Methods(http.MethodPost)
	router.HandleFunc("/transaction/anulation", h.Cancel).Methods(http.MethodPost)
	router.HandleFunc("/transaction/{transactionId:[0-9]+}", h.GetTransaction).Methods(http.MethodGet)
}

func (h *TransactionHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid purchase request", "error", err.Error())
		httputil.WriteError(w, r, http.StatusBadRequest, "invalid request payload")
		return
	}

	response, err := h.transactionService.Purchase(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err, "purchase")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, err := strconv.ParseInt(mux.Vars(r)["transactionId"], 10, 64)
	if err != nil {
		httputil.WriteError(w, r, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	details, err := h.transactionService.GetTransaction(r.Context(), transactionID)
	if err != nil {
		h.handleServiceError(w, r, err, "get transaction")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, details)
}

func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req models.AnulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid anulation request", "error", err.Error())
		httputil.WriteError(w, r, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.transactionService.Cancel(r.Context(), &req); err != nil {
		h.handleServiceError(w, r, err, "anulation")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, nil)
}

// handleServiceError maps domain errors onto statuses: not-found conditions,
// including a 404 relayed from the card service, become 404; every other
// client-caused failure is a 400.
func (h *TransactionHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	switch {
	case errors.IsNotFound(err):
		httputil.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.IsValidationError(err),
		errors.Is(err, errors.ErrInvalidAmount),
		errors.Is(err, errors.ErrAlreadyAnnulled),
		errors.Is(err, errors.ErrAnnulmentWindow),
		errors.IsRemoteError(err):
		httputil.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal server error during "+operation, "error", err.Error())
		httputil.WriteError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
