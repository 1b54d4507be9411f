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

type CardHandler struct {
	cardService service.CardService
	logger      *slog.Logger
}

func NewCardHandler(cardService service.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		logger:      logger,
	}
}

func (h *CardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/card/{productId}/number", h.GenerateCardNumber).Methods(http.MethodGet)
	router.HandleFunc("/card/enroll", h.Enroll).Methods(http.MethodPost)
	router.HandleFunc("/card/{cardId}", h.Block).Methods(http.MethodDelete)
	router.HandleFunc("/card/balance", h.Recharge).Methods(http.MethodPost)
	router.HandleFunc("/card/balance/{cardId}", h.GetBalance).Methods(http.MethodGet)
	router.HandleFunc("/card/{cardId}/audit", h.GetAuditTrail).Methods(http.MethodGet)
}

func (h *CardHandler) GenerateCardNumber(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["productId"]

	cardNumber, err := h.cardService.GenerateCardNumber(r.Context(), productID)
	if err != nil {
		h.handleServiceError(w, r, err, "generate card number")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.CardNumberResponse{
		CardNumber: cardNumber,
		ProductID:  productID,
	})
}

func (h *CardHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req models.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid enroll request", "error", err.Error())
		httputil.WriteError(w, r, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.cardService.Activate(r.Context(), req.CardID); err != nil {
		h.handleServiceError(w, r, err, "enroll card")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, nil)
}

func (h *CardHandler) Block(w http.ResponseWriter, r *http.Request) {
	cardID := mux.Vars(r)["cardId"]

	if err := h.cardService.Block(r.Context(), cardID); err != nil {
		h.handleServiceError(w, r, err, "block card")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, nil)
}

func (h *CardHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	var req models.CardBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid recharge request", "error", err.Error())
		httputil.WriteError(w, r, http.StatusBadRequest, "invalid request payload")
		return
	}

	newBalance, err := h.cardService.Recharge(r.Context(), req.CardID, req.Balance)
	if err != nil {
		h.handleServiceError(w, r, err, "recharge card")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.CardBalanceResponse{
		CardID:  req.CardID,
		Balance: newBalance,
	})
}

func (h *CardHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	cardID := mux.Vars(r)["cardId"]

	balance, err := h.cardService.GetBalance(r.Context(), cardID)
	if err != nil {
		h.handleServiceError(w, r, err, "get balance")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.CardBalanceResponse{
		CardID:  cardID,
		Balance: balance,
	})
}

func (h *CardHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	cardID := mux.Vars(r)["cardId"]

	logs, err := h.cardService.GetAuditTrail(r.Context(), cardID)
	if err != nil {
		h.handleServiceError(w, r, err, "get audit trail")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, logs)
}

func (h *CardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	switch {
	case errors.IsNotFound(err):
		httputil.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.IsAlreadyExists(err),
		errors.Is(err, errors.ErrCardAlreadyActive),
		errors.Is(err, errors.ErrCardAlreadyBlocked),
		errors.Is(err, errors.ErrInvalidAmount),
		errors.Is(err, errors.ErrInvalidProductID),
		errors.Is(err, errors.ErrInvalidCardID),
		errors.IsValidationError(err):
		httputil.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal server error during "+operation, "error", err.Error())
		httputil.WriteError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
