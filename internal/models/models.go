package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Card struct {
	CardID     string          `json:"cardId"`
	ProductID  string          `json:"productId"`
	HolderName string          `json:"holderName"`
	ExpiryDate time.Time       `json:"expiryDate"`
	Balance    decimal.Decimal `json:"balance"`
	IsActive   bool            `json:"isActive"`
	IsBlocked  bool            `json:"isBlocked"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type Transaction struct {
	TransactionID   int64           `json:"transactionId"`
	CardID          string          `json:"cardId"`
	Price           decimal.Decimal `json:"price"`
	TransactionDate time.Time       `json:"transactionDate"`
	IsAnnulled      bool            `json:"isAnnulled"`
}

type AuditLog struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	OldValue   json.RawMessage `json:"old_value"`
	NewValue   json.RawMessage `json:"new_value"`
	CreatedAt  time.Time       `json:"created_at"`
}

const (
	AuditActionCreate   = "CREATE"
	AuditActionActivate = "ACTIVATE"
	AuditActionBlock    = "BLOCK"
	AuditActionRecharge = "RECHARGE"
	AuditActionDebit    = "DEBIT"
	AuditActionReversal = "REVERSAL"
)

const EntityTypeCard = "CARD"

type CardNumberResponse struct {
	CardNumber string `json:"cardNumber"`
	ProductID  string `json:"productId"`
}

type EnrollRequest struct {
	CardID string `json:"cardId"`
}

type CardBalanceRequest struct {
	CardID  string          `json:"cardId"`
	Balance decimal.Decimal `json:"balance"`
}

type CardBalanceResponse struct {
	CardID  string          `json:"cardId"`
	Balance decimal.Decimal `json:"balance"`
}

// TransactionRequest is shared by the public purchase endpoint and the
// internal debit/reversal endpoints on the card side.
type TransactionRequest struct {
	CardID string          `json:"cardId"`
	Price  decimal.Decimal `json:"price"`
}

type TransactionResponse struct {
	TransactionID   int64           `json:"transactionId"`
	CardID          string          `json:"cardId"`
	Price           decimal.Decimal `json:"price"`
	TransactionDate time.Time       `json:"transactionDate"`
}

type TransactionDetails struct {
	TransactionID   int64           `json:"transactionId"`
	CardID          string          `json:"cardId"`
	Price           decimal.Decimal `json:"price"`
	TransactionDate time.Time       `json:"transactionDate"`
	Annulled        bool            `json:"annulled"`
}

type AnulationRequest struct {
	TransactionID int64  `json:"transactionId"`
	CardID        string `json:"cardId"`
}

type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

type CardBalanceSnapshot struct {
	CardID  string          `json:"cardId"`
	Balance decimal.Decimal `json:"balance"`
}
