package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankcore/card-transactions/internal/errors"
	"github.com/bankcore/card-transactions/internal/models"
	"github.com/bankcore/card-transactions/internal/repository"
)

type CardService interface {
	GenerateCardNumber(ctx context.Context, productID string) (string, error)
	Activate(ctx context.Context, cardID string) error
	Block(ctx context.Context, cardID string) error
	Recharge(ctx context.Context, cardID string, amount decimal.Decimal) (decimal.Decimal, error)
	GetBalance(ctx context.Context, cardID string) (decimal.Decimal, error)
	GetValidatedCard(ctx context.Context, cardID string) (*models.Card, error)
	Debit(ctx context.Context, cardID string, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, cardID string, amount decimal.Decimal) (decimal.Decimal, error)
	GetAuditTrail(ctx context.Context, cardID string) ([]*models.AuditLog, error)
}

const (
	productIDLength  = 6
	cardNumberLength = 16
	expiryYears      = 3

	defaultHolderName = "Bank Customer"
)

type CardServiceImpl struct {
	cardRepo  repository.CardRepository
	auditRepo repository.AuditRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewCardService(cardRepo repository.CardRepository, auditRepo repository.AuditRepository, logger *slog.Logger) *CardServiceImpl {
	return &CardServiceImpl{
		cardRepo:  cardRepo,
		auditRepo: auditRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// GenerateCardNumber issues a new card under the given product: the number
// is the 6-digit product ID followed by 10 random digits, and the card
// starts inactive with a zero balance. Generation does not pre-check for
// collisions; a duplicate insert surfaces as ErrCardAlreadyExists.
func (s *CardServiceImpl) GenerateCardNumber(ctx context.Context, productID string) (string, error) {
	if !isDigits(productID) || len(productID) != productIDLength {
		s.logger.Warn("invalid product ID for card generation", "product_id", productID)
		return "", errors.ErrInvalidProductID
	}

	number := productID + randomDigits(cardNumberLength-productIDLength)

	card := &models.Card{
		CardID:     number,
		ProductID:  productID,
		HolderName: defaultHolderName,
		ExpiryDate: s.now().AddDate(expiryYears, 0, 0),
		Balance:    decimal.Zero,
		IsActive:   false,
		IsBlocked:  false,
	}

	if err := s.cardRepo.CreateCard(ctx, card); err != nil {
		s.logger.Error("failed to create card",
			"card_id", number,
			"error", err.Error(),
		)
		return "", err
	}

	s.writeAuditLog(ctx, card.CardID, models.AuditActionCreate, nil, card.Balance)
	s.logger.Info("card created", "card_id", number, "product_id", productID)
	return number, nil
}

func (s *CardServiceImpl) Activate(ctx context.Context, cardID string) error {
	card, err := s.cardRepo.GetCardByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card.IsActive {
		return errors.ErrCardAlreadyActive
	}

	if err := s.cardRepo.SetActive(ctx, cardID); err != nil {
		return err
	}

	s.writeAuditLog(ctx, cardID, models.AuditActionActivate, &card.Balance, card.Balance)
	s.logger.Info("card activated", "card_id", cardID)
	return nil
}

func (s *CardServiceImpl) Block(ctx context.Context, cardID string) error {
	card, err := s.cardRepo.GetCardByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card.IsBlocked {
		return errors.ErrCardAlreadyBlocked
	}

	if err := s.cardRepo.SetBlocked(ctx, cardID); err != nil {
		return err
	}

	s.writeAuditLog(ctx, cardID, models.AuditActionBlock, &card.Balance, card.Balance)
	s.logger.Info("card blocked", "card_id", cardID)
	return nil
}

// Recharge tops up the balance. Like reversal credits, it only requires the
// card to exist; an inactive or blocked card can still receive funds.
func (s *CardServiceImpl) Recharge(ctx context.Context, cardID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, errors.ErrInvalidAmount
	}

	newBalance, err := s.cardRepo.IncrementBalance(ctx, cardID, amount)
	if err != nil {
		return decimal.Zero, err
	}

	old := newBalance.Sub(amount)
	s.writeAuditLog(ctx, cardID, models.AuditActionRecharge, &old, newBalance)
	s.logger.Info("card recharged",
		"card_id", cardID,
		"amount", amount.String(),
		"new_balance", newBalance.String(),
	)
	return newBalance, nil
}

func (s *CardServiceImpl) GetBalance(ctx context.Context, cardID string) (decimal.Decimal, error) {
	card, err := s.cardRepo.GetCardByID(ctx, cardID)
	if err != nil {
		return decimal.Zero, err
	}
	return card.Balance, nil
}

// GetValidatedCard is the validity gate applied before any debit: the card
// must be active, unblocked and unexpired, checked in that order so the
// most specific failure is reported.
func (s *CardServiceImpl) GetValidatedCard(ctx context.Context, cardID string) (*models.Card, error) {
	card, err := s.cardRepo.GetCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if !card.IsActive {
		return nil, errors.ErrCardInactive
	}
	if card.IsBlocked {
		return nil, errors.ErrCardBlocked
	}
	if card.ExpiryDate.Before(startOfDay(s.now())) {
		return nil, errors.ErrCardExpired
	}
	return card, nil
}

// Debit withdraws amount from the card after the validity gate. The balance
// mutation itself is a conditional update on the row, so a concurrent debit
// that would overdraw fails with ErrInsufficientFunds instead.
func (s *CardServiceImpl) Debit(ctx context.Context, cardID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, errors.ErrInvalidAmount
	}

	card, err := s.GetValidatedCard(ctx, cardID)
	if err != nil {
		s.logger.Warn("debit rejected",
			"card_id", cardID,
			"amount", amount.String(),
			"error", err.Error(),
		)
		return decimal.Zero, err
	}

	newBalance, err := s.cardRepo.DecrementBalance(ctx, cardID, amount)
	if err != nil {
		if errors.IsInsufficientFunds(err) {
			s.logger.Warn("insufficient funds for debit",
				"card_id", cardID,
				"requested_amount", amount.String(),
			)
		} else {
			s.logger.Error("failed to debit card",
				"card_id", cardID,
				"error", err.Error(),
			)
		}
		return decimal.Zero, err
	}

	s.writeAuditLog(ctx, cardID, models.AuditActionDebit, &card.Balance, newBalance)
	s.logger.Info("card debited",
		"card_id", cardID,
		"amount", amount.String(),
		"new_balance", newBalance.String(),
	)
	return newBalance, nil
}

// Credit restores funds without the validity gate: a reversal must be able
// to land even if the card was blocked or expired after the original debit.
func (s *CardServiceImpl) Credit(ctx context.Context, cardID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, errors.ErrInvalidAmount
	}

	newBalance, err := s.cardRepo.IncrementBalance(ctx, cardID, amount)
	if err != nil {
		if !errors.IsNotFound(err) {
			s.logger.Error("failed to credit card",
				"card_id", cardID,
				"error", err.Error(),
			)
		}
		return decimal.Zero, err
	}

	old := newBalance.Sub(amount)
	s.writeAuditLog(ctx, cardID, models.AuditActionReversal, &old, newBalance)
	s.logger.Info("card credited",
		"card_id", cardID,
		"amount", amount.String(),
		"new_balance", newBalance.String(),
	)
	return newBalance, nil
}

func (s *CardServiceImpl) GetAuditTrail(ctx context.Context, cardID string) ([]*models.AuditLog, error) {
	if exists, err := s.cardRepo.CardExists(ctx, cardID); err != nil {
		return nil, err
	} else if !exists {
		return nil, errors.ErrCardNotFound
	}
	return s.auditRepo.GetByEntityID(ctx, models.EntityTypeCard, cardID)
}

// writeAuditLog records a balance snapshot change. Audit failures are logged
// and swallowed; they never abort the business operation.
func (s *CardServiceImpl) writeAuditLog(ctx context.Context, cardID, action string, oldBalance *decimal.Decimal, newBalance decimal.Decimal) {
	var oldValue []byte
	if oldBalance != nil {
		oldValue, _ = json.Marshal(models.CardBalanceSnapshot{CardID: cardID, Balance: *oldBalance})
	}
	newValue, _ := json.Marshal(models.CardBalanceSnapshot{CardID: cardID, Balance: newBalance})

	auditLog := &models.AuditLog{
		EntityType: models.EntityTypeCard,
		EntityID:   cardID,
		Action:     action,
		OldValue:   oldValue,
		NewValue:   newValue,
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.logger.Error("failed to create audit log",
			"card_id", cardID,
			"action", action,
			"error", err.Error(),
		)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func randomDigits(n int) string {
	digits := make([]byte, n)
	for i := range digits {
		digits[i] = byte('0' + rand.Intn(10))
	}
	return string(digits)
}
