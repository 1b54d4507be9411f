package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bankcore/card-transactions/internal/client"
	"github.com/bankcore/card-transactions/internal/errors"
	"github.com/bankcore/card-transactions/internal/models"
	"github.com/bankcore/card-transactions/internal/repository"
)

type TransactionService interface {
	Purchase(ctx context.Context, req *models.TransactionRequest) (*models.TransactionResponse, error)
	GetTransaction(ctx context.Context, transactionID int64) (*models.TransactionDetails, error)
	Cancel(ctx context.Context, req *models.AnulationRequest) error
}

// AnnulmentWindow is how long after creation a transaction stays
// cancellable. Elapsed time at or beyond the window is rejected.
const AnnulmentWindow = 24 * time.Hour

const cardIDLength = 16

type TransactionServiceImpl struct {
	transactionRepo repository.TransactionRepository
	cardClient      client.CardClient
	logger          *slog.Logger
	now             func() time.Time
}

func NewTransactionService(transactionRepo repository.TransactionRepository, cardClient client.CardClient, logger *slog.Logger) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		transactionRepo: transactionRepo,
		cardClient:      cardClient,
		logger:          logger,
		now:             time.Now,
	}
}

// Purchase debits the card remotely and then records the transaction. The
// record is written only after the debit succeeded; a failed debit aborts
// the whole operation with nothing persisted. A record write failing after
// a successful debit leaves the funds withdrawn with no matching record,
// which is logged for out-of-band reconciliation.
func (s *TransactionServiceImpl) Purchase(ctx context.Context, req *models.TransactionRequest) (*models.TransactionResponse, error) {
	if err := s.validatePurchaseRequest(req); err != nil {
		s.logger.Warn("invalid purchase request",
			"card_id", req.CardID,
			"price", req.Price.String(),
			"error", err.Error(),
		)
		return nil, err
	}

	if err := s.cardClient.Debit(ctx, req.CardID, req.Price); err != nil {
		s.logger.Warn("purchase rejected by card service",
			"card_id", req.CardID,
			"price", req.Price.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("purchase rejected: %w", err)
	}

	transaction := &models.Transaction{
		CardID:          req.CardID,
		Price:           req.Price,
		TransactionDate: s.now(),
		IsAnnulled:      false,
	}

	if err := s.transactionRepo.Create(ctx, transaction); err != nil {
		// The debit already landed on the card side. There is no rollback
		// path for it here, so the orphaned debit is logged with every
		// field needed to reconcile it manually.
		s.logger.Error("debit succeeded but transaction record creation failed",
			"card_id", req.CardID,
			"price", req.Price.String(),
			"debit_time", transaction.TransactionDate,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	s.logger.Info("purchase completed",
		"transaction_id", transaction.TransactionID,
		"card_id", transaction.CardID,
		"price", transaction.Price.String(),
	)

	return &models.TransactionResponse{
		TransactionID:   transaction.TransactionID,
		CardID:          transaction.CardID,
		Price:           transaction.Price,
		TransactionDate: transaction.TransactionDate,
	}, nil
}

func (s *TransactionServiceImpl) GetTransaction(ctx context.Context, transactionID int64) (*models.TransactionDetails, error) {
	transaction, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		if !errors.IsNotFound(err) {
			s.logger.Error("failed to get transaction",
				"transaction_id", transactionID,
				"error", err.Error(),
			)
		}
		return nil, err
	}

	return &models.TransactionDetails{
		TransactionID:   transaction.TransactionID,
		CardID:          transaction.CardID,
		Price:           transaction.Price,
		TransactionDate: transaction.TransactionDate,
		Annulled:        transaction.IsAnnulled,
	}, nil
}

// Cancel annuls a transaction: it must belong to the given card, must not
// be annulled already and must still be inside the annulment window. The
// reversal is issued with the stored card and price, never caller-supplied
// values. Only a confirmed reversal flips the annulled flag; a failed
// reversal leaves the record untouched so the cancellation can be retried.
func (s *TransactionServiceImpl) Cancel(ctx context.Context, req *models.AnulationRequest) error {
	if req.CardID == "" {
		return errors.NewValidationError("cardId", "must be non-empty")
	}

	transaction, err := s.transactionRepo.GetByIDAndCardID(ctx, req.TransactionID, req.CardID)
	if err != nil {
		if !errors.IsNotFound(err) {
			s.logger.Error("failed to look up transaction for anulation",
				"transaction_id", req.TransactionID,
				"error", err.Error(),
			)
		}
		return err
	}

	if transaction.IsAnnulled {
		return errors.ErrAlreadyAnnulled
	}

	if s.now().Sub(transaction.TransactionDate) >= AnnulmentWindow {
		return errors.ErrAnnulmentWindow
	}

	if err := s.cardClient.Reversal(ctx, transaction.CardID, transaction.Price); err != nil {
		s.logger.Error("reversal failed, transaction left un-annulled",
			"transaction_id", transaction.TransactionID,
			"card_id", transaction.CardID,
			"price", transaction.Price.String(),
			"error", err.Error(),
		)
		return fmt.Errorf("reversal failed: %w", err)
	}

	if err := s.transactionRepo.MarkAnnulled(ctx, transaction.TransactionID); err != nil {
		s.logger.Error("reversal succeeded but annulment flag update failed",
			"transaction_id", transaction.TransactionID,
			"error", err.Error(),
		)
		return err
	}

	s.logger.Info("transaction annulled",
		"transaction_id", transaction.TransactionID,
		"card_id", transaction.CardID,
	)
	return nil
}

func (s *TransactionServiceImpl) validatePurchaseRequest(req *models.TransactionRequest) error {
	if req.CardID == "" {
		return errors.NewValidationError("cardId", "must be non-empty")
	}
	if len(req.CardID) != cardIDLength {
		return errors.NewValidationError("cardId", "must be 16 digits")
	}
	if req.Price.Sign() <= 0 {
		return errors.ErrInvalidAmount
	}
	return nil
}
