package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bankcore/card-transactions/internal/errors"
	"github.com/bankcore/card-transactions/internal/models"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	GetByIDAndCardID(ctx context.Context, id int64, cardID string) (*models.Transaction, error)
	MarkAnnulled(ctx context.Context, id int64) error
}

type PostgresTransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

func (r *PostgresTransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	query := `INSERT INTO transactions (card_id, price, transaction_date, is_annulled)
		VALUES ($1, $2, $3, FALSE)
		RETURNING transaction_id`

	err := r.db.QueryRowContext(ctx, query,
		transaction.CardID,
		transaction.Price,
		transaction.TransactionDate,
	).Scan(&transaction.TransactionID)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *PostgresTransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT transaction_id, card_id, price, transaction_date, is_annulled
		FROM transactions WHERE transaction_id = $1`

	transaction := &models.Transaction{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&transaction.TransactionID, &transaction.CardID, &transaction.Price,
			&transaction.TransactionDate, &transaction.IsAnnulled)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID: %w", err)
	}
	return transaction, nil
}

// GetByIDAndCardID matches both the identifier and the owning card. A
// transaction that belongs to a different card scans as no rows, so callers
// cannot cancel across cards.
func (r *PostgresTransactionRepository) GetByIDAndCardID(ctx context.Context, id int64, cardID string) (*models.Transaction, error) {
	query := `SELECT transaction_id, card_id, price, transaction_date, is_annulled
		FROM transactions WHERE transaction_id = $1 AND card_id = $2`

	transaction := &models.Transaction{}
	err := r.db.QueryRowContext(ctx, query, id, cardID).
		Scan(&transaction.TransactionID, &transaction.CardID, &transaction.Price,
			&transaction.TransactionDate, &transaction.IsAnnulled)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID and card ID: %w", err)
	}
	return transaction, nil
}

func (r *PostgresTransactionRepository) MarkAnnulled(ctx context.Context, id int64) error {
	query := `UPDATE transactions SET is_annulled = TRUE
		WHERE transaction_id = $1 AND is_annulled = FALSE`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction annulled: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after marking transaction annulled: %w", err)
	}

	if rowsAffected == 0 {
		return errors.ErrAlreadyAnnulled
	}
	return nil
}
