package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/bankcore/card-transactions/internal/errors"
	"github.com/bankcore/card-transactions/internal/models"
)

type CardRepository interface {
	CreateCard(ctx context.Context, card *models.Card) error
	GetCardByID(ctx context.Context, id string) (*models.Card, error)
	SetActive(ctx context.Context, id string) error
	SetBlocked(ctx context.Context, id string) error
	DecrementBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
	IncrementBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
	CardExists(ctx context.Context, id string) (bool, error)
}

type PostgresCardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) *PostgresCardRepository {
	return &PostgresCardRepository{db: db}
}

func (r *PostgresCardRepository) CreateCard(ctx context.Context, card *models.Card) error {
	query := `INSERT INTO cards (card_id, product_id, holder_name, expiry_date, balance, is_active, is_blocked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		card.CardID,
		card.ProductID,
		card.HolderName,
		card.ExpiryDate,
		card.Balance,
		card.IsActive,
		card.IsBlocked,
	).Scan(&card.CreatedAt, &card.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.ErrCardAlreadyExists
		}
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (r *PostgresCardRepository) GetCardByID(ctx context.Context, id string) (*models.Card, error) {
	query := `SELECT card_id, product_id, holder_name, expiry_date, balance, is_active, is_blocked, created_at, updated_at
		FROM cards WHERE card_id = $1`

	card := &models.Card{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&card.CardID, &card.ProductID, &card.HolderName, &card.ExpiryDate,
			&card.Balance, &card.IsActive, &card.IsBlocked, &card.CreatedAt, &card.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card by ID: %w", err)
	}
	return card, nil
}

// SetActive flips the active flag exactly once. The caller checks existence
// first, so zero affected rows means the card was already active.
func (r *PostgresCardRepository) SetActive(ctx context.Context, id string) error {
	query := `UPDATE cards SET is_active = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE card_id = $1 AND is_active = FALSE`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to activate card: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after activating card: %w", err)
	}

	if rowsAffected == 0 {
		return errors.ErrCardAlreadyActive
	}
	return nil
}

func (r *PostgresCardRepository) SetBlocked(ctx context.Context, id string) error {
	query := `UPDATE cards SET is_blocked = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE card_id = $1 AND is_blocked = FALSE`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to block card: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after blocking card: %w", err)
	}

	if rowsAffected == 0 {
		return errors.ErrCardAlreadyBlocked
	}
	return nil
}

// DecrementBalance applies the debit as a single conditional update so that
// concurrent debits cannot overdraw the card: the balance predicate and the
// subtraction execute atomically on the row.
func (r *PostgresCardRepository) DecrementBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `UPDATE cards SET balance = balance - $1, updated_at = CURRENT_TIMESTAMP
		WHERE card_id = $2 AND balance >= $1
		RETURNING balance`

	var newBalance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, amount, id).Scan(&newBalance)
	if err != nil {
		if err == sql.ErrNoRows {
			exists, existsErr := r.CardExists(ctx, id)
			if existsErr != nil {
				return decimal.Zero, existsErr
			}
			if !exists {
				return decimal.Zero, errors.ErrCardNotFound
			}
			return decimal.Zero, errors.ErrInsufficientFunds
		}
		return decimal.Zero, fmt.Errorf("failed to decrement card balance: %w", err)
	}
	return newBalance, nil
}

func (r *PostgresCardRepository) IncrementBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `UPDATE cards SET balance = balance + $1, updated_at = CURRENT_TIMESTAMP
		WHERE card_id = $2
		RETURNING balance`

	var newBalance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, amount, id).Scan(&newBalance)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, errors.ErrCardNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to increment card balance: %w", err)
	}
	return newBalance, nil
}

func (r *PostgresCardRepository) CardExists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM cards WHERE card_id = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check if card exists: %w", err)
	}

	return exists, nil
}
