package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-exported stdlib helpers so callers need a single errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Domain error types shared by the card and transaction services
var (
	ErrCardNotFound       = errors.New("card not found")
	ErrCardAlreadyExists  = errors.New("card already exists")
	ErrCardAlreadyActive  = errors.New("card is already active")
	ErrCardAlreadyBlocked = errors.New("card is already blocked")
	ErrCardInactive       = errors.New("card is not active")
	ErrCardBlocked        = errors.New("card is blocked")
	ErrCardExpired        = errors.New("card has expired")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCardID      = errors.New("invalid card ID")
	ErrInvalidProductID   = errors.New("product ID must be 6 digits")

	ErrTransactionNotFound = errors.New("transaction not found or does not belong to the card")
	ErrAlreadyAnnulled     = errors.New("transaction was already annulled")
	ErrAnnulmentWindow     = errors.New("cannot annul, more than 24 hours have passed")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// RemoteError is reported when a call to the card service fails, either at
// the transport level or with a non-success status. StatusCode is zero for
// transport failures. The explicit status replaces matching on message text
// when choosing the client-facing status.
type RemoteError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("card service %s call failed: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("card service %s call failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
}

func (e *RemoteError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func NewRemoteError(operation string, statusCode int, message string) error {
	return &RemoteError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
	}
}

// IsNotFound reports whether err should surface as a 404, covering both
// local lookups and not-found responses relayed from the card service.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrCardNotFound) || errors.Is(err, ErrTransactionNotFound) {
		return true
	}
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.NotFound()
}

func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrCardAlreadyExists)
}

func IsRemoteError(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr)
}
