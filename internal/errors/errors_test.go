package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "card not found", err: ErrCardNotFound, want: true},
		{name: "transaction not found", err: ErrTransactionNotFound, want: true},
		{name: "wrapped card not found", err: fmt.Errorf("lookup: %w", ErrCardNotFound), want: true},
		{name: "remote 404", err: NewRemoteError("debit", http.StatusNotFound, "card not found"), want: true},
		{name: "wrapped remote 404", err: fmt.Errorf("purchase rejected: %w", NewRemoteError("debit", http.StatusNotFound, "gone")), want: true},
		{name: "remote 400", err: NewRemoteError("debit", http.StatusBadRequest, "insufficient funds"), want: false},
		{name: "remote transport failure", err: NewRemoteError("debit", 0, "timeout"), want: false},
		{name: "insufficient funds", err: ErrInsufficientFunds, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("cardId", "must be non-empty")
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "validation error on field 'cardId': must be non-empty", err.Error())

	assert.False(t, IsValidationError(ErrInvalidAmount))
}

func TestRemoteError(t *testing.T) {
	err := NewRemoteError("reversal", http.StatusBadRequest, "upstream says no")
	assert.True(t, IsRemoteError(err))
	assert.True(t, IsRemoteError(fmt.Errorf("reversal failed: %w", err)))
	assert.Contains(t, err.Error(), "reversal")
	assert.Contains(t, err.Error(), "upstream says no")

	transport := NewRemoteError("debit", 0, "connection refused")
	assert.Contains(t, transport.Error(), "connection refused")
	assert.False(t, IsRemoteError(ErrCardNotFound))
}
