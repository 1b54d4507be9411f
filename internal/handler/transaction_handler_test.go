package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankcore/card-transactions/internal/errors"
	"github.com/bankcore/card-transactions/internal/models"
)

type stubTransactionService struct {
	purchaseResp *models.TransactionResponse
	purchaseErr  error
	details      *models.TransactionDetails
	getErr       error
	cancelErr    error
}

func (s *stubTransactionService) Purchase(ctx context.Context, req *models.TransactionRequest) (*models.TransactionResponse, error) {
	return s.purchaseResp, s.purchaseErr
}

func (s *stubTransactionService) GetTransaction(ctx context.Context, transactionID int64) (*models.TransactionDetails, error) {
	return s.details, s.getErr
}

func (s *stubTransactionService) Cancel(ctx context.Context, req *models.AnulationRequest) error {
	return s.cancelErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTransactionRouter(svc *stubTransactionService) *mux.Router {
	router := mux.NewRouter()
	NewTransactionHandler(svc, testLogger()).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPurchaseHandler(t *testing.T) {
	svc := &stubTransactionService{
		purchaseResp: &models.TransactionResponse{
			TransactionID:   7,
			CardID:          "1234560000000001",
			Price:           decimal.RequireFromString("50.00"),
			TransactionDate: time.Now(),
		},
	}
	router := newTransactionRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/transaction/purchase", models.TransactionRequest{
		CardID: "1234560000000001",
		Price:  decimal.RequireFromString("50.00"),
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.TransactionID)
	assert.Equal(t, "1234560000000001", resp.CardID)
}

func TestPurchaseHandlerInvalidPayload(t *testing.T) {
	router := newTransactionRouter(&stubTransactionService{})

	req := httptest.NewRequest(http.MethodPost, "/transaction/purchase", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, http.StatusBadRequest, errResp.Status)
	assert.Equal(t, "Bad Request", errResp.Error)
	assert.Equal(t, "/transaction/purchase", errResp.Path)
	assert.False(t, errResp.Timestamp.IsZero())
}

func TestPurchaseHandlerRemoteRejection(t *testing.T) {
	svc := &stubTransactionService{
		purchaseErr: fmt.Errorf("purchase rejected: %w",
			errors.NewRemoteError("debit", http.StatusBadRequest, "insufficient funds")),
	}
	router := newTransactionRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/transaction/purchase", models.TransactionRequest{
		CardID: "1234560000000001",
		Price:  decimal.NewFromInt(999),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseHandlerRemoteNotFound(t *testing.T) {
	svc := &stubTransactionService{
		purchaseErr: fmt.Errorf("purchase rejected: %w",
			errors.NewRemoteError("debit", http.StatusNotFound, "card not found")),
	}
	router := newTransactionRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/transaction/purchase", models.TransactionRequest{
		CardID: "9999990000000000",
		Price:  decimal.NewFromInt(10),
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTransactionHandler(t *testing.T) {
	svc := &stubTransactionService{
		details: &models.TransactionDetails{
			TransactionID: 7,
			CardID:        "1234560000000001",
			Price:         decimal.RequireFromString("50.00"),
			Annulled:      true,
		},
	}
	router := newTransactionRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/transaction/7", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var details models.TransactionDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.True(t, details.Annulled)
}

func TestGetTransactionHandlerNotFound(t *testing.T) {
	svc := &stubTransactionService{getErr: errors.ErrTransactionNotFound}
	router := newTransactionRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/transaction/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelHandler(t *testing.T) {
	tests := []struct {
		name       string
		cancelErr  error
		wantStatus int
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "not owned", cancelErr: errors.ErrTransactionNotFound, wantStatus: http.StatusNotFound},
		{name: "already annulled", cancelErr: errors.ErrAlreadyAnnulled, wantStatus: http.StatusBadRequest},
		{name: "window expired", cancelErr: errors.ErrAnnulmentWindow, wantStatus: http.StatusBadRequest},
		{
			name: "reversal failed",
			cancelErr: fmt.Errorf("reversal failed: %w",
				errors.NewRemoteError("reversal", 0, "connection refused")),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTransactionRouter(&stubTransactionService{cancelErr: tt.cancelErr})

			rec := doJSON(t, router, http.MethodPost, "/transaction/anulation", models.AnulationRequest{
				TransactionID: 7,
				CardID:        "1234560000000001",
			})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
