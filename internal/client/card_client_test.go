package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankcore/card-transactions/internal/errors"
	"github.com/bankcore/card-transactions/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string) *HTTPCardClient {
	return NewHTTPCardClient(url, time.Second, testLogger())
}

func TestDebitSuccess(t *testing.T) {
	var gotPath string
	var gotReq models.TransactionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.Debit(context.Background(), "1234560000000001", decimal.RequireFromString("50.00"))
	require.NoError(t, err)

	assert.Equal(t, "/card/internal/debit", gotPath)
	assert.Equal(t, "1234560000000001", gotReq.CardID)
	assert.True(t, gotReq.Price.Equal(decimal.RequireFromString("50.00")))
}

func TestReversalSuccess(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.Reversal(context.Background(), "1234560000000001", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, "/card/internal/reversal", gotPath)
}

func TestDebitRejectedCarriesUpstreamMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.ErrorResponse{
			Status:  http.StatusBadRequest,
			Error:   "Bad Request",
			Message: "insufficient funds",
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.Debit(context.Background(), "1234560000000001", decimal.NewFromInt(999))
	require.Error(t, err)

	var remoteErr *errors.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
	assert.Equal(t, "insufficient funds", remoteErr.Message)
	assert.False(t, remoteErr.NotFound())
	assert.False(t, errors.IsNotFound(err))
}

func TestDebitNotFoundIsSurfacedDistinctly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.ErrorResponse{Message: "card not found"})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.Debit(context.Background(), "9999990000000000", decimal.NewFromInt(10))
	require.Error(t, err)

	var remoteErr *errors.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.True(t, remoteErr.NotFound())
	assert.True(t, errors.IsNotFound(err))
}

func TestDebitTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := newTestClient(server.URL)
	err := c.Debit(context.Background(), "1234560000000001", decimal.NewFromInt(10))
	require.Error(t, err)

	var remoteErr *errors.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 0, remoteErr.StatusCode)
	assert.False(t, errors.IsNotFound(err))
}

func TestNonJSONErrorBodyIsPassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("plain text failure"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.Debit(context.Background(), "1234560000000001", decimal.NewFromInt(10))
	require.Error(t, err)

	var remoteErr *errors.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "plain text failure", remoteErr.Message)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := newTestClient(server.URL)
	for i := 0; i < 6; i++ {
		_ = c.Debit(context.Background(), "1234560000000001", decimal.NewFromInt(10))
	}

	err := c.Debit(context.Background(), "1234560000000001", decimal.NewFromInt(10))
	require.Error(t, err)

	var remoteErr *errors.RemoteError
	require.ErrorAs(t, err, &remoteErr, "an open breaker still reports a remote failure")
	assert.Equal(t, 0, remoteErr.StatusCode)
}
