package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/bankcore/card-transactions/internal/errors"
	"github.com/bankcore/card-transactions/internal/models"
)

// CardClient is the narrow interface the sagas use to move funds on the
// card service. Implementations must not retry: a failed call is reported
// as-is and the orchestrator decides what to do.
type CardClient interface {
	Debit(ctx context.Context, cardID string, price decimal.Decimal) error
	Reversal(ctx context.Context, cardID string, price decimal.Decimal) error
}

const (
	debitPath    = "/card/internal/debit"
	reversalPath = "/card/internal/reversal"

	opDebit    = "debit"
	opReversal = "reversal"
)

type HTTPCardClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

func NewHTTPCardClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPCardClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "card-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &HTTPCardClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
	}
}

func (c *HTTPCardClient) Debit(ctx context.Context, cardID string, price decimal.Decimal) error {
	return c.post(ctx, opDebit, debitPath, cardID, price)
}

func (c *HTTPCardClient) Reversal(ctx context.Context, cardID string, price decimal.Decimal) error {
	return c.post(ctx, opReversal, reversalPath, cardID, price)
}

func (c *HTTPCardClient) post(ctx context.Context, operation, path, cardID string, price decimal.Decimal) error {
	body, err := json.Marshal(models.TransactionRequest{
		CardID: cardID,
		Price:  price,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", operation, err)
	}

	// Domain rejections (4xx) are not service failures and must not trip
	// the breaker; only transport errors and 5xx responses count.
	result, err := c.breaker.Execute(func() (interface{}, error) {
		callErr := c.doPost(ctx, operation, path, body)
		var remoteErr *errors.RemoteError
		if errors.As(callErr, &remoteErr) && remoteErr.StatusCode >= 400 && remoteErr.StatusCode < 500 {
			return callErr, nil
		}
		return nil, callErr
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return errors.NewRemoteError(operation, 0, err.Error())
		}
		return err
	}
	if result != nil {
		return result.(error)
	}
	return nil
}

func (c *HTTPCardClient) doPost(ctx context.Context, operation, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.NewRemoteError(operation, 0, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("card service call failed",
			"operation", operation,
			"error", err.Error(),
		)
		return errors.NewRemoteError(operation, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return errors.NewRemoteError(operation, resp.StatusCode, upstreamMessage(resp.Body))
}

// upstreamMessage pulls the human message out of the card service's error
// body so the caller sees why the call was rejected.
func upstreamMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}

	var errResp models.ErrorResponse
	if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Message != "" {
		return errResp.Message
	}
	return string(raw)
}
