package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mtaasisi/POS-sub013/internal/domain"
	"github.com/Mtaasisi/POS-sub013/pkg/httpclient"
)

// OrderClient persists completed sales through the order service.
type OrderClient struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewOrderClient creates an order persistence client.
func NewOrderClient(httpClient HTTPDoer, baseURL string, timeout time.Duration, logger *slog.Logger) *OrderClient {
	return &OrderClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
		logger:     logger,
	}
}

// CreateOrder persists the sale and returns the completed receipt with the
// order ID and human sale number assigned by the order service. Business
// rejections such as insufficient stock come back as a 409 or 422 and
// surface as an ErrConflict application error.
func (c *OrderClient) CreateOrder(ctx context.Context, rec domain.OrderRecord) (*domain.OrderRecord, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal create order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call order service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "order")
	}

	var created domain.OrderRecord
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	c.logger.InfoContext(ctx, "order created",
		slog.String("transaction_id", rec.TransactionID),
		slog.String("order_id", created.OrderID),
		slog.String("number", created.Number),
	)

	return &created, nil
}
