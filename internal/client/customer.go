package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mtaasisi/POS-sub013/internal/domain"
	"github.com/Mtaasisi/POS-sub013/pkg/httpclient"
)

// CustomerClient fetches customers from the customer directory service.
type CustomerClient struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewCustomerClient creates a customer directory client.
func NewCustomerClient(httpClient HTTPDoer, baseURL string, timeout time.Duration, logger *slog.Logger) *CustomerClient {
	return &CustomerClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
		logger:     logger,
	}
}

// GetCustomer fetches one customer by ID. A 404 from the directory surfaces
// as an ErrNotFound application error.
func (c *CustomerClient) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/customers/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create get customer request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call customer service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "customer")
	}

	type customerResponse struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Tier  string `json:"tier"`
	}

	var custResp customerResponse
	if err := json.NewDecoder(resp.Body).Decode(&custResp); err != nil {
		return nil, fmt.Errorf("decode customer response: %w", err)
	}

	customer := &domain.Customer{
		ID:    custResp.ID,
		Name:  custResp.Name,
		Phone: custResp.Phone,
		Tier:  domain.Tier(custResp.Tier),
	}
	if !customer.Tier.Valid() {
		customer.Tier = domain.TierRetail
	}

	c.logger.DebugContext(ctx, "customer fetched", slog.String("customer_id", id))

	return customer, nil
}
