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

// Variant is the catalog's view of one sellable product variant. Prices are
// minor currency units. TierPrices maps a pricing tier to its override; a
// missing entry falls back to SellingPrice.
type Variant struct {
	ProductID    string                `json:"product_id"`
	VariantID    string                `json:"variant_id"`
	ProductName  string                `json:"product_name"`
	VariantName  string                `json:"variant_name"`
	SKU          string                `json:"sku"`
	SellingPrice int64                 `json:"selling_price"`
	CostPrice    int64                 `json:"cost_price"`
	TierPrices   map[domain.Tier]int64 `json:"tier_prices,omitempty"`
}

// CatalogClient fetches product variants from the catalog service.
type CatalogClient struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewCatalogClient creates a catalog client. A zero timeout disables the
// per-call deadline.
func NewCatalogClient(httpClient HTTPDoer, baseURL string, timeout time.Duration, logger *slog.Logger) *CatalogClient {
	return &CatalogClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
		logger:     logger,
	}
}

// GetVariant fetches one variant by product and variant ID. A 404 from the
// catalog surfaces as an ErrNotFound application error.
func (c *CatalogClient) GetVariant(ctx context.Context, productID, variantID string) (*Variant, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/products/%s/variants/%s", c.baseURL, productID, variantID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create get variant request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call catalog service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}

	var variant Variant
	if err := json.NewDecoder(resp.Body).Decode(&variant); err != nil {
		return nil, fmt.Errorf("decode variant response: %w", err)
	}

	c.logger.DebugContext(ctx, "variant fetched",
		slog.String("product_id", productID),
		slog.String("variant_id", variantID),
	)

	return &variant, nil
}
