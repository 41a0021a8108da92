// Package pricing resolves the unit price for a catalog variant at a given
// customer tier.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mtaasisi/POS-sub013/internal/client"
	"github.com/Mtaasisi/POS-sub013/internal/domain"
	apperrors "github.com/Mtaasisi/POS-sub013/pkg/errors"
)

// VariantGetter fetches a catalog variant. *client.CatalogClient satisfies this.
type VariantGetter interface {
	GetVariant(ctx context.Context, productID, variantID string) (*client.Variant, error)
}

// Resolver resolves prices against the catalog. It has no side effects.
type Resolver struct {
	catalog VariantGetter
}

// NewResolver creates a price resolver over the catalog client.
func NewResolver(catalog VariantGetter) *Resolver {
	return &Resolver{catalog: catalog}
}

// ResolvedPrice is the outcome of a price lookup.
type ResolvedPrice struct {
	ProductName string
	VariantName string
	SKU         string
	UnitPrice   int64
	UnitCost    int64
}

// Resolve returns the unit price for the variant at the given tier: the
// tier-specific price when one is set, otherwise the base selling price.
// A variant the catalog does not know, or one with no usable price, returns
// a price-not-found error and no line must be added.
func (r *Resolver) Resolve(ctx context.Context, productID, variantID string, tier domain.Tier) (*ResolvedPrice, error) {
	variant, err := r.catalog.GetVariant(ctx, productID, variantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.PriceNotFoundError(variantID, tier)
		}
		return nil, fmt.Errorf("resolve price: %w", err)
	}

	price := variant.SellingPrice
	if tierPrice, ok := variant.TierPrices[tier]; ok && tierPrice > 0 {
		price = tierPrice
	}
	if price <= 0 {
		return nil, domain.PriceNotFoundError(variantID, tier)
	}

	return &ResolvedPrice{
		ProductName: variant.ProductName,
		VariantName: variant.VariantName,
		SKU:         variant.SKU,
		UnitPrice:   price,
		UnitCost:    variant.CostPrice,
	}, nil
}
