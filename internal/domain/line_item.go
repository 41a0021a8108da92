package domain

import "github.com/google/uuid"

// LineItem represents one purchasable row in the cart. A line is either
// backed by a catalog variant or, when External is true, an ad hoc product
// entered at the register with no catalog reference.
type LineItem struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id,omitempty"`
	VariantID   string `json:"variant_id,omitempty"`
	Name        string `json:"name"`
	VariantName string `json:"variant_name,omitempty"`
	SKU         string `json:"sku,omitempty"`
	// UnitPrice is the resolved price in minor currency units. It is fixed
	// when the line is created and only changes on an explicit override.
	UnitPrice int64 `json:"unit_price"`
	// UnitCost is kept for margin reporting only and is never shown to the customer.
	UnitCost int64 `json:"unit_cost,omitempty"`
	Quantity int   `json:"quantity"`
	External bool  `json:"external,omitempty"`
}

// Total returns the line total: unit price times quantity.
func (li LineItem) Total() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// NewCatalogLine creates a line item backed by a catalog variant.
func NewCatalogLine(productID, variantID, name, variantName, sku string, unitPrice, unitCost int64, quantity int) LineItem {
	return LineItem{
		ID:          uuid.New().String(),
		ProductID:   productID,
		VariantID:   variantID,
		Name:        name,
		VariantName: variantName,
		SKU:         sku,
		UnitPrice:   unitPrice,
		UnitCost:    unitCost,
		Quantity:    quantity,
	}
}

// NewExternalLine creates an ad hoc line item for a product that is not in
// the catalog. External lines never merge with other lines.
func NewExternalLine(name string, unitPrice int64, quantity int) LineItem {
	return LineItem{
		ID:        uuid.New().String(),
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		External:  true,
	}
}
