package domain

import "time"

// OrderLine is one line of a finalized sale as sent to the order service.
type OrderLine struct {
	ProductID   string `json:"product_id,omitempty"`
	VariantID   string `json:"variant_id,omitempty"`
	Name        string `json:"name"`
	VariantName string `json:"variant_name,omitempty"`
	SKU         string `json:"sku,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	UnitCost    int64  `json:"unit_cost"`
	Quantity    int    `json:"quantity"`
	Total       int64  `json:"total"`
	External    bool   `json:"external,omitempty"`
}

// OrderRecord is the immutable receipt built from a submitted transaction.
// It is the exact payload handed to the order service, captured before the
// session state is cleared.
type OrderRecord struct {
	// OrderID and Number are assigned by the order service on creation and
	// empty on the outbound request. Number is the human sale reference
	// printed on the receipt, e.g. SALE-004213.
	OrderID string `json:"order_id,omitempty"`
	Number  string `json:"number,omitempty"`

	TransactionID string      `json:"transaction_id"`
	CashierID     string      `json:"cashier_id"`
	CustomerID    string      `json:"customer_id"`
	CustomerName  string      `json:"customer_name"`
	Tier          Tier        `json:"tier"`
	Lines         []OrderLine `json:"lines"`

	PaymentMethod PaymentMethod `json:"payment_method"`
	Totals        Totals        `json:"totals"`

	DeliveryMethod  DeliveryMethod `json:"delivery_method,omitempty"`
	DeliveryAddress string         `json:"delivery_address,omitempty"`
	DeliveryCity    string         `json:"delivery_city,omitempty"`
	DeliveryNotes   string         `json:"delivery_notes,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// BuildOrderRecord snapshots a submittable transaction into its receipt.
// Callers must have passed SubmitGuard first.
func BuildOrderRecord(t *Transaction, cashierID string, now time.Time) OrderRecord {
	lines := make([]OrderLine, 0, len(t.Cart.Lines))
	for _, l := range t.Cart.Lines {
		lines = append(lines, OrderLine{
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			Name:        l.Name,
			VariantName: l.VariantName,
			SKU:         l.SKU,
			UnitPrice:   l.UnitPrice,
			UnitCost:    l.UnitCost,
			Quantity:    l.Quantity,
			Total:       l.Total(),
			External:    l.External,
		})
	}

	rec := OrderRecord{
		TransactionID:   t.ID,
		CashierID:       cashierID,
		Tier:            t.Tier(),
		Lines:           lines,
		PaymentMethod:   t.PaymentMethod,
		Totals:          t.Totals(),
		DeliveryMethod:  t.DeliveryMethod,
		DeliveryAddress: t.DeliveryAddress,
		DeliveryCity:    t.DeliveryCity,
		DeliveryNotes:   t.DeliveryNotes,
		SubmittedAt:     now,
	}
	if t.Customer != nil {
		rec.CustomerID = t.Customer.ID
		rec.CustomerName = t.Customer.Name
	}
	return rec
}
