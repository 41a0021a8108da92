package domain

// Totals holds the derived money figures for a transaction. It is never
// stored; it is recomputed from the snapshot on every read.
type Totals struct {
	Subtotal   int64 `json:"subtotal"`
	Discount   int64 `json:"discount"`
	Tax        int64 `json:"tax"`
	Shipping   int64 `json:"shipping"`
	GrandTotal int64 `json:"grand_total"`
	AmountPaid int64 `json:"amount_paid"`
	// BalanceDue is the grand total minus the amount paid. A negative value
	// signals overpayment: change is owed to the customer.
	BalanceDue int64 `json:"balance_due"`
}

// CalculateTotals maps the snapshot's money inputs to the derived totals.
// It is pure and deterministic, treats an empty line list as subtotal zero,
// and never fails: negative adjustment inputs are coerced to zero before use,
// and the grand total is floored at zero.
func CalculateTotals(lines []LineItem, discount, tax, shipping, amountPaid int64) Totals {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.Total()
	}

	discount = clampZero(discount)
	tax = clampZero(tax)
	shipping = clampZero(shipping)
	amountPaid = clampZero(amountPaid)

	grandTotal := clampZero(subtotal - discount + tax + shipping)

	return Totals{
		Subtotal:   subtotal,
		Discount:   discount,
		Tax:        tax,
		Shipping:   shipping,
		GrandTotal: grandTotal,
		AmountPaid: amountPaid,
		BalanceDue: grandTotal - amountPaid,
	}
}

func clampZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
