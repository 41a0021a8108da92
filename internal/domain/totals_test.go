package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateTotals_BasicOrder(t *testing.T) {
	lines := []LineItem{
		{UnitPrice: 1000, Quantity: 2},
		{UnitPrice: 500, Quantity: 1},
	}
	totals := CalculateTotals(lines, 300, 200, 100, 2000)

	assert.Equal(t, int64(2500), totals.Subtotal)
	// 2500 - 300 + 200 + 100 = 2500
	assert.Equal(t, int64(2500), totals.GrandTotal)
	assert.Equal(t, int64(500), totals.BalanceDue)
}

func TestCalculateTotals_EmptyLines(t *testing.T) {
	totals := CalculateTotals(nil, 0, 0, 0, 0)

	assert.Equal(t, int64(0), totals.Subtotal)
	assert.Equal(t, int64(0), totals.GrandTotal)
	assert.Equal(t, int64(0), totals.BalanceDue)
}

func TestCalculateTotals_DiscountExceedsSubtotal(t *testing.T) {
	lines := []LineItem{{UnitPrice: 1000, Quantity: 1}}
	totals := CalculateTotals(lines, 5000, 0, 0, 0)

	// Grand total never goes below zero.
	assert.Equal(t, int64(0), totals.GrandTotal)
	assert.Equal(t, int64(0), totals.BalanceDue)
}

func TestCalculateTotals_NegativeAdjustmentsClampedToZero(t *testing.T) {
	lines := []LineItem{{UnitPrice: 1000, Quantity: 1}}
	totals := CalculateTotals(lines, -500, -200, -100, -50)

	assert.Equal(t, int64(0), totals.Discount)
	assert.Equal(t, int64(0), totals.Tax)
	assert.Equal(t, int64(0), totals.Shipping)
	assert.Equal(t, int64(0), totals.AmountPaid)
	assert.Equal(t, int64(1000), totals.GrandTotal)
}

func TestCalculateTotals_OverpaymentGivesNegativeBalance(t *testing.T) {
	lines := []LineItem{{UnitPrice: 1500, Quantity: 1}}
	totals := CalculateTotals(lines, 0, 0, 0, 2000)

	assert.Equal(t, int64(-500), totals.BalanceDue)
}

func TestCalculateTotals_ShippingAndTaxOnly(t *testing.T) {
	lines := []LineItem{{UnitPrice: 1000, Quantity: 3}}
	totals := CalculateTotals(lines, 0, 450, 700, 0)

	assert.Equal(t, int64(3000), totals.Subtotal)
	assert.Equal(t, int64(4150), totals.GrandTotal)
}

func TestCalculateTotals_Deterministic(t *testing.T) {
	lines := []LineItem{
		{UnitPrice: 999, Quantity: 3},
		{UnitPrice: 1, Quantity: 7},
	}
	first := CalculateTotals(lines, 10, 20, 30, 40)
	second := CalculateTotals(lines, 10, 20, 30, 40)

	assert.Equal(t, first, second)
}

func TestCalculateTotals_DoesNotMutateLines(t *testing.T) {
	lines := []LineItem{
		{UnitPrice: 999, Quantity: 3},
		{UnitPrice: 1, Quantity: 7},
	}
	snapshot := []LineItem{
		{UnitPrice: 999, Quantity: 3},
		{UnitPrice: 1, Quantity: 7},
	}

	CalculateTotals(lines, 10, 20, 30, 40)

	assert.Equal(t, snapshot, lines)
}
