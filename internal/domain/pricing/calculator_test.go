package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalculator(rate string) *Calculator {
	return NewCalculator(decimal.RequireFromString(rate))
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============================================
// PriceLines Tests
// ============================================

func TestCalculator_PriceLines_SingleLine(t *testing.T) {
	calc := newTestCalculator("0.10")

	priced := calc.PriceLines([]OrderLine{
		{ProductID: "prod-1", Quantity: 3, UnitPrice: d("19.99")},
	})

	require.Len(t, priced, 1)
	assert.True(t, priced[0].Subtotal.Equal(d("59.97")), "subtotal = %s", priced[0].Subtotal)
	assert.True(t, priced[0].TaxAmount.Equal(d("5.997")), "tax = %s", priced[0].TaxAmount)
	assert.True(t, priced[0].Total.Equal(d("65.967")), "total = %s", priced[0].Total)
}

func TestCalculator_PriceLines_ZeroQuantityLine(t *testing.T) {
	calc := newTestCalculator("0.10")

	priced := calc.PriceLines([]OrderLine{
		{ProductID: "prod-1", Quantity: 0, UnitPrice: d("19.99")},
	})

	require.Len(t, priced, 1)
	assert.True(t, priced[0].Subtotal.IsZero())
	assert.True(t, priced[0].TaxAmount.IsZero())
	assert.True(t, priced[0].Total.IsZero())
}

func TestCalculator_PriceLines_NoDecimalDrift(t *testing.T) {
	// 100 lines of 0.1 must sum to exactly 10, not 9.999... as binary
	// floating point would give.
	calc := newTestCalculator("0")

	lines := make([]OrderLine, 100)
	for i := range lines {
		lines[i] = OrderLine{ProductID: "prod-1", Quantity: 1, UnitPrice: d("0.1")}
	}

	totals := calc.AggregateTotals(calc.PriceLines(lines), decimal.Zero)

	assert.True(t, totals.Subtotal.Equal(d("10")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.TotalAmount.Equal(d("10")), "total = %s", totals.TotalAmount)
}

// ============================================
// AggregateTotals Tests
// ============================================

func TestCalculator_AggregateTotals_SumsLinesAndAppliesDiscount(t *testing.T) {
	calc := newTestCalculator("0.10")

	priced := calc.PriceLines([]OrderLine{
		{ProductID: "prod-1", Quantity: 2, UnitPrice: d("10.00")},
		{ProductID: "prod-2", Quantity: 1, UnitPrice: d("5.00")},
	})
	totals := calc.AggregateTotals(priced, d("5.00"))

	assert.True(t, totals.Subtotal.Equal(d("25.00")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.TaxAmount.Equal(d("2.50")), "tax = %s", totals.TaxAmount)
	assert.True(t, totals.TotalAmount.Equal(d("22.50")), "total = %s", totals.TotalAmount)
}

func TestCalculator_AggregateTotals_DiscountFloorsAtZero(t *testing.T) {
	// Subtotal 10 + tax 1.9 with a 50 discount must clamp to 0,
	// never go negative.
	calc := newTestCalculator("0.19")

	priced := calc.PriceLines([]OrderLine{
		{ProductID: "prod-1", Quantity: 1, UnitPrice: d("10.00")},
	})
	totals := calc.AggregateTotals(priced, d("50.00"))

	assert.True(t, totals.TotalAmount.IsZero(), "total = %s", totals.TotalAmount)
	assert.True(t, totals.Subtotal.Equal(d("10.00")))
	assert.True(t, totals.TaxAmount.Equal(d("1.90")))
}

func TestCalculator_AggregateTotals_NegativeDiscountIncreasesTotal(t *testing.T) {
	calc := newTestCalculator("0")

	priced := calc.PriceLines([]OrderLine{
		{ProductID: "prod-1", Quantity: 1, UnitPrice: d("10.00")},
	})
	totals := calc.AggregateTotals(priced, d("-2.50"))

	assert.True(t, totals.TotalAmount.Equal(d("12.50")), "total = %s", totals.TotalAmount)
}

func TestCalculator_AggregateTotals_EmptyOrder(t *testing.T) {
	calc := newTestCalculator("0.10")

	totals := calc.AggregateTotals(nil, decimal.Zero)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.TaxAmount.IsZero())
	assert.True(t, totals.TotalAmount.IsZero())
}

// ============================================
// DerivePaymentStatus Tests
// ============================================

func TestDerivePaymentStatus(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		paid     string
		expected PaymentStatus
	}{
		{"nothing paid", "100.00", "0", PaymentUnpaid},
		{"negative paid", "100.00", "-5.00", PaymentUnpaid},
		{"one cent short", "100.00", "99.99", PaymentPartiallyPaid},
		{"exactly paid", "100.00", "100.00", PaymentPaid},
		{"overpaid", "100.00", "120.00", PaymentPaid},
		{"zero total zero paid", "0", "0", PaymentUnpaid},
		{"zero total some paid", "0", "1.00", PaymentPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := DerivePaymentStatus(d(tt.total), d(tt.paid))

			assert.Equal(t, tt.expected, status)
		})
	}
}
