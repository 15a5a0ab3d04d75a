package pricing

import "github.com/shopspring/decimal"

type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "unpaid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
)

type OrderLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type PricedLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

type OrderTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Calculator prices order lines with a single flat tax rate applied
// uniformly to every line. It is pure and stateless: no I/O, no side
// effects, no failure modes. Input validation (positive quantities,
// non-negative prices) is the caller's responsibility.
type Calculator struct {
	taxRate decimal.Decimal
}

// NewCalculator creates a calculator for the given deployment tax rate,
// e.g. decimal.RequireFromString("0.10") for 10%.
func NewCalculator(taxRate decimal.Decimal) *Calculator {
	return &Calculator{taxRate: taxRate}
}

func (c *Calculator) TaxRate() decimal.Decimal {
	return c.taxRate
}

// PriceLines computes subtotal, tax, and total per line.
func (c *Calculator) PriceLines(lines []OrderLine) []PricedLine {
	priced := make([]PricedLine, 0, len(lines))
	for _, line := range lines {
		subtotal := line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity))
		tax := subtotal.Mul(c.taxRate)
		priced = append(priced, PricedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  subtotal,
			TaxAmount: tax,
			Total:     subtotal.Add(tax),
		})
	}
	return priced
}

// AggregateTotals sums priced lines and applies the order-level discount.
// The payable total is floored at zero; a discount can never produce a
// negative amount. A negative discount is not rejected, it simply increases
// the total.
func (c *Calculator) AggregateTotals(priced []PricedLine, discount decimal.Decimal) OrderTotals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, line := range priced {
		subtotal = subtotal.Add(line.Subtotal)
		tax = tax.Add(line.TaxAmount)
	}

	total := subtotal.Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return OrderTotals{
		Subtotal:    subtotal,
		TaxAmount:   tax,
		TotalAmount: total,
	}
}

// DerivePaymentStatus recomputes the payment state from scratch on every
// call. A paid amount equal to the total counts as fully paid.
func DerivePaymentStatus(totalAmount, paidAmount decimal.Decimal) PaymentStatus {
	switch {
	case paidAmount.LessThanOrEqual(decimal.Zero):
		return PaymentUnpaid
	case paidAmount.LessThan(totalAmount):
		return PaymentPartiallyPaid
	default:
		return PaymentPaid
	}
}
