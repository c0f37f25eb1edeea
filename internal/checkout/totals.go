package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/rahulraj2608/gadget-store/internal/cart"
)

// Totals is the order arithmetic frozen at checkout time. Tax is
// computed here, once, from the post-discount subtotal; nothing ever
// recomputes it from current product prices.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals applies the discount to the cart subtotal, then tax and
// shipping. An empty cart yields all zeros, shipping included.
func ComputeTotals(lines []cart.Line, discountAmount, shippingFee, taxRate decimal.Decimal) Totals {
	subtotal := cart.Subtotal(lines)
	afterDiscount := subtotal.Sub(discountAmount)
	if afterDiscount.IsNegative() {
		afterDiscount = decimal.Zero
	}

	tax := afterDiscount.Mul(taxRate).Round(2)
	shipping := decimal.Zero
	if len(lines) > 0 {
		shipping = shippingFee
	}

	return Totals{
		Subtotal: subtotal.Round(2),
		Discount: discountAmount.Round(2),
		Tax:      tax,
		Shipping: shipping,
		Total:    afterDiscount.Add(tax).Add(shipping).Round(2),
	}
}
