package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rahulraj2608/gadget-store/internal/cart"
)

var (
	testShipping = decimal.RequireFromString("5.00")
	testTaxRate  = decimal.RequireFromString("0.10")
)

func assertDecEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func TestComputeTotals(t *testing.T) {
	lines := []cart.Line{cartLine(1, "100.00", 1)}
	totals := ComputeTotals(lines, dec("20.00"), testShipping, testTaxRate)

	assertDecEqual(t, "100.00", totals.Subtotal)
	assertDecEqual(t, "20.00", totals.Discount)
	assertDecEqual(t, "8.00", totals.Tax)
	assertDecEqual(t, "5.00", totals.Shipping)
	assertDecEqual(t, "93.00", totals.Total)
}

func TestComputeTotals_NoDiscount(t *testing.T) {
	lines := []cart.Line{
		cartLine(1, "19.99", 2),
		cartLine(2, "4.50", 1),
	}
	totals := ComputeTotals(lines, decimal.Zero, testShipping, testTaxRate)

	assertDecEqual(t, "44.48", totals.Subtotal)
	// 44.48 * 0.10 = 4.448 -> 4.45
	assertDecEqual(t, "4.45", totals.Tax)
	assertDecEqual(t, "53.93", totals.Total)
}

func TestComputeTotals_DiscountExceedsSubtotal(t *testing.T) {
	lines := []cart.Line{cartLine(1, "30.00", 1)}
	totals := ComputeTotals(lines, dec("50.00"), testShipping, testTaxRate)

	assertDecEqual(t, "0.00", totals.Tax)
	// shipping still applies to a non-empty cart
	assertDecEqual(t, "5.00", totals.Total)
}

func TestComputeTotals_EmptyCart(t *testing.T) {
	totals := ComputeTotals(nil, decimal.Zero, testShipping, testTaxRate)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Shipping.IsZero(), "no shipping fee on an empty cart")
	assert.True(t, totals.Total.IsZero())
}
