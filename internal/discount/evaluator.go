package discount

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahulraj2608/gadget-store/internal/cart"
)

var (
	// ErrOutOfWindow: today falls outside [StartDate, ExpiryDate].
	ErrOutOfWindow = errors.New("discount code is expired or not yet active")
	// ErrNotApplicable: no cart line matched the rule's scope, or the
	// computed amount came out non-positive.
	ErrNotApplicable = errors.New("discount code is not applicable to any items in the cart")
)

// Applied is a successful evaluation result.
type Applied struct {
	Code   string
	Amount decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Evaluate decides whether a rule applies to the given cart lines and
// computes the discount amount. Pure; the caller persists the result
// into the cart session and clears it when the cart changes.
//
// Percentage rules accumulate over every matching line. Fixed-amount
// rules are a single flat deduction: the first matching line sets the
// amount to the rule value and iteration stops. For a category-scoped
// fixed amount this means one matching item earns the whole value, and
// the clamp below runs against the whole cart's subtotal rather than
// the matching lines'. Kept for compatibility with the established
// storefront behavior.
func Evaluate(lines []cart.Line, rule Rule, today time.Time) (Applied, error) {
	day := toDate(today)
	if day.Before(toDate(rule.StartDate)) || day.After(toDate(rule.ExpiryDate)) {
		return Applied{}, ErrOutOfWindow
	}

	subtotal := cart.Subtotal(lines)
	amount := decimal.Zero
	applicable := false

	for _, l := range lines {
		if rule.Scope == ScopeCategory && l.CategoryID != rule.CategoryID {
			continue
		}
		applicable = true
		if rule.Kind == KindFixedAmount {
			amount = rule.Value
			break
		}
		amount = amount.Add(l.Subtotal().Mul(rule.Value).Div(hundred))
	}

	// A fixed discount never exceeds the pre-discount subtotal.
	if rule.Kind == KindFixedAmount && amount.GreaterThan(subtotal) {
		amount = subtotal
	}

	if !applicable || amount.LessThanOrEqual(decimal.Zero) {
		return Applied{}, ErrNotApplicable
	}
	return Applied{Code: rule.Code, Amount: amount.Round(2)}, nil
}

func toDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
