package discount

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulraj2608/gadget-store/internal/cart"
)

var today = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func line(price string, qty int, categoryID int64) cart.Line {
	return cart.Line{
		UnitPrice:  decimal.RequireFromString(price),
		Quantity:   qty,
		CategoryID: categoryID,
	}
}

func activeRule(kind Kind, value string, scope Scope, categoryID int64) Rule {
	return Rule{
		Code:       "SAVE",
		Kind:       kind,
		Value:      decimal.RequireFromString(value),
		Scope:      scope,
		CategoryID: categoryID,
		StartDate:  today.AddDate(0, 0, -7),
		ExpiryDate: today.AddDate(0, 0, 7),
	}
}

func TestEvaluate_PercentageAll(t *testing.T) {
	lines := []cart.Line{line("100.00", 2, 4)}
	applied, err := Evaluate(lines, activeRule(KindPercentage, "10", ScopeAll, 0), today)

	require.NoError(t, err)
	assert.Equal(t, "SAVE", applied.Code)
	assert.True(t, applied.Amount.Equal(decimal.RequireFromString("20.00")),
		"got %s", applied.Amount)
}

func TestEvaluate_PercentageAccumulatesAcrossLines(t *testing.T) {
	lines := []cart.Line{
		line("19.99", 3, 1),
		line("5.00", 2, 2),
	}
	// (59.97 + 10.00) * 15% = 10.4955 -> 10.50
	applied, err := Evaluate(lines, activeRule(KindPercentage, "15", ScopeAll, 0), today)

	require.NoError(t, err)
	assert.True(t, applied.Amount.Equal(decimal.RequireFromString("10.50")),
		"got %s", applied.Amount)
}

func TestEvaluate_FixedAmountClampsToSubtotal(t *testing.T) {
	lines := []cart.Line{
		line("50.00", 1, 1),
		line("30.00", 1, 2),
	}
	applied, err := Evaluate(lines, activeRule(KindFixedAmount, "1000", ScopeAll, 0), today)

	require.NoError(t, err)
	assert.True(t, applied.Amount.Equal(decimal.RequireFromString("80.00")),
		"got %s", applied.Amount)
}

func TestEvaluate_FixedAmountIsFlatNotPerLine(t *testing.T) {
	lines := []cart.Line{
		line("40.00", 1, 1),
		line("40.00", 1, 1),
		line("40.00", 1, 1),
	}
	applied, err := Evaluate(lines, activeRule(KindFixedAmount, "25", ScopeAll, 0), today)

	require.NoError(t, err)
	assert.True(t, applied.Amount.Equal(decimal.RequireFromString("25.00")),
		"got %s", applied.Amount)
}

func TestEvaluate_CategoryPercentageOnlyMatchingLines(t *testing.T) {
	lines := []cart.Line{
		line("100.00", 1, 4),
		line("200.00", 1, 9),
	}
	applied, err := Evaluate(lines, activeRule(KindPercentage, "10", ScopeCategory, 4), today)

	require.NoError(t, err)
	assert.True(t, applied.Amount.Equal(decimal.RequireFromString("10.00")),
		"got %s", applied.Amount)
}

// One item from the category earns the whole flat value, and the clamp
// runs against the whole cart's subtotal.
func TestEvaluate_CategoryFixedAmountFullValueOnAnyMatch(t *testing.T) {
	lines := []cart.Line{
		line("10.00", 1, 4),
		line("90.00", 1, 9),
	}
	applied, err := Evaluate(lines, activeRule(KindFixedAmount, "30", ScopeCategory, 4), today)

	require.NoError(t, err)
	assert.True(t, applied.Amount.Equal(decimal.RequireFromString("30.00")),
		"got %s", applied.Amount)
}

func TestEvaluate_CategoryNoMatch(t *testing.T) {
	lines := []cart.Line{line("100.00", 1, 9)}
	_, err := Evaluate(lines, activeRule(KindPercentage, "10", ScopeCategory, 4), today)

	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestEvaluate_EmptyCartNotApplicable(t *testing.T) {
	_, err := Evaluate(nil, activeRule(KindPercentage, "10", ScopeAll, 0), today)
	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestEvaluate_OutOfWindow(t *testing.T) {
	rule := activeRule(KindPercentage, "10", ScopeAll, 0)
	lines := []cart.Line{line("100.00", 1, 1)}

	_, err := Evaluate(lines, rule, rule.StartDate.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrOutOfWindow)

	_, err = Evaluate(lines, rule, rule.ExpiryDate.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, ErrOutOfWindow)
}

func TestEvaluate_WindowBoundariesInclusive(t *testing.T) {
	rule := activeRule(KindPercentage, "10", ScopeAll, 0)
	lines := []cart.Line{line("100.00", 1, 1)}

	_, err := Evaluate(lines, rule, rule.StartDate)
	assert.NoError(t, err)

	// late in the evening of the expiry date still counts
	_, err = Evaluate(lines, rule, toDate(rule.ExpiryDate).Add(23*time.Hour))
	assert.NoError(t, err)
}

func TestEvaluate_Idempotent(t *testing.T) {
	lines := []cart.Line{line("33.33", 3, 1)}
	rule := activeRule(KindPercentage, "7", ScopeAll, 0)

	first, err := Evaluate(lines, rule, today)
	require.NoError(t, err)
	second, err := Evaluate(lines, rule, today)
	require.NoError(t, err)

	assert.True(t, first.Amount.Equal(second.Amount))
}
