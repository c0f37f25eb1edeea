package discount

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPercentage  Kind = "percentage"
	KindFixedAmount Kind = "fixed_amount"
)

type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeCategory Scope = "category"
)

// Rule is an admin-managed discount. Codes are stored upper-case and
// matched case-insensitively.
type Rule struct {
	ID         int64           `json:"discount_id"`
	Code       string          `json:"discount_code"`
	Kind       Kind            `json:"type"`
	Value      decimal.Decimal `json:"value"`
	Scope      Scope           `json:"applicable_to"`
	CategoryID int64           `json:"category_id,omitempty"`
	StartDate  time.Time       `json:"start_date"`
	ExpiryDate time.Time       `json:"expiry_date"`
}
