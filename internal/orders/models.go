package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64           `json:"order_id"`
	CustomerID      int64           `json:"customer_id"`
	OrderDate       time.Time       `json:"order_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"order_status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`

	// Joined for admin listings.
	CustomerName string `json:"customer_name,omitempty"`
}

// Item snapshots quantity and the unit price that was current at
// purchase time; it is never recomputed from the product table.
type Item struct {
	ID           int64           `json:"order_item_id"`
	OrderID      int64           `json:"order_id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	PerUnitPrice decimal.Decimal `json:"per_unit_price"`
}

type Payment struct {
	ID            int64           `json:"payment_id"`
	OrderID       int64           `json:"order_id"`
	PaymentDate   time.Time       `json:"payment_date"`
	Method        string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
}

// Detail is an order with its frozen lines and payment record, as shown
// on the customer order page and the admin invoice.
type Detail struct {
	Order   Order   `json:"order"`
	Items   []Item  `json:"items"`
	Payment Payment `json:"payment"`
}

// ItemsSubtotal sums the frozen line subtotals. The invoice derives tax
// from the stored total, never from current product prices.
func (d Detail) ItemsSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range d.Items {
		total = total.Add(it.PerUnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
