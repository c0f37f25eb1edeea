package redisx

import "time"

const (
	// Applied discount for a customer's cart: cart:discount:{customer_id} -> {"code","amount"}.
	// Cleared on every cart mutation and on checkout.
	KeyCartDiscount = "cart:discount:%d"

	// Cache of order status for the customer-facing status endpoint:
	// order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%d"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCartDiscount = 24 * time.Hour
	TTLStatusCache  = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
