package orders

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// ParseStatus accepts exactly the five known statuses; anything else is
// rejected before it reaches the database.
func ParseStatus(s string) (Status, error) {
	for _, st := range statuses {
		if Status(s) == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

func Statuses() []Status { return statuses }

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)
