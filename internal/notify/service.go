package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/rahulraj2608/gadget-store/internal/kafka"
	"github.com/rahulraj2608/gadget-store/internal/customers"
	"github.com/rahulraj2608/gadget-store/internal/orders"
	"github.com/rahulraj2608/gadget-store/internal/redisx"
)

// CustomerDirectory resolves the recipient of an order e-mail.
type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (customers.Customer, error)
}

// Service turns order events into customer e-mails. A send failure is
// logged and swallowed: the order or status change already committed,
// so the event is still acked.
type Service struct {
	Customers   CustomerDirectory
	Redis       *redis.Client
	Notifier    Notifier
	ServiceName string
}

func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced && env.EventType != orders.EventOrderStatusChanged {
		return nil
	}

	// dedup on event_id so redelivery never double-mails
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}

	switch env.EventType {
	case orders.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
		if err != nil {
			return err
		}
		cust, err := s.Customers.Get(ctx, p.CustomerID)
		if err != nil {
			return fmt.Errorf("load customer %d: %w", p.CustomerID, err)
		}
		subject, html := OrderPlacedEmail(cust.FirstName, p)
		if err := s.Notifier.Send(ctx, cust.Email, subject, html); err != nil {
			slog.Warn("order confirmation mail not sent",
				"order_id", p.OrderID, "to", cust.Email, "error", err)
		}

	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		cust, err := s.Customers.Get(ctx, p.CustomerID)
		if err != nil {
			return fmt.Errorf("load customer %d: %w", p.CustomerID, err)
		}
		subject, html := StatusChangedEmail(cust.FirstName, p)
		if err := s.Notifier.Send(ctx, cust.Email, subject, html); err != nil {
			slog.Warn("status change mail not sent",
				"order_id", p.OrderID, "to", cust.Email, "error", err)
		}
	}

	// marked only after handling, so an error above leaves the event
	// retryable on redelivery
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return nil
}
