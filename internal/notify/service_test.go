package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulraj2608/gadget-store/internal/customers"
	"github.com/rahulraj2608/gadget-store/internal/orders"
)

type sentMail struct {
	to      string
	subject string
}

type stubNotifier struct {
	sent    []sentMail
	sendErr error
}

func (n *stubNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.sent = append(n.sent, sentMail{to: to, subject: subject})
	return n.sendErr
}

type stubDirectory struct {
	customer customers.Customer
	failures int // first N lookups fail
}

func (d *stubDirectory) Get(context.Context, int64) (customers.Customer, error) {
	if d.failures > 0 {
		d.failures--
		return customers.Customer{}, errors.New("db: connection reset")
	}
	return d.customer, nil
}

func newTestService(t *testing.T, n *stubNotifier) *Service {
	t.Helper()
	srv := miniredis.RunT(t)
	return &Service{
		Customers: &stubDirectory{customer: customers.Customer{
			ID:        7,
			FirstName: "Rina",
			Email:     "rina@example.com",
		}},
		Redis:       redis.NewClient(&redis.Options{Addr: srv.Addr()}),
		Notifier:    n,
		ServiceName: "notifier-test",
	}
}

func placedMessage(t *testing.T, eventID string) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(orders.OrderPlacedPayload{
		OrderID:    101,
		CustomerID: 7,
		Items: []orders.PlacedItem{
			{ProductID: 1, ProductName: "USB-C Hub", Quantity: 2, PerUnitPrice: decimal.RequireFromString("40.00")},
		},
		TotalAmount:   decimal.RequireFromString("93.00"),
		PaymentMethod: "Cash on Delivery",
	})
	require.NoError(t, err)

	env, err := json.Marshal(orders.Envelope{
		EventID:      eventID,
		EventType:    orders.EventOrderPlaced,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "api-test",
		Payload:      payload,
	})
	require.NoError(t, err)
	return kafkago.Message{Key: orders.PartitionKey(101), Value: env}
}

func TestHandleOrderEvent_SendsConfirmation(t *testing.T) {
	n := &stubNotifier{}
	svc := newTestService(t, n)

	err := svc.HandleOrderEvent(context.Background(), placedMessage(t, uuid.NewString()))

	require.NoError(t, err)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "rina@example.com", n.sent[0].to)
	assert.Contains(t, n.sent[0].subject, "101")
}

func TestHandleOrderEvent_DedupOnRedelivery(t *testing.T) {
	n := &stubNotifier{}
	svc := newTestService(t, n)
	m := placedMessage(t, uuid.NewString())

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))

	assert.Len(t, n.sent, 1, "redelivered event must not mail twice")
}

func TestHandleOrderEvent_TransientLookupFailureStaysRetryable(t *testing.T) {
	n := &stubNotifier{}
	srv := miniredis.RunT(t)
	svc := &Service{
		Customers: &stubDirectory{
			customer: customers.Customer{ID: 7, FirstName: "Rina", Email: "rina@example.com"},
			failures: 1,
		},
		Redis:       redis.NewClient(&redis.Options{Addr: srv.Addr()}),
		Notifier:    n,
		ServiceName: "notifier-test",
	}
	m := placedMessage(t, uuid.NewString())

	// first delivery fails before any mail goes out; the event must not
	// be marked processed
	require.Error(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Empty(t, n.sent)

	// redelivery succeeds
	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Len(t, n.sent, 1)
}

func TestHandleOrderEvent_SendFailureIsNonFatal(t *testing.T) {
	n := &stubNotifier{sendErr: errors.New("smtp: connection refused")}
	svc := newTestService(t, n)

	err := svc.HandleOrderEvent(context.Background(), placedMessage(t, uuid.NewString()))

	assert.NoError(t, err, "a mail failure must not fail the event")
}

func TestHandleOrderEvent_IgnoresUnknownEventType(t *testing.T) {
	n := &stubNotifier{}
	svc := newTestService(t, n)

	env, err := json.Marshal(orders.Envelope{
		EventID:   uuid.NewString(),
		EventType: "StockReplenished",
		Payload:   json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	require.NoError(t, svc.HandleOrderEvent(context.Background(), kafkago.Message{Value: env}))
	assert.Empty(t, n.sent)
}

func TestHandleOrderEvent_StatusChanged(t *testing.T) {
	n := &stubNotifier{}
	svc := newTestService(t, n)

	payload, err := json.Marshal(orders.OrderStatusChangedPayload{
		OrderID:    101,
		CustomerID: 7,
		NewStatus:  orders.StatusShipped,
	})
	require.NoError(t, err)
	env, err := json.Marshal(orders.Envelope{
		EventID:   uuid.NewString(),
		EventType: orders.EventOrderStatusChanged,
		Payload:   payload,
	})
	require.NoError(t, err)

	require.NoError(t, svc.HandleOrderEvent(context.Background(), kafkago.Message{Value: env}))
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0].subject, "shipped")
}
