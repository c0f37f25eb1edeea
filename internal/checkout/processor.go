package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rahulraj2608/gadget-store/internal/cart"
	"github.com/rahulraj2608/gadget-store/internal/orders"
)

// PaymentCashOnDelivery is the only method that settles later; every
// other method requires an upfront transaction id and records the
// payment as completed.
const PaymentCashOnDelivery = "Cash on Delivery"

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrMissingAddress       = errors.New("shipping address is required")
	ErrMissingTransactionID = errors.New("transaction id is required for this payment method")
)

type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Tx is the set of writes available inside a checkout transaction.
type Tx interface {
	// ProductForUpdate re-reads the authoritative price and stock,
	// locking the row until the transaction ends.
	ProductForUpdate(ctx context.Context, productID int64) (price decimal.Decimal, stock int, err error)
	InsertOrder(ctx context.Context, customerID int64, total decimal.Decimal, shippingAddress, paymentMethod string) (int64, error)
	InsertOrderItem(ctx context.Context, orderID, productID int64, quantity int, unitPrice decimal.Decimal) error
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	InsertPayment(ctx context.Context, orderID int64, method string, amount decimal.Decimal, status orders.PaymentStatus, transactionID string) error
	ClearCart(ctx context.Context, customerID int64) error
}

// Store runs fn inside one transaction; if fn returns an error nothing
// persists.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}

type Input struct {
	CustomerID      int64
	Lines           []cart.Line
	ShippingAddress string
	PaymentMethod   string
	TransactionID   string
	// TotalAmount comes from ComputeTotals on the current cart plus the
	// session discount; it is stored as-is on the order.
	TotalAmount decimal.Decimal
}

// Processor converts a cart into a persisted order, its items, stock
// decrements and a payment record, atomically. Insufficient stock on
// any single line aborts the whole order; the cart survives for retry.
type Processor struct {
	Store Store
}

func (p *Processor) Checkout(ctx context.Context, in Input) (int64, error) {
	if in.ShippingAddress == "" {
		return 0, ErrMissingAddress
	}
	if in.PaymentMethod != PaymentCashOnDelivery && in.TransactionID == "" {
		return 0, ErrMissingTransactionID
	}
	if len(in.Lines) == 0 {
		return 0, ErrEmptyCart
	}

	var orderID int64
	err := p.Store.InTx(ctx, func(tx Tx) error {
		id, err := tx.InsertOrder(ctx, in.CustomerID, in.TotalAmount, in.ShippingAddress, in.PaymentMethod)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		orderID = id

		for _, line := range in.Lines {
			price, stock, err := tx.ProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("read product %d: %w", line.ProductID, err)
			}
			if line.Quantity > stock {
				return &InsufficientStockError{ProductID: line.ProductID, Requested: line.Quantity, Available: stock}
			}
			if err := tx.InsertOrderItem(ctx, orderID, line.ProductID, line.Quantity, price); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
		}

		status := orders.PaymentCompleted
		if in.PaymentMethod == PaymentCashOnDelivery {
			status = orders.PaymentPending
		}
		if err := tx.InsertPayment(ctx, orderID, in.PaymentMethod, in.TotalAmount, status, in.TransactionID); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		if err := tx.ClearCart(ctx, in.CustomerID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}
