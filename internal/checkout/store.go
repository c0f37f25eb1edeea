package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rahulraj2608/gadget-store/internal/orders"
)

// PGStore implements Store over pgx. Stock rows are locked with
// SELECT ... FOR UPDATE so concurrent checkouts for the same product
// serialize instead of overselling.
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) ProductForUpdate(ctx context.Context, productID int64) (decimal.Decimal, int, error) {
	var price decimal.Decimal
	var stock int
	err := t.tx.QueryRow(ctx,
		`SELECT price, stock_quantity FROM product WHERE product_id=$1 FOR UPDATE`, productID).
		Scan(&price, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, 0, fmt.Errorf("product not found: %d", productID)
	}
	return price, stock, err
}

func (t *pgTx) InsertOrder(ctx context.Context, customerID int64, total decimal.Decimal, shippingAddress, paymentMethod string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (customer_id, total_amount, order_status, shipping_address, payment_method)
		VALUES ($1, $2, 'pending', $3, $4)
		RETURNING order_id`,
		customerID, total, shippingAddress, paymentMethod).Scan(&id)
	return id, err
}

func (t *pgTx) InsertOrderItem(ctx context.Context, orderID, productID int64, quantity int, unitPrice decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_item (order_id, product_id, quantity, per_unit_price)
		VALUES ($1, $2, $3, $4)`,
		orderID, productID, quantity, unitPrice)
	return err
}

func (t *pgTx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	ct, err := t.tx.Exec(ctx,
		`UPDATE product SET stock_quantity = stock_quantity - $2 WHERE product_id=$1`,
		productID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("product not found: %d", productID)
	}
	return nil
}

func (t *pgTx) InsertPayment(ctx context.Context, orderID int64, method string, amount decimal.Decimal, status orders.PaymentStatus, transactionID string) error {
	var txID *string
	if transactionID != "" {
		txID = &transactionID
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payment (order_id, payment_method, amount, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5)`,
		orderID, method, amount, status, txID)
	return err
}

func (t *pgTx) ClearCart(ctx context.Context, customerID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart WHERE customer_id=$1`, customerID)
	return err
}
