package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var ErrNotFound = errors.New("order not found")

func (r *Repo) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, customer_id, order_date, total_amount, order_status,
		       COALESCE(shipping_address, ''), COALESCE(payment_method, '')
		FROM orders
		WHERE customer_id = $1
		ORDER BY order_date DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows, false)
}

// sortColumns whitelists admin sort keys; anything else falls back to
// order_date.
var sortColumns = map[string]string{
	"order_id":     "order_id",
	"total_amount": "total_amount",
	"order_date":   "order_date",
}

// ListAll returns every order for the admin screen, optionally filtered
// by status and sorted by a whitelisted column.
func (r *Repo) ListAll(ctx context.Context, filter Status, sortBy string, asc bool) ([]Order, error) {
	col, ok := sortColumns[sortBy]
	if !ok {
		col = "order_date"
	}
	dir := "DESC"
	if asc {
		dir = "ASC"
	}

	query := `
		SELECT o.order_id, o.customer_id, o.order_date, o.total_amount, o.order_status,
		       COALESCE(o.shipping_address, ''), COALESCE(o.payment_method, ''),
		       c.first_name || ' ' || c.last_name
		FROM orders o
		JOIN customer c ON c.customer_id = o.customer_id`
	args := []any{}
	if filter != "" {
		query += ` WHERE o.order_status = $1`
		args = append(args, filter)
	}
	query += ` ORDER BY o.` + col + ` ` + dir

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows, true)
}

func scanOrders(rows pgx.Rows, withCustomer bool) ([]Order, error) {
	var out []Order
	for rows.Next() {
		var o Order
		dest := []any{&o.ID, &o.CustomerID, &o.OrderDate, &o.TotalAmount, &o.Status, &o.ShippingAddress, &o.PaymentMethod}
		if withCustomer {
			dest = append(dest, &o.CustomerName)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, orderID int64) (Detail, error) {
	var d Detail
	err := r.DB.QueryRow(ctx, `
		SELECT order_id, customer_id, order_date, total_amount, order_status,
		       COALESCE(shipping_address, ''), COALESCE(payment_method, '')
		FROM orders WHERE order_id = $1`, orderID).
		Scan(&d.Order.ID, &d.Order.CustomerID, &d.Order.OrderDate, &d.Order.TotalAmount,
			&d.Order.Status, &d.Order.ShippingAddress, &d.Order.PaymentMethod)
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, ErrNotFound
	}
	if err != nil {
		return Detail{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT oi.order_item_id, oi.order_id, oi.product_id, p.product_name, oi.quantity, oi.per_unit_price
		FROM order_item oi
		JOIN product p ON p.product_id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.order_item_id`, orderID)
	if err != nil {
		return Detail{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.PerUnitPrice); err != nil {
			return Detail{}, err
		}
		d.Items = append(d.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Detail{}, err
	}

	var txID *string
	err = r.DB.QueryRow(ctx, `
		SELECT payment_id, order_id, payment_date, payment_method, amount, status, transaction_id
		FROM payment WHERE order_id = $1
		ORDER BY payment_id DESC LIMIT 1`, orderID).
		Scan(&d.Payment.ID, &d.Payment.OrderID, &d.Payment.PaymentDate, &d.Payment.Method,
			&d.Payment.Amount, &d.Payment.Status, &txID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, err
	}
	if txID != nil {
		d.Payment.TransactionID = *txID
	}
	return d, nil
}

// Owner returns the customer an order belongs to.
func (r *Repo) Owner(ctx context.Context, orderID int64) (int64, error) {
	var customerID int64
	err := r.DB.QueryRow(ctx, `SELECT customer_id FROM orders WHERE order_id=$1`, orderID).Scan(&customerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return customerID, err
}

func (r *Repo) GetStatus(ctx context.Context, orderID int64) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT order_status FROM orders WHERE order_id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

func (r *Repo) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET order_status=$2 WHERE order_id=$1`, orderID, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
