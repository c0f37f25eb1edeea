package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var ErrLineNotFound = errors.New("cart line not found")

type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (r *Repo) Lines(ctx context.Context, customerID int64) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.cart_id, c.product_id, p.product_name, p.price, c.quantity, p.category_id
		FROM cart c
		JOIN product p ON p.product_id = c.product_id
		WHERE c.customer_id = $1
		ORDER BY c.cart_id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.CartID, &l.ProductID, &l.ProductName, &l.UnitPrice, &l.Quantity, &l.CategoryID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Add puts a product in the cart, folding quantity into an existing line.
// The combined quantity may not exceed current stock.
func (r *Repo) Add(ctx context.Context, customerID, productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	var stock int
	err := r.DB.QueryRow(ctx, `SELECT stock_quantity FROM product WHERE product_id=$1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("product not found: %d", productID)
	}
	if err != nil {
		return err
	}

	var existing int
	err = r.DB.QueryRow(ctx, `SELECT quantity FROM cart WHERE customer_id=$1 AND product_id=$2`,
		customerID, productID).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if existing+quantity > stock {
		return &InsufficientStockError{ProductID: productID, Requested: existing + quantity, Available: stock}
	}

	_, err = r.DB.Exec(ctx, `
		INSERT INTO cart (customer_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, product_id)
		DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity`,
		customerID, productID, quantity)
	return err
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (r *Repo) UpdateQuantity(ctx context.Context, customerID, cartID int64, quantity int) error {
	if quantity <= 0 {
		return r.Remove(ctx, customerID, cartID)
	}
	ct, err := r.DB.Exec(ctx, `UPDATE cart SET quantity=$3 WHERE cart_id=$1 AND customer_id=$2`,
		cartID, customerID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, customerID, cartID int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM cart WHERE cart_id=$1 AND customer_id=$2`, cartID, customerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, customerID int64) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart WHERE customer_id=$1`, customerID)
	return err
}
