package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("name already exists")
)

// translateErr maps unique violations to ErrDuplicate so handlers
// can answer 409 without leaking SQL details.
func translateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.product_id, p.product_name, p.description, p.price, p.stock_quantity,
		       p.brand_id, p.category_id, p.supplier_id, p.created_at,
		       b.brand_name, c.category_name
		FROM product p
		JOIN brand b ON b.brand_id = p.brand_id
		JOIN category c ON c.category_id = p.category_id
		ORDER BY p.product_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
			&p.BrandID, &p.CategoryID, &p.SupplierID, &p.CreatedAt,
			&p.BrandName, &p.CategoryName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT p.product_id, p.product_name, p.description, p.price, p.stock_quantity,
		       p.brand_id, p.category_id, p.supplier_id, p.created_at,
		       b.brand_name, c.category_name
		FROM product p
		JOIN brand b ON b.brand_id = p.brand_id
		JOIN category c ON c.category_id = p.category_id
		WHERE p.product_id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
			&p.BrandID, &p.CategoryID, &p.SupplierID, &p.CreatedAt,
			&p.BrandName, &p.CategoryName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) CreateProduct(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO product (product_name, description, price, stock_quantity, brand_id, category_id, supplier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING product_id`,
		p.Name, p.Description, p.Price, p.StockQuantity, p.BrandID, p.CategoryID, p.SupplierID).Scan(&id)
	if err != nil {
		return 0, translateErr(err)
	}
	return id, nil
}

func (r *Repo) UpdateProduct(ctx context.Context, p Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE product
		SET product_name=$2, description=$3, price=$4, stock_quantity=$5,
		    brand_id=$6, category_id=$7, supplier_id=$8
		WHERE product_id=$1`,
		p.ID, p.Name, p.Description, p.Price, p.StockQuantity, p.BrandID, p.CategoryID, p.SupplierID)
	if err != nil {
		return translateErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM product WHERE product_id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := r.DB.Query(ctx, `SELECT brand_id, brand_name FROM brand ORDER BY brand_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) CreateBrand(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `INSERT INTO brand (brand_name) VALUES ($1) RETURNING brand_id`, name).Scan(&id)
	if err != nil {
		return 0, translateErr(err)
	}
	return id, nil
}

func (r *Repo) DeleteBrand(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM brand WHERE brand_id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT category_id, category_name FROM category ORDER BY category_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) CreateCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `INSERT INTO category (category_name) VALUES ($1) RETURNING category_id`, name).Scan(&id)
	if err != nil {
		return 0, translateErr(err)
	}
	return id, nil
}

func (r *Repo) DeleteCategory(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM category WHERE category_id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
