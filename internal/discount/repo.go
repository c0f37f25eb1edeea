package discount

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var (
	ErrCodeNotFound  = errors.New("invalid discount code")
	ErrDuplicateCode = errors.New("discount code already exists")
	ErrNotFound      = errors.New("discount not found")
)

// NormalizeCode upper-cases and trims a code; lookups and storage both
// go through this so matching is case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *Repo) FindByCode(ctx context.Context, code string) (Rule, error) {
	var d Rule
	var categoryID *int64
	err := r.DB.QueryRow(ctx, `
		SELECT discount_id, discount_code, type, value, applicable_to, category_id, start_date, expiry_date
		FROM discount WHERE discount_code = $1`, NormalizeCode(code)).
		Scan(&d.ID, &d.Code, &d.Kind, &d.Value, &d.Scope, &categoryID, &d.StartDate, &d.ExpiryDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, ErrCodeNotFound
	}
	if err != nil {
		return Rule{}, err
	}
	if categoryID != nil {
		d.CategoryID = *categoryID
	}
	return d, nil
}

func (r *Repo) List(ctx context.Context) ([]Rule, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT discount_id, discount_code, type, value, applicable_to, category_id, start_date, expiry_date
		FROM discount ORDER BY discount_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var d Rule
		var categoryID *int64
		if err := rows.Scan(&d.ID, &d.Code, &d.Kind, &d.Value, &d.Scope, &categoryID, &d.StartDate, &d.ExpiryDate); err != nil {
			return nil, err
		}
		if categoryID != nil {
			d.CategoryID = *categoryID
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, d Rule) (int64, error) {
	var categoryID *int64
	if d.Scope == ScopeCategory {
		categoryID = &d.CategoryID
	}
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO discount (discount_code, type, value, applicable_to, category_id, start_date, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING discount_id`,
		NormalizeCode(d.Code), d.Kind, d.Value, d.Scope, categoryID, d.StartDate, d.ExpiryDate).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateCode
		}
		return 0, err
	}
	return id, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM discount WHERE discount_id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
