package customers

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type Customer struct {
	ID          int64     `json:"customer_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Address     string    `json:"address,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("customer not found")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Register(ctx context.Context, c Customer, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.DB.QueryRow(ctx, `
		INSERT INTO customer (first_name, last_name, email, password, phone_number, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING customer_id`,
		c.FirstName, c.LastName, c.Email, string(hash), c.PhoneNumber, c.Address).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return id, nil
}

func (r *Repo) Authenticate(ctx context.Context, email, password string) (Customer, error) {
	var c Customer
	var hash string
	err := r.DB.QueryRow(ctx, `
		SELECT customer_id, first_name, last_name, email, password, is_admin, created_at
		FROM customer WHERE email = $1`, email).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &hash, &c.IsAdmin, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrInvalidCredentials
	}
	if err != nil {
		return Customer{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Customer{}, ErrInvalidCredentials
	}
	return c, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.DB.QueryRow(ctx, `
		SELECT customer_id, first_name, last_name, email,
		       COALESCE(phone_number, ''), COALESCE(address, ''), is_admin, created_at
		FROM customer WHERE customer_id = $1`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.Address, &c.IsAdmin, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}
