package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rahulraj2608/gadget-store/internal/redisx"
)

// Applied is the discount currently held against a customer's cart.
type Applied struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// Session holds cart-scoped state that outlives a single request: the
// applied discount. Two states only: no discount, or one applied code.
// Every cart mutation must call Invalidate so the code is re-validated
// against the new contents; checkout calls Invalidate on success.
type Session struct {
	Redis *redis.Client
}

var ErrNoDiscount = errors.New("no discount applied")

func (s *Session) Apply(ctx context.Context, customerID int64, a Applied) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyCartDiscount, customerID)
	return s.Redis.Set(ctx, key, b, redisx.TTLCartDiscount).Err()
}

func (s *Session) Get(ctx context.Context, customerID int64) (Applied, error) {
	key := fmt.Sprintf(redisx.KeyCartDiscount, customerID)
	b, err := s.Redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Applied{}, ErrNoDiscount
	}
	if err != nil {
		return Applied{}, err
	}
	var a Applied
	if err := json.Unmarshal(b, &a); err != nil {
		return Applied{}, err
	}
	return a, nil
}

func (s *Session) Invalidate(ctx context.Context, customerID int64) error {
	key := fmt.Sprintf(redisx.KeyCartDiscount, customerID)
	return s.Redis.Del(ctx, key).Err()
}
