package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulraj2608/gadget-store/internal/cart"
	"github.com/rahulraj2608/gadget-store/internal/orders"
)

type stockRow struct {
	price decimal.Decimal
	stock int
}

type recordedItem struct {
	orderID   int64
	productID int64
	quantity  int
	unitPrice decimal.Decimal
}

type recordedPayment struct {
	orderID       int64
	method        string
	amount        decimal.Decimal
	status        orders.PaymentStatus
	transactionID string
}

// memStore commits the staged transaction state only when fn returns
// nil, mirroring the rollback behavior of the real store.
type memStore struct {
	products map[int64]stockRow

	nextOrderID int64
	orders      []int64
	items       []recordedItem
	payments    []recordedPayment
	cartsClear  []int64

	txCalls int
}

type memTx struct {
	store *memStore

	products  map[int64]stockRow
	orders    []int64
	items     []recordedItem
	payments  []recordedPayment
	cartClear []int64
}

func newMemStore(products map[int64]stockRow) *memStore {
	return &memStore{products: products, nextOrderID: 100}
}

func (s *memStore) InTx(_ context.Context, fn func(Tx) error) error {
	s.txCalls++
	tx := &memTx{store: s, products: make(map[int64]stockRow, len(s.products))}
	for id, row := range s.products {
		tx.products[id] = row
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.products = tx.products
	s.orders = append(s.orders, tx.orders...)
	s.items = append(s.items, tx.items...)
	s.payments = append(s.payments, tx.payments...)
	s.cartsClear = append(s.cartsClear, tx.cartClear...)
	return nil
}

func (t *memTx) ProductForUpdate(_ context.Context, productID int64) (decimal.Decimal, int, error) {
	row := t.products[productID]
	return row.price, row.stock, nil
}

func (t *memTx) InsertOrder(_ context.Context, _ int64, _ decimal.Decimal, _, _ string) (int64, error) {
	t.store.nextOrderID++
	t.orders = append(t.orders, t.store.nextOrderID)
	return t.store.nextOrderID, nil
}

func (t *memTx) InsertOrderItem(_ context.Context, orderID, productID int64, quantity int, unitPrice decimal.Decimal) error {
	t.items = append(t.items, recordedItem{orderID, productID, quantity, unitPrice})
	return nil
}

func (t *memTx) DecrementStock(_ context.Context, productID int64, quantity int) error {
	row := t.products[productID]
	row.stock -= quantity
	t.products[productID] = row
	return nil
}

func (t *memTx) InsertPayment(_ context.Context, orderID int64, method string, amount decimal.Decimal, status orders.PaymentStatus, transactionID string) error {
	t.payments = append(t.payments, recordedPayment{orderID, method, amount, status, transactionID})
	return nil
}

func (t *memTx) ClearCart(_ context.Context, customerID int64) error {
	t.cartClear = append(t.cartClear, customerID)
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func cartLine(productID int64, price string, qty int) cart.Line {
	return cart.Line{ProductID: productID, UnitPrice: dec(price), Quantity: qty}
}

func validInput(lines ...cart.Line) Input {
	return Input{
		CustomerID:      7,
		Lines:           lines,
		ShippingAddress: "12 Station Road, Dhaka",
		PaymentMethod:   PaymentCashOnDelivery,
		TotalAmount:     dec("93.00"),
	}
}

func TestCheckout_Success(t *testing.T) {
	store := newMemStore(map[int64]stockRow{
		1: {price: dec("40.00"), stock: 10},
		2: {price: dec("25.50"), stock: 3},
	})
	p := &Processor{Store: store}

	// stale cart price for product 1; the stored row must win
	in := validInput(cartLine(1, "35.00", 2), cartLine(2, "25.50", 1))
	orderID, err := p.Checkout(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, int64(101), orderID)
	require.Len(t, store.items, 2)
	assert.True(t, store.items[0].unitPrice.Equal(dec("40.00")),
		"order item must snapshot the authoritative price, got %s", store.items[0].unitPrice)
	assert.Equal(t, 8, store.products[1].stock)
	assert.Equal(t, 2, store.products[2].stock)
	assert.Equal(t, []int64{7}, store.cartsClear)
}

func TestCheckout_InsufficientStockRollsBackEverything(t *testing.T) {
	store := newMemStore(map[int64]stockRow{
		1: {price: dec("10.00"), stock: 5},
		2: {price: dec("20.00"), stock: 1},
		3: {price: dec("30.00"), stock: 5},
	})
	p := &Processor{Store: store}

	// shortfall on the second of three lines, after the first line has
	// already been written inside the transaction
	in := validInput(cartLine(1, "10.00", 2), cartLine(2, "20.00", 4), cartLine(3, "30.00", 1))
	_, err := p.Checkout(context.Background(), in)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.ProductID)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
	assert.Empty(t, store.payments)
	assert.Empty(t, store.cartsClear)
	assert.Equal(t, 5, store.products[1].stock, "stock must be untouched after rollback")
}

func TestCheckout_PaymentStatusByMethod(t *testing.T) {
	t.Run("cash on delivery stays pending", func(t *testing.T) {
		store := newMemStore(map[int64]stockRow{1: {price: dec("10.00"), stock: 5}})
		p := &Processor{Store: store}

		_, err := p.Checkout(context.Background(), validInput(cartLine(1, "10.00", 1)))

		require.NoError(t, err)
		require.Len(t, store.payments, 1)
		assert.Equal(t, orders.PaymentPending, store.payments[0].status)
		assert.Empty(t, store.payments[0].transactionID)
	})

	t.Run("upfront method completes with transaction id", func(t *testing.T) {
		store := newMemStore(map[int64]stockRow{1: {price: dec("10.00"), stock: 5}})
		p := &Processor{Store: store}

		in := validInput(cartLine(1, "10.00", 1))
		in.PaymentMethod = "Bkash"
		in.TransactionID = "TXN-998877"
		_, err := p.Checkout(context.Background(), in)

		require.NoError(t, err)
		require.Len(t, store.payments, 1)
		assert.Equal(t, orders.PaymentCompleted, store.payments[0].status)
		assert.Equal(t, "TXN-998877", store.payments[0].transactionID)
	})
}

func TestCheckout_ValidationBeforeAnyWrite(t *testing.T) {
	store := newMemStore(map[int64]stockRow{1: {price: dec("10.00"), stock: 5}})
	p := &Processor{Store: store}

	in := validInput(cartLine(1, "10.00", 1))
	in.ShippingAddress = ""
	_, err := p.Checkout(context.Background(), in)
	assert.ErrorIs(t, err, ErrMissingAddress)

	in = validInput(cartLine(1, "10.00", 1))
	in.PaymentMethod = "Bkash"
	in.TransactionID = ""
	_, err = p.Checkout(context.Background(), in)
	assert.ErrorIs(t, err, ErrMissingTransactionID)

	in = validInput()
	_, err = p.Checkout(context.Background(), in)
	assert.ErrorIs(t, err, ErrEmptyCart)

	assert.Zero(t, store.txCalls, "validation failures must not open a transaction")
}
