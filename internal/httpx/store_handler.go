package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/rahulraj2608/gadget-store/internal/auth"
	"github.com/rahulraj2608/gadget-store/internal/cart"
	"github.com/rahulraj2608/gadget-store/internal/catalog"
	"github.com/rahulraj2608/gadget-store/internal/checkout"
	"github.com/rahulraj2608/gadget-store/internal/config"
	"github.com/rahulraj2608/gadget-store/internal/customers"
	"github.com/rahulraj2608/gadget-store/internal/discount"
	kafkax "github.com/rahulraj2608/gadget-store/internal/kafka"
	"github.com/rahulraj2608/gadget-store/internal/orders"
	"github.com/rahulraj2608/gadget-store/internal/redisx"
)

// CartStore is the slice of the cart repo the storefront needs.
type CartStore interface {
	Lines(ctx context.Context, customerID int64) ([]cart.Line, error)
	Add(ctx context.Context, customerID, productID int64, quantity int) error
	UpdateQuantity(ctx context.Context, customerID, cartID int64, quantity int) error
	Remove(ctx context.Context, customerID, cartID int64) error
}

type DiscountFinder interface {
	FindByCode(ctx context.Context, code string) (discount.Rule, error)
}

type OrderReader interface {
	ListByCustomer(ctx context.Context, customerID int64) ([]orders.Order, error)
	Get(ctx context.Context, orderID int64) (orders.Detail, error)
	GetStatus(ctx context.Context, orderID int64) (orders.Status, error)
	Owner(ctx context.Context, orderID int64) (int64, error)
}

// StoreHandler serves the customer-facing storefront: catalog browsing,
// cart, discount application, checkout and order tracking.
type StoreHandler struct {
	Catalog   *catalog.Repo
	Customers *customers.Repo
	Cart      CartStore
	Session   *cart.Session
	Discounts DiscountFinder
	Orders    OrderReader
	Processor *checkout.Processor
	Producer  *kafkax.Producer // order.placed
	Redis     *redis.Client
	Cfg       config.Config
}

func (h *StoreHandler) Register(r *chi.Mux) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/brands", h.listBrands)
	r.Get("/categories", h.listCategories)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.Cfg.JWTSecret))
		r.Get("/cart", h.viewCart)
		r.Post("/cart/items", h.addToCart)
		r.Put("/cart/items/{cartID}", h.updateCartLine)
		r.Delete("/cart/items/{cartID}", h.removeCartLine)
		r.Post("/cart/discount", h.applyDiscount)
		r.Post("/checkout", h.doCheckout)
		r.Get("/orders", h.myOrders)
		r.Get("/orders/{id}", h.orderDetail)
		r.Get("/orders/{id}/status", h.orderStatus)
	})
}

type registerReq struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

func (h *StoreHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Customers.Register(ctx, customers.Customer{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	}, req.Password)
	if errors.Is(err, customers.ErrEmailTaken) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("register failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"customer_id": id})
}

func (h *StoreHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cust, err := h.Customers.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, customers.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		slog.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := auth.NewToken(h.Cfg.JWTSecret, cust.ID, cust.IsAdmin, 24*time.Hour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "customer_id": cust.ID, "is_admin": cust.IsAdmin})
}

func (h *StoreHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.ListProducts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load products")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *StoreHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := h.Catalog.GetProduct(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *StoreHandler) listBrands(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Catalog.ListBrands(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load brands")
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (h *StoreHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load categories")
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

type cartView struct {
	Lines    []cart.Line     `json:"lines"`
	Discount *cart.Applied   `json:"discount,omitempty"`
	Totals   checkout.Totals `json:"totals"`
}

// cartState loads the lines and the still-applied discount and computes
// display totals; checkout reuses the same figures.
func (h *StoreHandler) cartState(ctx context.Context, customerID int64) (cartView, error) {
	lines, err := h.Cart.Lines(ctx, customerID)
	if err != nil {
		return cartView{}, err
	}

	view := cartView{Lines: lines}
	amount := decimal.Zero
	if applied, err := h.Session.Get(ctx, customerID); err == nil {
		view.Discount = &applied
		amount = applied.Amount
	} else if !errors.Is(err, cart.ErrNoDiscount) {
		return cartView{}, err
	}

	view.Totals = checkout.ComputeTotals(lines, amount, h.Cfg.ShippingFee, h.Cfg.TaxRate)
	return view, nil
}

func (h *StoreHandler) viewCart(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	view, err := h.cartState(r.Context(), ac.CustomerID)
	if err != nil {
		slog.Error("load cart failed", "customer_id", ac.CustomerID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load cart")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *StoreHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	err := h.Cart.Add(r.Context(), ac.CustomerID, req.ProductID, req.Quantity)
	var stockErr *cart.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeError(w, http.StatusConflict, stockErr.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// cart changed: any applied discount must be re-validated
	_ = h.Session.Invalidate(r.Context(), ac.CustomerID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "added to cart"})
}

func (h *StoreHandler) updateCartLine(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	cartID, err := strconv.ParseInt(chi.URLParam(r, "cartID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cart id")
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.Cart.UpdateQuantity(r.Context(), ac.CustomerID, cartID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "could not update cart")
		return
	}
	_ = h.Session.Invalidate(r.Context(), ac.CustomerID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart updated"})
}

func (h *StoreHandler) removeCartLine(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	cartID, err := strconv.ParseInt(chi.URLParam(r, "cartID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cart id")
		return
	}
	if err := h.Cart.Remove(r.Context(), ac.CustomerID, cartID); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "could not update cart")
		return
	}
	_ = h.Session.Invalidate(r.Context(), ac.CustomerID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}

func (h *StoreHandler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "please enter a discount code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// a fresh attempt always clears the previous application first
	_ = h.Session.Invalidate(ctx, ac.CustomerID)

	rule, err := h.Discounts.FindByCode(ctx, req.Code)
	if errors.Is(err, discount.ErrCodeNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not look up discount")
		return
	}

	lines, err := h.Cart.Lines(ctx, ac.CustomerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load cart")
		return
	}

	applied, err := discount.Evaluate(lines, rule, time.Now())
	if err != nil {
		// OutOfWindow / NotApplicable are user-facing messages
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.Session.Apply(ctx, ac.CustomerID, cart.Applied{Code: applied.Code, Amount: applied.Amount}); err != nil {
		writeError(w, http.StatusInternalServerError, "could not save discount")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"code":   applied.Code,
		"amount": applied.Amount,
	})
}

type checkoutReq struct {
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
	TransactionID   string `json:"transaction_id"`
}

func (h *StoreHandler) doCheckout(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	view, err := h.cartState(ctx, ac.CustomerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load cart")
		return
	}

	orderID, err := h.Processor.Checkout(ctx, checkout.Input{
		CustomerID:      ac.CustomerID,
		Lines:           view.Lines,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TransactionID:   req.TransactionID,
		TotalAmount:     view.Totals.Total,
	})
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	// order committed; everything below is best-effort
	_ = h.Session.Invalidate(ctx, ac.CustomerID)
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, statusKey, `{"status":"pending"}`, redisx.TTLStatusCache).Err()
	h.publishOrderPlaced(r, orderID, ac.CustomerID, view, req.PaymentMethod)

	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id": orderID,
		"totals":   view.Totals,
	})
}

func (h *StoreHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	var stockErr *checkout.InsufficientStockError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrMissingAddress),
		errors.Is(err, checkout.ErrMissingTransactionID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, stockErr.Error())
	default:
		// persistence details stay in the log, not the response
		slog.Error("checkout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "checkout failed, please try again")
	}
}

func (h *StoreHandler) publishOrderPlaced(r *http.Request, orderID, customerID int64, view cartView, paymentMethod string) {
	items := make([]orders.PlacedItem, 0, len(view.Lines))
	for _, l := range view.Lines {
		items = append(items, orders.PlacedItem{
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			Quantity:     l.Quantity,
			PerUnitPrice: l.UnitPrice,
		})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Cfg.ServiceName,
		TraceID:       middleware.GetReqID(r.Context()),
		CorrelationID: strconv.FormatInt(orderID, 10),
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:       orderID,
			CustomerID:    customerID,
			Items:         items,
			TotalAmount:   view.Totals.Total,
			PaymentMethod: paymentMethod,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *StoreHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	os, err := h.Orders.ListByCustomer(r.Context(), ac.CustomerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load orders")
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *StoreHandler) orderDetail(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	d, err := h.Orders.Get(r.Context(), id)
	if errors.Is(err, orders.ErrNotFound) || (err == nil && d.Order.CustomerID != ac.CustomerID && !ac.IsAdmin) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load order")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *StoreHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// ownership is checked before the cache so the cached status is not
	// readable across customers
	if !ac.IsAdmin {
		owner, err := h.Orders.Owner(ctx, id)
		if err != nil || owner != ac.CustomerID {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	status, err := h.Orders.GetStatus(ctx, id)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	b, _ := json.Marshal(map[string]any{"status": status})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
