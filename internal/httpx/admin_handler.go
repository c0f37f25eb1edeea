package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/rahulraj2608/gadget-store/internal/auth"
	"github.com/rahulraj2608/gadget-store/internal/catalog"
	"github.com/rahulraj2608/gadget-store/internal/discount"
	kafkax "github.com/rahulraj2608/gadget-store/internal/kafka"
	"github.com/rahulraj2608/gadget-store/internal/orders"
	"github.com/rahulraj2608/gadget-store/internal/redisx"
)

// AdminHandler serves the back office: catalog and discount management
// plus the order pipeline.
type AdminHandler struct {
	Catalog   *catalog.Repo
	Discounts *discount.Repo
	Orders    *orders.Repo
	Producer  *kafkax.Producer // order.status.changed
	Redis     *redis.Client
	JWTSecret string
	Service   string
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Middleware(h.JWTSecret))
		r.Use(auth.RequireAdmin)

		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)

		r.Post("/brands", h.createBrand)
		r.Delete("/brands/{id}", h.deleteBrand)
		r.Post("/categories", h.createCategory)
		r.Delete("/categories/{id}", h.deleteCategory)

		r.Get("/discounts", h.listDiscounts)
		r.Post("/discounts", h.createDiscount)
		r.Delete("/discounts/{id}", h.deleteDiscount)

		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.orderDetail)
		r.Put("/orders/{id}/status", h.updateOrderStatus)
	})
}

type productReq struct {
	Name          string          `json:"product_name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	BrandID       int64           `json:"brand_id"`
	CategoryID    int64           `json:"category_id"`
	SupplierID    int64           `json:"supplier_id"`
}

func (p productReq) validate() error {
	if p.Name == "" {
		return errors.New("product name is required")
	}
	if p.Price.LessThanOrEqual(decimal.Zero) {
		return errors.New("price must be positive")
	}
	if p.StockQuantity < 0 {
		return errors.New("stock quantity cannot be negative")
	}
	if p.BrandID == 0 || p.CategoryID == 0 || p.SupplierID == 0 {
		return errors.New("brand, category and supplier are required")
	}
	return nil
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.Catalog.CreateProduct(r.Context(), catalog.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		BrandID:       req.BrandID,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
	})
	if errors.Is(err, catalog.ErrDuplicate) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("create product failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create product")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"product_id": id})
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.Catalog.UpdateProduct(r.Context(), catalog.Product{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		BrandID:       req.BrandID,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
	})
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, catalog.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "could not update product")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "product updated"})
	}
}

func (h *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.Catalog.DeleteProduct, "product")
}

func (h *AdminHandler) createBrand(w http.ResponseWriter, r *http.Request) {
	h.createNamed(w, r, "brand_name", func(ctx context.Context, name string) (int64, error) {
		return h.Catalog.CreateBrand(ctx, name)
	}, "brand_id")
}

func (h *AdminHandler) deleteBrand(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.Catalog.DeleteBrand, "brand")
}

func (h *AdminHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	h.createNamed(w, r, "category_name", func(ctx context.Context, name string) (int64, error) {
		return h.Catalog.CreateCategory(ctx, name)
	}, "category_id")
}

func (h *AdminHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.Catalog.DeleteCategory, "category")
}

func (h *AdminHandler) createNamed(w http.ResponseWriter, r *http.Request, field string,
	create func(context.Context, string) (int64, error), idField string) {

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	name := strings.TrimSpace(body[field])
	if name == "" {
		writeError(w, http.StatusBadRequest, field+" is required")
		return
	}
	id, err := create(r.Context(), name)
	if errors.Is(err, catalog.ErrDuplicate) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{idField: id})
}

func (h *AdminHandler) deleteByID(w http.ResponseWriter, r *http.Request,
	del func(context.Context, int64) error, what string) {

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	err = del(r.Context(), id)
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, discount.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "delete failed")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": what + " deleted"})
	}
}

func (h *AdminHandler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Discounts.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load discounts")
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

type discountReq struct {
	Code       string          `json:"discount_code"`
	Kind       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	Scope      string          `json:"applicable_to"`
	CategoryID int64           `json:"category_id"`
	StartDate  string          `json:"start_date"`  // YYYY-MM-DD
	ExpiryDate string          `json:"expiry_date"` // YYYY-MM-DD
}

func (h *AdminHandler) createDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	rule, err := buildDiscountRule(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.Discounts.Create(r.Context(), rule)
	if errors.Is(err, discount.ErrDuplicateCode) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create discount")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"discount_id": id})
}

func buildDiscountRule(req discountReq) (discount.Rule, error) {
	if discount.NormalizeCode(req.Code) == "" {
		return discount.Rule{}, errors.New("discount code is required")
	}
	kind := discount.Kind(req.Kind)
	if kind != discount.KindPercentage && kind != discount.KindFixedAmount {
		return discount.Rule{}, errors.New("type must be percentage or fixed_amount")
	}
	if req.Value.LessThanOrEqual(decimal.Zero) {
		return discount.Rule{}, errors.New("value must be positive")
	}
	if kind == discount.KindPercentage && req.Value.GreaterThan(decimal.NewFromInt(100)) {
		return discount.Rule{}, errors.New("percentage cannot exceed 100")
	}
	scope := discount.Scope(req.Scope)
	if scope != discount.ScopeAll && scope != discount.ScopeCategory {
		return discount.Rule{}, errors.New("applicable_to must be all or category")
	}
	if scope == discount.ScopeCategory && req.CategoryID == 0 {
		return discount.Rule{}, errors.New("category_id is required for a category discount")
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return discount.Rule{}, errors.New("start_date must be YYYY-MM-DD")
	}
	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return discount.Rule{}, errors.New("expiry_date must be YYYY-MM-DD")
	}
	if expiry.Before(start) {
		return discount.Rule{}, errors.New("expiry_date cannot be before start_date")
	}
	return discount.Rule{
		Code:       req.Code,
		Kind:       kind,
		Value:      req.Value,
		Scope:      scope,
		CategoryID: req.CategoryID,
		StartDate:  start,
		ExpiryDate: expiry,
	}, nil
}

func (h *AdminHandler) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.Discounts.Delete, "discount")
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	var filter orders.Status
	if f := r.URL.Query().Get("status"); f != "" && f != "all" {
		parsed, err := orders.ParseStatus(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter = parsed
	}
	sortBy := r.URL.Query().Get("sort")
	asc := strings.EqualFold(r.URL.Query().Get("dir"), "asc")

	os, err := h.Orders.ListAll(r.Context(), filter, sortBy, asc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load orders")
		return
	}
	writeJSON(w, http.StatusOK, os)
}

// orderDetail is the invoice view: frozen lines, their subtotal, and
// tax derived from the stored total so later price edits cannot drift
// the figures.
func (h *AdminHandler) orderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	d, err := h.Orders.Get(r.Context(), id)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order":          d.Order,
		"items":          d.Items,
		"payment":        d.Payment,
		"items_subtotal": d.ItemsSubtotal(),
	})
}

func (h *AdminHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	status, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	d, err := h.Orders.Get(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load order")
		return
	}

	if err := h.Orders.UpdateStatus(ctx, id, status); err != nil {
		slog.Error("status update failed", "order_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not update status")
		return
	}

	// committed; cache refresh and the notification event are best-effort
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	b, _ := json.Marshal(map[string]any{"status": status})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       middleware.GetReqID(r.Context()),
		CorrelationID: strconv.FormatInt(id, 10),
		Payload: kafkax.MustMarshal(orders.OrderStatusChangedPayload{
			OrderID:    id,
			CustomerID: d.Order.CustomerID,
			NewStatus:  status,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(id), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusOK, map[string]any{"order_id": id, "status": status})
}
