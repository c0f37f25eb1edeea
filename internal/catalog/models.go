package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `json:"product_id"`
	Name          string          `json:"product_name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	BrandID       int64           `json:"brand_id"`
	CategoryID    int64           `json:"category_id"`
	SupplierID    int64           `json:"supplier_id"`
	CreatedAt     time.Time       `json:"created_at"`

	// Joined for listings.
	BrandName    string `json:"brand_name,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

type Brand struct {
	ID   int64  `json:"brand_id"`
	Name string `json:"brand_name"`
}

type Category struct {
	ID   int64  `json:"category_id"`
	Name string `json:"category_name"`
}
