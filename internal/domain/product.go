package domain

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the quantity below which a product counts as low stock.
const LowStockThreshold = 5

// Limits shared by every storage backend: quantity is a Postgres INTEGER and
// unit_price a NUMERIC(12,2).
const (
	MaxQuantity    = math.MaxInt32
	UnitPriceScale = 2
)

var MaxUnitPrice = decimal.RequireFromString("9999999999.99")

type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	CategoryID   int             `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// ProductFields is the full set of writable product fields.
type ProductFields struct {
	Name       string          `json:"name"`
	CategoryID int             `json:"category_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type ProductFilter struct {
	CategoryID   int
	NameContains string
}

// ProductRepository persists products. Quantity changes go through
// DecreaseQuantityIfEnough and IncreaseQuantity, which apply the change in a
// single conditional update so concurrent callers cannot lose writes.
// IncreaseQuantity refuses to go above MaxQuantity.
type ProductRepository interface {
	InsertProduct(ctx context.Context, fields ProductFields) (*Product, error)
	GetProductByID(ctx context.Context, id int) (*Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	UpdateProduct(ctx context.Context, id int, fields ProductFields) (*Product, error)
	DeleteProduct(ctx context.Context, id int) error
	CountProductsInCategory(ctx context.Context, categoryID int) (int, error)
	DecreaseQuantityIfEnough(ctx context.Context, id, amount int) (*Product, error)
	IncreaseQuantity(ctx context.Context, id, amount int) (*Product, error)
}

type Aggregates struct {
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LowStockCount int             `json:"low_stock_count"`
}
