package usecase

import (
	"context"

	"warehouse_service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Snapshot is a consistent listing of both collections plus the derived figures.
type Snapshot struct {
	Categories []domain.Category `json:"categories"`
	Products   []domain.Product  `json:"products"`
	Aggregates domain.Aggregates `json:"aggregates"`
	// CanCreateProduct is false until at least one category exists.
	CanCreateProduct bool `json:"can_create_product"`
}

type InventoryUseCase interface {
	Refresh(ctx context.Context) (*Snapshot, error)
}

type inventoryUseCase struct {
	categoryRepo domain.CategoryRepository
	productRepo  domain.ProductRepository
	log          *logrus.Logger
}

func NewInventoryUseCase(cRepo domain.CategoryRepository, pRepo domain.ProductRepository, logger *logrus.Logger) InventoryUseCase {
	return &inventoryUseCase{
		categoryRepo: cRepo,
		productRepo:  pRepo,
		log:          logger,
	}
}

func (uc *inventoryUseCase) Refresh(ctx context.Context) (*Snapshot, error) {
	categories, err := uc.categoryRepo.ListCategories(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Refresh could not list categories: %v", err)
		return nil, err
	}
	products, err := uc.productRepo.ListProducts(ctx, domain.ProductFilter{})
	if err != nil {
		uc.log.Errorf("Use Case: Refresh could not list products: %v", err)
		return nil, err
	}
	return &Snapshot{
		Categories:       categories,
		Products:         products,
		Aggregates:       ComputeAggregates(products),
		CanCreateProduct: len(categories) > 0,
	}, nil
}

// ComputeAggregates sums quantity and value and counts products below
// domain.LowStockThreshold.
func ComputeAggregates(products []domain.Product) domain.Aggregates {
	agg := domain.Aggregates{TotalValue: decimal.Zero}
	for _, p := range products {
		agg.TotalQuantity += p.Quantity
		agg.TotalValue = agg.TotalValue.Add(p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity))))
		if p.Quantity < domain.LowStockThreshold {
			agg.LowStockCount++
		}
	}
	return agg
}
