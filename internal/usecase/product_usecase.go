package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"warehouse_service/internal/domain"
	"warehouse_service/internal/observability"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type ProductUseCase interface {
	CreateProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id int, fields domain.ProductFields) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int, confirmed bool) error
}

type productUseCase struct {
	productRepo  domain.ProductRepository
	categoryRepo domain.CategoryRepository
	log          *logrus.Logger
}

func NewProductUseCase(pRepo domain.ProductRepository, cRepo domain.CategoryRepository, logger *logrus.Logger) ProductUseCase {
	return &productUseCase{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		log:          logger,
	}
}

// validateFields applies the create/update rules and returns the normalised fields.
func (uc *productUseCase) validateFields(ctx context.Context, fields domain.ProductFields) (domain.ProductFields, error) {
	fields.Name = strings.TrimSpace(fields.Name)
	if fields.Name == "" {
		return fields, domain.NewValidationError("name", "product name cannot be empty")
	}
	if fields.Quantity < 0 {
		return fields, domain.NewValidationError("quantity", "cannot be negative, got %d", fields.Quantity)
	}
	if fields.Quantity > domain.MaxQuantity {
		return fields, domain.NewValidationError("quantity", "cannot exceed %d, got %d", domain.MaxQuantity, fields.Quantity)
	}
	if fields.UnitPrice.IsNegative() {
		return fields, domain.NewValidationError("unit_price", "cannot be negative, got %s", fields.UnitPrice.String())
	}
	if fields.UnitPrice.GreaterThan(domain.MaxUnitPrice) {
		return fields, domain.NewValidationError("unit_price", "cannot exceed %s, got %s", domain.MaxUnitPrice.String(), fields.UnitPrice.String())
	}
	if !fields.UnitPrice.Equal(fields.UnitPrice.Truncate(domain.UnitPriceScale)) {
		return fields, domain.NewValidationError("unit_price", "at most %d decimal places, got %s", domain.UnitPriceScale, fields.UnitPrice.String())
	}
	if fields.CategoryID <= 0 {
		return fields, domain.NewValidationError("category_id", "a category must be selected")
	}
	if _, err := uc.categoryRepo.GetCategoryByID(ctx, fields.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fields, domain.NewValidationError("category_id", "category %d does not exist", fields.CategoryID)
		}
		return fields, err
	}
	return fields, nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, fields domain.ProductFields) (product *domain.Product, err error) {
	ctx, span := observability.StartSpan(ctx, "CreateProduct", attribute.String("product.name", fields.Name))
	defer func() { observability.EndSpan(span, err) }()

	fields, err = uc.validateFields(ctx, fields)
	if err != nil {
		uc.log.Warnf("Use Case: Rejected product '%s': %v", fields.Name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Attempting to create product '%s'", fields.Name)
	product, err = uc.productRepo.InsertProduct(ctx, fields)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create product '%s': %v", fields.Name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Product '%s' created with ID %d", product.Name, product.ID)
	return product, nil
}

func (uc *productUseCase) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get product with invalid ID: %d", id)
		return nil, domain.NewValidationError("id", "product id must be positive")
	}
	product, err := uc.productRepo.GetProductByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get product ID %d: %v", id, err)
		return nil, err
	}
	return product, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	filter.NameContains = strings.TrimSpace(filter.NameContains)
	products, err := uc.productRepo.ListProducts(ctx, filter)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list products: %v", err)
		return nil, fmt.Errorf("could not retrieve products: %w", err)
	}
	uc.log.Debugf("Use Case: Retrieved %d products", len(products))
	return products, nil
}

// UpdateProduct replaces every field of the product.
func (uc *productUseCase) UpdateProduct(ctx context.Context, id int, fields domain.ProductFields) (product *domain.Product, err error) {
	ctx, span := observability.StartSpan(ctx, "UpdateProduct", attribute.Int("product.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted update with invalid product ID: %d", id)
		return nil, domain.NewValidationError("id", "product id must be positive")
	}
	fields, err = uc.validateFields(ctx, fields)
	if err != nil {
		uc.log.Warnf("Use Case: Rejected update for product ID %d: %v", id, err)
		return nil, err
	}

	product, err = uc.productRepo.UpdateProduct(ctx, id, fields)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to update product ID %d: %v", id, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Product updated for ID %d", product.ID)
	return product, nil
}

// DeleteProduct removes a product only when the caller has confirmed it.
func (uc *productUseCase) DeleteProduct(ctx context.Context, id int, confirmed bool) (err error) {
	ctx, span := observability.StartSpan(ctx, "DeleteProduct", attribute.Int("product.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted delete with invalid product ID: %d", id)
		return domain.NewValidationError("id", "product id must be positive")
	}
	if !confirmed {
		uc.log.Warnf("Use Case: Delete of product ID %d was not confirmed", id)
		return domain.NewValidationError("confirmed", "deletion must be confirmed")
	}

	if err = uc.productRepo.DeleteProduct(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete product ID %d: %v", id, err)
		return err
	}
	uc.log.Infof("Use Case: Product deleted for ID %d", id)
	return nil
}
