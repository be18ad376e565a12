package usecase

import (
	"context"
	"fmt"
	"strings"

	"warehouse_service/internal/domain"
	"warehouse_service/internal/observability"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type CategoryUseCase interface {
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

type categoryUseCase struct {
	categoryRepo domain.CategoryRepository
	productRepo  domain.ProductRepository
	log          *logrus.Logger
}

func NewCategoryUseCase(cRepo domain.CategoryRepository, pRepo domain.ProductRepository, logger *logrus.Logger) CategoryUseCase {
	return &categoryUseCase{
		categoryRepo: cRepo,
		productRepo:  pRepo,
		log:          logger,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, name, description string) (category *domain.Category, err error) {
	ctx, span := observability.StartSpan(ctx, "CreateCategory", attribute.String("category.name", name))
	defer func() { observability.EndSpan(span, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		uc.log.Warn("Use Case: Attempted to create category with empty name")
		return nil, domain.NewValidationError("name", "category name cannot be empty")
	}

	uc.log.Infof("Use Case: Attempting to create category with name '%s'", name)
	category, err = uc.categoryRepo.InsertCategory(ctx, name, strings.TrimSpace(description))
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create category '%s': %v", name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Category '%s' created with ID %d", category.Name, category.ID)
	return category, nil
}

func (uc *categoryUseCase) GetCategoryByID(ctx context.Context, id int) (*domain.Category, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get category with invalid ID: %d", id)
		return nil, domain.NewValidationError("id", "category id must be positive")
	}
	category, err := uc.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get category ID %d: %v", id, err)
		return nil, err
	}
	return category, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := uc.categoryRepo.ListCategories(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list categories: %v", err)
		return nil, fmt.Errorf("could not retrieve categories: %w", err)
	}
	uc.log.Debugf("Use Case: Retrieved %d categories", len(categories))
	return categories, nil
}

// DeleteCategory refuses while products reference the category. The count is
// only used for the message; the repository delete re-checks atomically.
func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id int) (err error) {
	ctx, span := observability.StartSpan(ctx, "DeleteCategory", attribute.Int("category.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted delete with invalid category ID: %d", id)
		return domain.NewValidationError("id", "category id must be positive")
	}

	count, err := uc.productRepo.CountProductsInCategory(ctx, id)
	if err != nil {
		uc.log.Errorf("Use Case: Could not count products of category ID %d: %v", id, err)
		return err
	}
	if count > 0 {
		uc.log.Warnf("Use Case: Category ID %d still has %d products, refusing delete", id, count)
		return &domain.ConstraintError{Message: fmt.Sprintf("category %d cannot be deleted: %d products are assigned to it", id, count)}
	}

	if err = uc.categoryRepo.DeleteCategory(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete category ID %d: %v", id, err)
		return err
	}

	uc.log.Infof("Use Case: Category deleted for ID %d", id)
	return nil
}
