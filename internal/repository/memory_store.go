package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"warehouse_service/internal/domain"
)

// MemoryStore keeps categories and products in process memory. It satisfies
// both repository interfaces and enforces the same constraints as the SQL
// schema, which makes it suitable for tests and for the "memory" driver.
type MemoryStore struct {
	mu             sync.Mutex
	categories     map[int]domain.Category
	products       map[int]domain.Product
	nextCategoryID int
	nextProductID  int
}

var (
	_ domain.CategoryRepository = (*MemoryStore)(nil)
	_ domain.ProductRepository  = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories:     make(map[int]domain.Category),
		products:       make(map[int]domain.Product),
		nextCategoryID: 1,
		nextProductID:  1,
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) InsertCategory(_ context.Context, name, description string) (*domain.Category, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	category := domain.Category{ID: s.nextCategoryID, Name: name, Description: description}
	s.categories[category.ID] = category
	s.nextCategoryID++
	return &category, nil
}

func (s *MemoryStore) GetCategoryByID(_ context.Context, id int) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category with id %d: %w", id, domain.ErrNotFound)
	}
	return &category, nil
}

func (s *MemoryStore) ListCategories(context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (s *MemoryStore) DeleteCategory(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category with id %d: %w", id, domain.ErrNotFound)
	}
	if s.countLocked(id) > 0 {
		return &domain.ConstraintError{Message: fmt.Sprintf("category %d still has products assigned", id)}
	}
	delete(s.categories, id)
	return nil
}

func (s *MemoryStore) countLocked(categoryID int) int {
	n := 0
	for _, p := range s.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n
}

func (s *MemoryStore) withCategoryName(p domain.Product) *domain.Product {
	p.CategoryName = s.categories[p.CategoryID].Name
	return &p
}

func (s *MemoryStore) checkFieldsLocked(fields domain.ProductFields) error {
	if _, ok := s.categories[fields.CategoryID]; !ok {
		return domain.NewValidationError("category_id", "category %d does not exist", fields.CategoryID)
	}
	if fields.Quantity < 0 || fields.Quantity > domain.MaxQuantity || fields.UnitPrice.IsNegative() || fields.Name == "" {
		return domain.NewValidationError("", "product data constraint violation")
	}
	return nil
}

func (s *MemoryStore) InsertProduct(_ context.Context, fields domain.ProductFields) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFieldsLocked(fields); err != nil {
		return nil, err
	}
	product := domain.Product{
		ID:         s.nextProductID,
		Name:       fields.Name,
		CategoryID: fields.CategoryID,
		Quantity:   fields.Quantity,
		UnitPrice:  fields.UnitPrice,
	}
	s.products[product.ID] = product
	s.nextProductID++
	return s.withCategoryName(product), nil
}

func (s *MemoryStore) GetProductByID(_ context.Context, id int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	return s.withCategoryName(product), nil
}

func (s *MemoryStore) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(filter.NameContains)
	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.CategoryID > 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		products = append(products, *s.withCategoryName(p))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, id int, fields domain.ProductFields) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	if err := s.checkFieldsLocked(fields); err != nil {
		return nil, err
	}
	product.Name = fields.Name
	product.CategoryID = fields.CategoryID
	product.Quantity = fields.Quantity
	product.UnitPrice = fields.UnitPrice
	s.products[id] = product
	return s.withCategoryName(product), nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) CountProductsInCategory(_ context.Context, categoryID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(categoryID), nil
}

func (s *MemoryStore) DecreaseQuantityIfEnough(_ context.Context, id, amount int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	if amount > product.Quantity {
		return nil, domain.NewValidationError("amount", "cannot issue %d units, only %d in stock", amount, product.Quantity)
	}
	product.Quantity -= amount
	s.products[id] = product
	return s.withCategoryName(product), nil
}

func (s *MemoryStore) IncreaseQuantity(_ context.Context, id, amount int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	if ceiling, ok := receiveCeiling(amount); !ok || product.Quantity > ceiling {
		return nil, exceedsCapacity(amount)
	}
	product.Quantity += amount
	s.products[id] = product
	return s.withCategoryName(product), nil
}
