package repository

import (
	"context"
	"errors"
	"fmt"

	"warehouse_service/internal/domain"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type categoryRecord struct {
	ID          int    `gorm:"primaryKey"`
	Name        string `gorm:"not null;check:category_name_not_empty,name <> ''"`
	Description string `gorm:"not null;default:''"`
}

func (categoryRecord) TableName() string { return "categories" }

type productRecord struct {
	ID         int             `gorm:"primaryKey"`
	Name       string          `gorm:"not null;check:product_name_not_empty,name <> ''"`
	CategoryID int             `gorm:"not null;index"`
	Category   categoryRecord  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Quantity   int             `gorm:"not null;check:quantity_not_negative,quantity >= 0"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null;check:unit_price_not_negative,unit_price >= 0"`
}

func (productRecord) TableName() string { return "products" }

// productRow is the joined listing shape.
type productRow struct {
	ID           int
	Name         string
	CategoryID   int
	CategoryName string
	Quantity     int
	UnitPrice    decimal.Decimal
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:           r.ID,
		Name:         r.Name,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
	}
}

// GormStore implements both repositories on top of gorm. It backs the
// "sqlite" storage driver.
type GormStore struct {
	db  *gorm.DB
	log *logrus.Logger
}

var (
	_ domain.CategoryRepository = (*GormStore)(nil)
	_ domain.ProductRepository  = (*GormStore)(nil)
)

func NewGormStore(db *gorm.DB, logger *logrus.Logger) *GormStore {
	return &GormStore{db: db, log: logger}
}

// AutoMigrate creates or updates the categories and products tables.
func (s *GormStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&categoryRecord{}, &productRecord{}); err != nil {
		s.log.Errorf("Repository: gorm auto-migrate failed: %v", err)
		return fmt.Errorf("could not migrate schema: %w", err)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return domain.Unavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		s.log.Errorf("Repository: Database ping failed: %v", err)
		return domain.Unavailable("ping", err)
	}
	return nil
}

func (s *GormStore) InsertCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	rec := categoryRecord{Name: name, Description: description}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isCheckViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.NewValidationError("name", "%v", err)
		}
		s.log.Errorf("Repository: Failed to create category '%s': %v", name, err)
		return nil, domain.Unavailable("insert category", err)
	}
	s.log.Infof("Repository: Category created with ID: %d, Name: %s", rec.ID, rec.Name)
	return &domain.Category{ID: rec.ID, Name: rec.Name, Description: rec.Description}, nil
}

func (s *GormStore) GetCategoryByID(ctx context.Context, id int) (*domain.Category, error) {
	var rec categoryRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category with id %d: %w", id, domain.ErrNotFound)
		}
		s.log.Errorf("Repository: Failed to get category by ID %d: %v", id, err)
		return nil, domain.Unavailable("get category", err)
	}
	return &domain.Category{ID: rec.ID, Name: rec.Name, Description: rec.Description}, nil
}

func (s *GormStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var recs []categoryRecord
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&recs).Error; err != nil {
		s.log.Errorf("Repository: Failed to list categories: %v", err)
		return nil, domain.Unavailable("list categories", err)
	}
	categories := make([]domain.Category, 0, len(recs))
	for _, rec := range recs {
		categories = append(categories, domain.Category{ID: rec.ID, Name: rec.Name, Description: rec.Description})
	}
	return categories, nil
}

func (s *GormStore) DeleteCategory(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND NOT EXISTS (SELECT 1 FROM products WHERE category_id = ?)", id, id).
		Delete(&categoryRecord{})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return &domain.ConstraintError{Message: fmt.Sprintf("category %d still has products assigned", id)}
		}
		s.log.Errorf("Repository: Failed to delete category ID %d: %v", id, res.Error)
		return domain.Unavailable("delete category", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Infof("Repository: Category deleted with ID: %d", id)
		return nil
	}
	if _, err := s.GetCategoryByID(ctx, id); err != nil {
		return err
	}
	return &domain.ConstraintError{Message: fmt.Sprintf("category %d still has products assigned", id)}
}

func (s *GormStore) productQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("products AS p").
		Select("p.id, p.name, p.category_id, COALESCE(c.name, '') AS category_name, p.quantity, p.unit_price").
		Joins("LEFT JOIN categories c ON c.id = p.category_id")
}

// isCheckViolation reports a failed CHECK constraint. The gorm sqlite
// dialector does not translate these.
func isCheckViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintCheck
}

func (s *GormStore) translateWriteError(op string, fields domain.ProductFields, err error) error {
	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.NewValidationError("category_id", "category %d does not exist", fields.CategoryID)
	case isCheckViolation(err):
		return domain.NewValidationError("", "product data constraint violation: %v", err)
	}
	s.log.Errorf("Repository: %s failed: %v", op, err)
	return domain.Unavailable(op, err)
}

func (s *GormStore) InsertProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error) {
	rec := productRecord{
		Name:       fields.Name,
		CategoryID: fields.CategoryID,
		Quantity:   fields.Quantity,
		UnitPrice:  fields.UnitPrice,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&rec).Error; err != nil {
		return nil, s.translateWriteError("insert product", fields, err)
	}
	s.log.Infof("Repository: Product created with ID: %d, Name: %s", rec.ID, rec.Name)
	return s.GetProductByID(ctx, rec.ID)
}

func (s *GormStore) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	var rows []productRow
	if err := s.productQuery(ctx).Where("p.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		s.log.Errorf("Repository: Failed to get product by ID %d: %v", id, err)
		return nil, domain.Unavailable("get product", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	product := rows[0].toDomain()
	return &product, nil
}

func (s *GormStore) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	q := s.productQuery(ctx)
	if filter.CategoryID > 0 {
		q = q.Where("p.category_id = ?", filter.CategoryID)
	}
	if filter.NameContains != "" {
		// SQLite LIKE is case-insensitive for ASCII.
		q = q.Where(`p.name LIKE ? ESCAPE '\'`, containsPattern(filter.NameContains))
	}
	var rows []productRow
	if err := q.Order("p.id ASC").Scan(&rows).Error; err != nil {
		s.log.Errorf("Repository: Failed to list products: %v", err)
		return nil, domain.Unavailable("list products", err)
	}
	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, nil
}

func (s *GormStore) UpdateProduct(ctx context.Context, id int, fields domain.ProductFields) (*domain.Product, error) {
	res := s.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", id).Updates(map[string]any{
		"name":        fields.Name,
		"category_id": fields.CategoryID,
		"quantity":    fields.Quantity,
		"unit_price":  fields.UnitPrice,
	})
	if res.Error != nil {
		return nil, s.translateWriteError("update product", fields, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	s.log.Infof("Repository: Product updated with ID: %d", id)
	return s.GetProductByID(ctx, id)
}

func (s *GormStore) DeleteProduct(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Delete(&productRecord{}, id)
	if res.Error != nil {
		s.log.Errorf("Repository: Failed to delete product ID %d: %v", id, res.Error)
		return domain.Unavailable("delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	s.log.Infof("Repository: Product deleted with ID: %d", id)
	return nil
}

func (s *GormStore) CountProductsInCategory(ctx context.Context, categoryID int) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&productRecord{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		s.log.Errorf("Repository: Failed to count products in category %d: %v", categoryID, err)
		return 0, domain.Unavailable("count products", err)
	}
	return int(count), nil
}

func (s *GormStore) DecreaseQuantityIfEnough(ctx context.Context, id, amount int) (*domain.Product, error) {
	res := s.db.WithContext(ctx).Model(&productRecord{}).
		Where("id = ? AND quantity >= ?", id, amount).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", amount))
	if res.Error != nil {
		s.log.Errorf("Repository: Failed to decrease quantity of product ID %d: %v", id, res.Error)
		return nil, domain.Unavailable("decrease quantity", res.Error)
	}
	current, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, domain.NewValidationError("amount", "cannot issue %d units, only %d in stock", amount, current.Quantity)
	}
	return current, nil
}

func (s *GormStore) IncreaseQuantity(ctx context.Context, id, amount int) (*domain.Product, error) {
	ceiling, ok := receiveCeiling(amount)
	if !ok {
		return nil, exceedsCapacity(amount)
	}
	res := s.db.WithContext(ctx).Model(&productRecord{}).
		Where("id = ? AND quantity <= ?", id, ceiling).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", amount))
	if res.Error != nil {
		s.log.Errorf("Repository: Failed to increase quantity of product ID %d: %v", id, res.Error)
		return nil, domain.Unavailable("increase quantity", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetProductByID(ctx, id); err != nil {
			return nil, err
		}
		s.log.Warnf("Repository: Receiving %d units would push product ID %d past the stock limit", amount, id)
		return nil, exceedsCapacity(amount)
	}
	return s.GetProductByID(ctx, id)
}
