package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"warehouse_service/internal/domain"

	"github.com/sirupsen/logrus"
)

const productColumns = `p.id, p.name, p.category_id, COALESCE(c.name, ''), p.quantity, p.unit_price`

type postgresProductRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *logrus.Logger) domain.ProductRepository {
	return &postgresProductRepository{
		db:  db,
		log: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.CategoryID,
		&product.CategoryName,
		&product.Quantity,
		&product.UnitPrice,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// translateWriteError maps constraint violations raised by inserts and updates
// onto validation errors; everything else means the backend failed.
func (r *postgresProductRepository) translateWriteError(op string, fields domain.ProductFields, err error) error {
	switch pqErrorCode(err) {
	case pqForeignKeyViolation:
		r.log.Warnf("Repository: %s referenced non-existent category ID: %d", op, fields.CategoryID)
		return domain.NewValidationError("category_id", "category %d does not exist", fields.CategoryID)
	case pqNumericOutOfRange:
		r.log.Warnf("Repository: %s value out of range: %s", op, pqErrorMessage(err))
		return domain.NewValidationError("", "product value out of range: %s", pqErrorMessage(err))
	case pqCheckViolation:
		r.log.Warnf("Repository: %s violated check constraint: %s", op, pqErrorMessage(err))
		return domain.NewValidationError("", "product data constraint violation: %s", pqErrorMessage(err))
	}
	r.log.Errorf("Repository: %s failed: %v", op, err)
	return domain.Unavailable(op, err)
}

func (r *postgresProductRepository) InsertProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error) {
	query := `
        WITH p AS (
            INSERT INTO products (name, category_id, quantity, unit_price)
            VALUES ($1, $2, $3, $4)
            RETURNING id, name, category_id, quantity, unit_price
        )
        SELECT ` + productColumns + `
        FROM p LEFT JOIN categories c ON c.id = p.category_id`
	row := r.db.QueryRowContext(ctx, query, fields.Name, fields.CategoryID, fields.Quantity, fields.UnitPrice)
	product, err := scanProduct(row)
	if err != nil {
		return nil, r.translateWriteError("insert product", fields, err)
	}
	r.log.Infof("Repository: Product created with ID: %d, Name: %s", product.ID, product.Name)
	return product, nil
}

func (r *postgresProductRepository) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	query := `
        SELECT ` + productColumns + `
        FROM products p LEFT JOIN categories c ON c.id = p.category_id
        WHERE p.id = $1`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product with ID %d not found", id)
			return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get product by ID %d: %v", id, err)
		return nil, domain.Unavailable("get product", err)
	}
	return product, nil
}

func (r *postgresProductRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if filter.NameContains != "" {
		args = append(args, containsPattern(filter.NameContains))
		clauses = append(clauses, fmt.Sprintf(`p.name ILIKE $%d ESCAPE '\'`, len(args)))
	}

	query := `
        SELECT ` + productColumns + `
        FROM products p LEFT JOIN categories c ON c.id = p.category_id`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY p.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Errorf("Repository: Failed to list products: %v", err)
		return nil, domain.Unavailable("list products", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			r.log.Errorf("Repository: Failed to scan product row: %v", err)
			return nil, domain.Unavailable("list products", err)
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during products list iteration: %v", err)
		return nil, domain.Unavailable("list products", err)
	}
	r.log.Debugf("Repository: Retrieved %d products", len(products))
	return products, nil
}

func (r *postgresProductRepository) UpdateProduct(ctx context.Context, id int, fields domain.ProductFields) (*domain.Product, error) {
	query := `
        WITH p AS (
            UPDATE products
            SET name = $1, category_id = $2, quantity = $3, unit_price = $4
            WHERE id = $5
            RETURNING id, name, category_id, quantity, unit_price
        )
        SELECT ` + productColumns + `
        FROM p LEFT JOIN categories c ON c.id = p.category_id`
	row := r.db.QueryRowContext(ctx, query, fields.Name, fields.CategoryID, fields.Quantity, fields.UnitPrice, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product with ID %d not found for update", id)
			return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
		}
		return nil, r.translateWriteError("update product", fields, err)
	}
	r.log.Infof("Repository: Product updated with ID: %d", id)
	return product, nil
}

func (r *postgresProductRepository) DeleteProduct(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.log.Errorf("Repository: Failed to delete product ID %d: %v", id, err)
		return domain.Unavailable("delete product", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Repository: Failed to get rows affected after deleting product ID %d: %v", id, err)
		return domain.Unavailable("delete product", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to delete non-existent product ID %d", id)
		return fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	r.log.Infof("Repository: Product deleted with ID: %d", id)
	return nil
}

func (r *postgresProductRepository) CountProductsInCategory(ctx context.Context, categoryID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID).Scan(&count)
	if err != nil {
		r.log.Errorf("Repository: Failed to count products in category %d: %v", categoryID, err)
		return 0, domain.Unavailable("count products", err)
	}
	return count, nil
}

func (r *postgresProductRepository) DecreaseQuantityIfEnough(ctx context.Context, id, amount int) (*domain.Product, error) {
	query := `
        WITH p AS (
            UPDATE products
            SET quantity = quantity - $1
            WHERE id = $2 AND quantity >= $1
            RETURNING id, name, category_id, quantity, unit_price
        )
        SELECT ` + productColumns + `
        FROM p LEFT JOIN categories c ON c.id = p.category_id`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, amount, id))
	if err == nil {
		r.log.Infof("Repository: Decreased quantity of product ID %d by %d to %d", id, amount, product.Quantity)
		return product, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.log.Errorf("Repository: Failed to decrease quantity of product ID %d: %v", id, err)
		return nil, domain.Unavailable("decrease quantity", err)
	}

	current, err := r.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.log.Warnf("Repository: Product ID %d has %d units, cannot issue %d", id, current.Quantity, amount)
	return nil, domain.NewValidationError("amount", "cannot issue %d units, only %d in stock", amount, current.Quantity)
}

func (r *postgresProductRepository) IncreaseQuantity(ctx context.Context, id, amount int) (*domain.Product, error) {
	query := `
        WITH p AS (
            UPDATE products
            SET quantity = quantity + $1
            WHERE id = $2 AND quantity <= $3
            RETURNING id, name, category_id, quantity, unit_price
        )
        SELECT ` + productColumns + `
        FROM p LEFT JOIN categories c ON c.id = p.category_id`
	ceiling, ok := receiveCeiling(amount)
	if !ok {
		return nil, exceedsCapacity(amount)
	}
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, amount, id, ceiling))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log.Errorf("Repository: Failed to increase quantity of product ID %d: %v", id, err)
			return nil, domain.Unavailable("increase quantity", err)
		}
		if _, err := r.GetProductByID(ctx, id); err != nil {
			return nil, err
		}
		r.log.Warnf("Repository: Receiving %d units would push product ID %d past the stock limit", amount, id)
		return nil, exceedsCapacity(amount)
	}
	r.log.Infof("Repository: Increased quantity of product ID %d by %d to %d", id, amount, product.Quantity)
	return product, nil
}
