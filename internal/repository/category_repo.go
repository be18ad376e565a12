package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"warehouse_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type postgresCategoryRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresCategoryRepository(db *sql.DB, logger *logrus.Logger) domain.CategoryRepository {
	return &postgresCategoryRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresCategoryRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		r.log.Errorf("Repository: Database ping failed: %v", err)
		return domain.Unavailable("ping", err)
	}
	return nil
}

func (r *postgresCategoryRepository) InsertCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	query := `INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`
	category := &domain.Category{Name: name, Description: description}
	err := r.db.QueryRowContext(ctx, query, name, description).Scan(&category.ID)
	if err != nil {
		if code := pqErrorCode(err); code == pqCheckViolation || code == pqUniqueViolation {
			r.log.Warnf("Repository: Category '%s' rejected by constraint: %s", name, pqErrorMessage(err))
			return nil, domain.NewValidationError("name", "%s", pqErrorMessage(err))
		}
		r.log.Errorf("Repository: Failed to create category '%s': %v", name, err)
		return nil, domain.Unavailable("insert category", err)
	}
	r.log.Infof("Repository: Category created with ID: %d, Name: %s", category.ID, category.Name)
	return category, nil
}

func (r *postgresCategoryRepository) GetCategoryByID(ctx context.Context, id int) (*domain.Category, error) {
	query := `SELECT id, name, description FROM categories WHERE id = $1`
	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Category with ID %d not found", id)
			return nil, fmt.Errorf("category with id %d: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get category by ID %d: %v", id, err)
		return nil, domain.Unavailable("get category", err)
	}
	return category, nil
}

// DeleteCategory removes the row only when no product references it. The
// reference check and the delete are one statement.
func (r *postgresCategoryRepository) DeleteCategory(ctx context.Context, id int) error {
	query := `
        DELETE FROM categories
        WHERE id = $1
          AND NOT EXISTS (SELECT 1 FROM products WHERE category_id = $1)`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if pqErrorCode(err) == pqForeignKeyViolation {
			r.log.Warnf("Repository: Category ID %d is still referenced: %s", id, pqErrorMessage(err))
			return &domain.ConstraintError{Message: fmt.Sprintf("category %d still has products assigned", id)}
		}
		r.log.Errorf("Repository: Failed to delete category ID %d: %v", id, err)
		return domain.Unavailable("delete category", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Repository: Failed to get rows affected after deleting category ID %d: %v", id, err)
		return domain.Unavailable("delete category", err)
	}
	if rowsAffected > 0 {
		r.log.Infof("Repository: Category deleted with ID: %d", id)
		return nil
	}

	if _, err := r.GetCategoryByID(ctx, id); err != nil {
		return err
	}
	r.log.Warnf("Repository: Category ID %d kept, products still reference it", id)
	return &domain.ConstraintError{Message: fmt.Sprintf("category %d still has products assigned", id)}
}

func (r *postgresCategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT id, name, description FROM categories ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.log.Errorf("Repository: Failed to list categories: %v", err)
		return nil, domain.Unavailable("list categories", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description); err != nil {
			r.log.Errorf("Repository: Failed to scan category row: %v", err)
			return nil, domain.Unavailable("list categories", err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during categories list iteration: %v", err)
		return nil, domain.Unavailable("list categories", err)
	}

	r.log.Debugf("Repository: Retrieved %d categories", len(categories))
	return categories, nil
}
