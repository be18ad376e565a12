package domain

import "context"

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryRepository persists categories. DeleteCategory must refuse to remove a
// category that is still referenced by a product, in the same storage call.
type CategoryRepository interface {
	InsertCategory(ctx context.Context, name, description string) (*Category, error)
	GetCategoryByID(ctx context.Context, id int) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	DeleteCategory(ctx context.Context, id int) error
	Ping(ctx context.Context) error
}
