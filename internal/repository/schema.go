package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
        id          SERIAL PRIMARY KEY,
        name        TEXT NOT NULL CHECK (name <> ''),
        description TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE TABLE IF NOT EXISTS products (
        id          SERIAL PRIMARY KEY,
        name        TEXT NOT NULL CHECK (name <> ''),
        category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
        quantity    INTEGER NOT NULL CHECK (quantity >= 0),
        unit_price  NUMERIC(12, 2) NOT NULL CHECK (unit_price >= 0)
    )`,
	`CREATE INDEX IF NOT EXISTS products_category_id_idx ON products (category_id)`,
}

// EnsureSchema creates the categories and products tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB, logger *logrus.Logger) error {
	for _, stmt := range postgresSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Errorf("Repository: Failed to apply schema statement: %v", err)
			return fmt.Errorf("could not apply schema: %w", err)
		}
	}
	logger.Info("Repository: Schema is up to date")
	return nil
}
