package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// CategoryRepo reads the free-text product categories of a business.
type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context, businessID string) ([]string, error) {
	var out []string
	err := r.db.SelectContext(ctx, &out, `
		SELECT DISTINCT category FROM products
		WHERE business_id = ? AND is_active = 1 AND category <> ''
		ORDER BY category
	`, businessID)
	return out, err
}
