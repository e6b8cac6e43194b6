package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"shopdesk/internal/domain"
)

// BusinessRepo reads tenant profiles and their branches.
type BusinessRepo struct{ db *sqlx.DB }

func NewBusinessRepo(db *sqlx.DB) *BusinessRepo { return &BusinessRepo{db: db} }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *BusinessRepo) Business(ctx context.Context, id string) (domain.Business, error) {
	var b domain.Business
	err := r.db.GetContext(ctx, &b, `
		SELECT id, name, address, phone, email, currency, tax_number, receipt_footer
		FROM businesses WHERE id = ?
	`, id)
	return b, notFound(err)
}

// Branch returns a branch of the business whether or not it is active.
func (r *BusinessRepo) Branch(ctx context.Context, businessID, id string) (domain.Branch, error) {
	var b domain.Branch
	err := r.db.GetContext(ctx, &b, `
		SELECT id, business_id, name, address, phone, is_active
		FROM branches WHERE business_id = ? AND id = ?
	`, businessID, id)
	return b, notFound(err)
}

func (r *BusinessRepo) ActiveBranches(ctx context.Context, businessID string) ([]domain.Branch, error) {
	var out []domain.Branch
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, business_id, name, address, phone, is_active
		FROM branches WHERE business_id = ? AND is_active = 1
		ORDER BY name
	`, businessID)
	return out, err
}
