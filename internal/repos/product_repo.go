package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"shopdesk/internal/domain"
	"shopdesk/internal/pricing"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, business_id, COALESCE(branch_id,'') AS branch_id, name, sku, category,
	price_minor, cost_minor, stock_quantity, min_stock_level, is_active`

type productRow struct {
	ID         string `db:"id"`
	BusinessID string `db:"business_id"`
	BranchID   string `db:"branch_id"`
	Name       string `db:"name"`
	SKU        string `db:"sku"`
	Category   string `db:"category"`
	PriceMinor int64  `db:"price_minor"`
	CostMinor  int64  `db:"cost_minor"`
	Stock      int    `db:"stock_quantity"`
	MinStock   int    `db:"min_stock_level"`
	Active     bool   `db:"is_active"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		BranchID:   r.BranchID,
		Name:       r.Name,
		SKU:        r.SKU,
		Category:   r.Category,
		Price:      pricing.FromMinor(r.PriceMinor),
		CostPrice:  pricing.FromMinor(r.CostMinor),
		Stock:      r.Stock,
		MinStock:   r.MinStock,
		Active:     r.Active,
	}
}

func toProducts(rows []productRow) []domain.Product {
	out := make([]domain.Product, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out
}

// ListProducts returns the sellable catalog of a branch: active products
// with stock that belong to the branch or to no branch.
func (r *ProductRepo) ListProducts(ctx context.Context, businessID, branchID string) ([]domain.Product, error) {
	var rows []productRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+productCols+`
		FROM products
		WHERE business_id = ? AND is_active = 1 AND stock_quantity > 0
		  AND (branch_id IS NULL OR branch_id = ?)
		ORDER BY LOWER(name)
	`, businessID, branchID)
	if err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

func (r *ProductRepo) Get(ctx context.Context, businessID, id string) (domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT `+productCols+` FROM products WHERE business_id = ? AND id = ?`, businessID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return row.toDomain(), nil
}

// ListAll includes inactive and out-of-stock products, for stock management.
func (r *ProductRepo) ListAll(ctx context.Context, businessID string) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT `+productCols+` FROM products WHERE business_id = ? ORDER BY LOWER(name)
	`, businessID); err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}
