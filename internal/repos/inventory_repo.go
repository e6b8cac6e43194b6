package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"shopdesk/internal/domain"
)

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// InventoryRow is one line of the stock management list.
type InventoryRow struct {
	ProductID string `db:"id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	BranchID  string `db:"branch_id" json:"branch_id,omitempty"`
	Stock     int    `db:"stock_quantity" json:"stock"`
	MinStock  int    `db:"min_stock_level" json:"min_stock"`
	Active    bool   `db:"is_active" json:"active"`
}

func (r *InventoryRepo) ListAll(ctx context.Context, businessID string) ([]InventoryRow, error) {
	var rows []InventoryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, COALESCE(branch_id,'') AS branch_id, stock_quantity, min_stock_level, is_active
		FROM products
		WHERE business_id = ?
		ORDER BY LOWER(name)
	`, businessID)
	return rows, err
}

// Stock returns on-hand quantity and reorder level of a product.
func (r *InventoryRepo) Stock(ctx context.Context, businessID, productID string) (qty, minStock int, err error) {
	var row struct {
		Qty int `db:"stock_quantity"`
		Min int `db:"min_stock_level"`
	}
	err = r.db.GetContext(ctx, &row, `
		SELECT stock_quantity, min_stock_level FROM products
		WHERE business_id = ? AND id = ?
	`, businessID, productID)
	if err != nil {
		return 0, 0, notFound(err)
	}
	return row.Qty, row.Min, nil
}

// Decrement subtracts qty only if enough stock exists, so concurrent sales
// can never drive stock negative.
func (r *InventoryRepo) Decrement(ctx context.Context, ex sqlx.ExecerContext, productID string, qty int) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity >= ?
	`, qty, productID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w for %s", domain.ErrInsufficientStock, productID)
	}
	return nil
}

// SetStock overwrites the on-hand quantity.
func (r *InventoryRepo) SetStock(ctx context.Context, businessID, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET stock_quantity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE business_id = ? AND id = ?
	`, qty, businessID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
