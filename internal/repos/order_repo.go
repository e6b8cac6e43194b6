package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"shopdesk/internal/domain"
	"shopdesk/internal/pricing"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID            string `db:"id"`
	BusinessID    string `db:"business_id"`
	BranchID      string `db:"branch_id"`
	StaffID       string `db:"staff_id"`
	CustomerName  string `db:"customer_name"`
	CustomerPhone string `db:"customer_phone"`
	SubtotalMinor int64  `db:"subtotal_minor"`
	DiscountBP    int64  `db:"discount_bp"`
	DiscountMinor int64  `db:"discount_minor"`
	TaxBP         int64  `db:"tax_bp"`
	TaxMinor      int64  `db:"tax_minor"`
	TotalMinor    int64  `db:"total_minor"`
	PaymentMethod string `db:"payment_method"`
	PaymentStatus string `db:"payment_status"`
	CreatedAt     string `db:"created_at"`
}

func (r orderRow) toDomain() domain.Order {
	created, _ := time.Parse(timeLayout, r.CreatedAt)
	return domain.Order{
		ID:              r.ID,
		BusinessID:      r.BusinessID,
		BranchID:        r.BranchID,
		StaffID:         r.StaffID,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		Subtotal:        pricing.FromMinor(r.SubtotalMinor),
		DiscountPercent: pricing.FromMinor(r.DiscountBP),
		DiscountAmount:  pricing.FromMinor(r.DiscountMinor),
		TaxPercent:      pricing.FromMinor(r.TaxBP),
		TaxAmount:       pricing.FromMinor(r.TaxMinor),
		Total:           pricing.FromMinor(r.TotalMinor),
		PaymentMethod:   domain.PaymentMethod(r.PaymentMethod),
		PaymentStatus:   r.PaymentStatus,
		CreatedAt:       created,
	}
}

type orderItemRow struct {
	ID             string `db:"id"`
	OrderID        string `db:"order_id"`
	ProductID      string `db:"product_id"`
	Name           string `db:"product_name"`
	Qty            int    `db:"qty"`
	UnitPriceMinor int64  `db:"unit_price_minor"`
	DiscountBP     int64  `db:"discount_bp"`
	DiscountMinor  int64  `db:"discount_minor"`
	TotalMinor     int64  `db:"total_minor"`
}

// OrderSummary is a row of the sales history list.
type OrderSummary struct {
	ID            string `db:"id" json:"id"`
	BranchID      string `db:"branch_id" json:"branch_id"`
	StaffName     string `db:"staff_name" json:"staff_name,omitempty"`
	CustomerName  string `db:"customer_name" json:"customer_name,omitempty"`
	Items         int    `db:"items" json:"items"`
	Total         string `db:"-" json:"total"`
	TotalMinor    int64  `db:"total_minor" json:"-"`
	PaymentMethod string `db:"payment_method" json:"payment_method"`
	CreatedAt     string `db:"created_at" json:"created_at"`
}

// Create inserts the order header. ex is usually the commit transaction.
func (r *OrderRepo) Create(ctx context.Context, ex sqlx.ExecerContext, o domain.Order) error {
	var staff any
	if o.StaffID != "" {
		staff = o.StaffID
	}
	_, err := ex.ExecContext(ctx, `
	  INSERT INTO orders
	    (id, business_id, branch_id, staff_id, customer_name, customer_phone,
	     subtotal_minor, discount_bp, discount_minor, tax_bp, tax_minor, total_minor,
	     payment_method, payment_status, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, o.ID, o.BusinessID, o.BranchID, staff, o.CustomerName, o.CustomerPhone,
		pricing.ToMinor(o.Subtotal), pricing.ToMinor(o.DiscountPercent), pricing.ToMinor(o.DiscountAmount),
		pricing.ToMinor(o.TaxPercent), pricing.ToMinor(o.TaxAmount), pricing.ToMinor(o.Total),
		string(o.PaymentMethod), o.PaymentStatus, o.CreatedAt.UTC().Format(timeLayout))
	return err
}

// InsertItems writes the lines of an order in display order.
func (r *OrderRepo) InsertItems(ctx context.Context, ex sqlx.ExecerContext, orderID string, lines []domain.OrderLine) error {
	for i, l := range lines {
		_, err := ex.ExecContext(ctx, `
		  INSERT INTO order_items
		    (id, order_id, product_id, position, product_name, qty, unit_price_minor, discount_bp, discount_minor, total_minor)
		  VALUES (?,?,?,?,?,?,?,?,?,?)
		`, l.ID, orderID, l.ProductID, i, l.Name, l.Quantity,
			pricing.ToMinor(l.UnitPrice), pricing.ToMinor(l.DiscountPercent), pricing.ToMinor(l.DiscountAmount), pricing.ToMinor(l.LineTotal))
		if err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, businessID, orderID string) (domain.Order, []domain.OrderLine, error) {
	var o orderRow
	if err := r.db.GetContext(ctx, &o, `
		SELECT id, business_id, branch_id, COALESCE(staff_id,'') AS staff_id, customer_name, customer_phone,
		       subtotal_minor, discount_bp, discount_minor, tax_bp, tax_minor, total_minor,
		       payment_method, payment_status, created_at
		FROM orders
		WHERE business_id = ? AND id = ?
	`, businessID, orderID); err != nil {
		return domain.Order{}, nil, notFound(err)
	}

	var items []orderItemRow
	if err := r.db.SelectContext(ctx, &items, `
		SELECT id, order_id, product_id, product_name, qty, unit_price_minor, discount_bp, discount_minor, total_minor
		FROM order_items
		WHERE order_id = ?
		ORDER BY position
	`, orderID); err != nil {
		return domain.Order{}, nil, err
	}

	lines := make([]domain.OrderLine, len(items))
	for i, it := range items {
		lines[i] = domain.OrderLine{
			ID:              it.ID,
			OrderID:         it.OrderID,
			ProductID:       it.ProductID,
			Name:            it.Name,
			Quantity:        it.Qty,
			UnitPrice:       pricing.FromMinor(it.UnitPriceMinor),
			DiscountPercent: pricing.FromMinor(it.DiscountBP),
			DiscountAmount:  pricing.FromMinor(it.DiscountMinor),
			LineTotal:       pricing.FromMinor(it.TotalMinor),
		}
	}
	return o.toDomain(), lines, nil
}

// ListLatest returns the newest orders of a business, optionally for one branch.
func (r *OrderRepo) ListLatest(ctx context.Context, businessID, branchID string, limit int) ([]OrderSummary, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.SelectContext(ctx, &out, `
		SELECT o.id, o.branch_id, COALESCE(u.name,'') AS staff_name, o.customer_name,
		       (SELECT COALESCE(SUM(qty),0) FROM order_items oi WHERE oi.order_id = o.id) AS items,
		       o.total_minor, o.payment_method, o.created_at
		FROM orders o
		LEFT JOIN users u ON u.id = o.staff_id
		WHERE o.business_id = ? AND (? = '' OR o.branch_id = ?)
		ORDER BY o.created_at DESC
		LIMIT ?
	`, businessID, branchID, branchID, limit)
	for i := range out {
		out[i].Total = pricing.FromMinor(out[i].TotalMinor).StringFixed(2)
	}
	return out, err
}
