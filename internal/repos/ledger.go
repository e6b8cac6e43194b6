package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"shopdesk/internal/checkout"
	"shopdesk/internal/domain"
)

// SalesStore records sales atomically: the order, its lines and the stock
// decrements commit together or not at all.
type SalesStore struct {
	db     *sqlx.DB
	orders *OrderRepo
	inv    *InventoryRepo
}

func NewSalesStore(db *sqlx.DB) *SalesStore {
	return &SalesStore{db: db, orders: NewOrderRepo(db), inv: NewInventoryRepo(db)}
}

func (s *SalesStore) InTx(ctx context.Context, fn func(checkout.Writer) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&salesTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type salesTx struct {
	tx *sqlx.Tx
	s  *SalesStore
}

func (t *salesTx) CreateOrder(ctx context.Context, o domain.Order) error {
	return t.s.orders.Create(ctx, t.tx, o)
}

func (t *salesTx) CreateOrderLines(ctx context.Context, orderID string, lines []domain.OrderLine) error {
	return t.s.orders.InsertItems(ctx, t.tx, orderID, lines)
}

func (t *salesTx) DecrementStock(ctx context.Context, productID string, qty int) error {
	return t.s.inv.Decrement(ctx, t.tx, productID, qty)
}
