// Package checkout turns a register's cart into a committed sale.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopdesk/internal/cart"
	"shopdesk/internal/catalog"
	"shopdesk/internal/domain"
	applog "shopdesk/internal/log"
	"shopdesk/internal/metrics"
	"shopdesk/internal/pricing"
	"shopdesk/internal/receipt"
)

type State int

const (
	Idle State = iota
	Validating
	Committing
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Committing:
		return "committing"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s State) IsTerminal() bool { return s == Committed || s == Failed }

func (s State) inFlight() bool { return s == Validating || s == Committing }

var (
	ErrCommitInProgress  = errors.New("checkout: commit already in progress")
	ErrCommitFailed      = errors.New("checkout: commit failed")
	ErrBranchUnavailable = errors.New("checkout: branch unavailable")
)

// Writer performs the persistence steps of one sale inside a transaction.
type Writer interface {
	CreateOrder(ctx context.Context, o domain.Order) error
	CreateOrderLines(ctx context.Context, orderID string, lines []domain.OrderLine) error
	// DecrementStock fails with domain.ErrInsufficientStock when stock would go negative.
	DecrementStock(ctx context.Context, productID string, qty int) error
}

// Ledger runs fn in a single transaction, committing only if fn returns nil.
type Ledger interface {
	InTx(ctx context.Context, fn func(Writer) error) error
}

type Profiles interface {
	Business(ctx context.Context, businessID string) (domain.Business, error)
	Branch(ctx context.Context, businessID, branchID string) (domain.Branch, error)
}

type Catalog interface {
	Snapshot(ctx context.Context, businessID, branchID string) (*catalog.Snapshot, error)
	Invalidate(ctx context.Context, businessID string, branchIDs ...string) error
}

type Publisher interface {
	PublishSaleCommitted(ctx context.Context, r receipt.Receipt) error
}

type Deps struct {
	Ledger   Ledger
	Profiles Profiles
	Catalog  Catalog
	Events   Publisher // optional
	Now      func() time.Time
	NewID    func() string
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

type Result struct {
	State   State            `json:"state"`
	Receipt *receipt.Receipt `json:"receipt,omitempty"`
}

// Register owns one cart and its checkout state. All methods are safe for
// concurrent use.
type Register struct {
	mu         sync.Mutex
	businessID string
	cart       *cart.Cart
	state      State
	last       *receipt.Receipt
	lastErr    error
	deps       Deps
}

func NewRegister(businessID string, c *cart.Cart, deps Deps) *Register {
	return &Register{businessID: businessID, cart: c, deps: deps}
}

func (r *Register) BusinessID() string { return r.businessID }

// Edit applies fn to the cart. Editing after a finished commit returns the
// register to Idle.
func (r *Register) Edit(fn func(c *cart.Cart)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.cart)
	if r.state.IsTerminal() {
		r.state = Idle
		r.lastErr = nil
	}
}

// View runs fn with read access to the cart.
func (r *Register) View(fn func(c *cart.Cart, s State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.cart, r.state)
}

func (r *Register) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Register) LastReceipt() (receipt.Receipt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return receipt.Receipt{}, false
	}
	return *r.last, true
}

func (r *Register) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Register) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Commit finalizes the cart. An empty cart or a missing branch is ignored
// and reported with the unchanged state and a nil error. Persistence
// failures leave the cart untouched and return an error wrapping
// ErrCommitFailed.
func (r *Register) Commit(ctx context.Context) (Result, error) {
	r.mu.Lock()
	if r.state.inFlight() {
		st := r.state
		r.mu.Unlock()
		return Result{State: st}, ErrCommitInProgress
	}
	if r.cart.Len() == 0 || r.cart.Fields().BranchID == "" {
		st := r.state
		r.mu.Unlock()
		metrics.Commits.WithLabelValues(metrics.ResultRejected).Inc()
		return Result{State: st}, nil
	}
	r.state = Validating
	r.lastErr = nil
	snap := r.cart.Freeze()
	r.mu.Unlock()

	start := time.Now()
	rc, err := r.persist(ctx, snap)
	metrics.CommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrCommitFailed, err)
		r.mu.Lock()
		r.state = Failed
		r.lastErr = err
		r.mu.Unlock()
		metrics.Commits.WithLabelValues(metrics.ResultFailed).Inc()
		return Result{State: Failed}, err
	}
	metrics.Commits.WithLabelValues(metrics.ResultCommitted).Inc()

	stock := r.refreshCatalog(ctx, snap.Fields.BranchID)

	r.mu.Lock()
	r.cart.Clear()
	if stock != nil && r.cart.Fields().BranchID == snap.Fields.BranchID {
		r.cart.SetStock(stock)
	}
	r.state = Committed
	r.last = &rc
	r.mu.Unlock()

	if r.deps.Events != nil {
		if err := r.deps.Events.PublishSaleCommitted(ctx, rc); err != nil {
			applog.L().Warn("sale event not published", zap.String("order_id", rc.Order.ID), zap.Error(err))
		}
	}
	return Result{State: Committed, Receipt: &rc}, nil
}

func (r *Register) persist(ctx context.Context, snap cart.Snapshot) (receipt.Receipt, error) {
	f := snap.Fields
	biz, err := r.deps.Profiles.Business(ctx, r.businessID)
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("load business: %w", err)
	}
	branch, err := r.deps.Profiles.Branch(ctx, r.businessID, f.BranchID)
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("load branch: %w", err)
	}
	if !branch.Active {
		return receipt.Receipt{}, ErrBranchUnavailable
	}

	order, lines := buildOrder(r.deps.newID(), r.businessID, snap, r.deps.now())
	for i := range lines {
		lines[i].ID = r.deps.newID()
	}

	r.setState(Committing)
	err = r.deps.Ledger.InTx(ctx, func(w Writer) error {
		if err := w.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := w.CreateOrderLines(ctx, order.ID, lines); err != nil {
			return fmt.Errorf("create order lines: %w", err)
		}
		for _, l := range lines {
			if err := w.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return fmt.Errorf("decrement stock of %s: %w", l.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return receipt.Receipt{}, err
	}
	return receipt.Receipt{Business: biz, Branch: branch, Order: order, Lines: lines}, nil
}

// buildOrder settles the frozen totals to the stored precision.
func buildOrder(id, businessID string, snap cart.Snapshot, now time.Time) (domain.Order, []domain.OrderLine) {
	f, t := snap.Fields, pricing.Settle(snap.Totals)
	o := domain.Order{
		ID:              id,
		BusinessID:      businessID,
		BranchID:        f.BranchID,
		StaffID:         f.StaffID,
		CustomerName:    f.CustomerName,
		CustomerPhone:   f.CustomerPhone,
		Subtotal:        t.Subtotal,
		DiscountPercent: f.OrderDiscountPercent,
		DiscountAmount:  t.OrderDiscount,
		TaxPercent:      f.TaxPercent,
		TaxAmount:       t.Tax,
		Total:           t.GrandTotal,
		PaymentMethod:   f.PaymentMethod,
		PaymentStatus:   domain.PaymentStatusPaid,
		CreatedAt:       now.UTC(),
	}
	lines := make([]domain.OrderLine, len(snap.Lines))
	for i, l := range snap.Lines {
		la := t.Lines[i]
		lines[i] = domain.OrderLine{
			OrderID:         id,
			ProductID:       l.ProductID,
			Name:            l.Name,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			DiscountAmount:  la.Discount,
			LineTotal:       la.Total,
		}
	}
	return o, lines
}

// refreshCatalog drops the branch's cached stock and reloads it. Failures
// are logged; the sale is already committed.
func (r *Register) refreshCatalog(ctx context.Context, branchID string) *catalog.Snapshot {
	if r.deps.Catalog == nil {
		return nil
	}
	if err := r.deps.Catalog.Invalidate(ctx, r.businessID, branchID); err != nil {
		applog.L().Warn("catalog invalidate after commit failed", zap.String("branch_id", branchID), zap.Error(err))
	}
	s, err := r.deps.Catalog.Snapshot(ctx, r.businessID, branchID)
	if err != nil {
		applog.L().Warn("catalog reload after commit failed", zap.String("branch_id", branchID), zap.Error(err))
		return nil
	}
	return s
}
