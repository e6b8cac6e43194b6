package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"shopdesk/internal/cart"
	"shopdesk/internal/catalog"
	"shopdesk/internal/checkout"
	"shopdesk/internal/domain"
	"shopdesk/internal/pricing"
	"shopdesk/internal/repos"
)

var (
	ErrNoBranch        = errors.New("select a branch first")
	ErrBranchNotFound  = errors.New("branch not found")
	ErrStaffNotFound   = errors.New("staff member not found")
	ErrProductNotFound = errors.New("product not available at this branch")
)

// CartService drives a session's register.
type CartService struct {
	Catalog    *catalog.Catalog
	Businesses *repos.BusinessRepo
	Users      *repos.UserRepo
}

func NewCartService(cat *catalog.Catalog, biz *repos.BusinessRepo, users *repos.UserRepo) *CartService {
	return &CartService{Catalog: cat, Businesses: biz, Users: users}
}

func (s *CartService) SelectBranch(ctx context.Context, sess *Session, branchID string) error {
	br, err := s.Businesses.Branch(ctx, sess.Business.ID, branchID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !br.Active) {
		return ErrBranchNotFound
	}
	if err != nil {
		return err
	}
	snap, err := s.Catalog.Snapshot(ctx, sess.Business.ID, branchID)
	if err != nil {
		return err
	}
	sess.Register.Edit(func(c *cart.Cart) { c.SelectBranch(branchID, snap) })
	return nil
}

// SelectStaff attributes the sale to a staff member; an empty id clears it.
func (s *CartService) SelectStaff(ctx context.Context, sess *Session, staffID string) error {
	if staffID != "" {
		if _, err := s.Users.Staff(ctx, sess.Business.ID, staffID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return ErrStaffNotFound
			}
			return err
		}
	}
	sess.Register.Edit(func(c *cart.Cart) { c.SelectStaff(staffID) })
	return nil
}

// Staff lists who a sale can be attributed to.
func (s *CartService) Staff(ctx context.Context, sess *Session) ([]domain.User, error) {
	return s.Users.ListStaff(ctx, sess.Business.ID)
}

// freshStock loads the branch catalog so stock checks see changes made by
// other registers and inventory edits.
func (s *CartService) freshStock(ctx context.Context, sess *Session) (string, *catalog.Snapshot, error) {
	branch := sess.BranchID()
	if branch == "" {
		return "", nil, nil
	}
	snap, err := s.Catalog.Snapshot(ctx, sess.Business.ID, branch)
	if err != nil {
		return "", nil, err
	}
	return branch, snap, nil
}

func swapStock(c *cart.Cart, branch string, snap *catalog.Snapshot) {
	if snap != nil && c.Fields().BranchID == branch {
		c.SetStock(snap)
	}
}

// Add puts one unit of a product in the cart. It reports false when the
// product's stock is already fully in the cart.
func (s *CartService) Add(ctx context.Context, sess *Session, productID string) (bool, error) {
	branch, snap, err := s.freshStock(ctx, sess)
	if err != nil {
		return false, err
	}
	var added bool
	sess.Register.Edit(func(c *cart.Cart) {
		if c.Fields().BranchID == "" {
			err = ErrNoBranch
			return
		}
		swapStock(c, branch, snap)
		p, ok := c.Lookup(productID)
		if !ok {
			err = ErrProductNotFound
			return
		}
		added = c.AddLine(p)
	})
	return added, err
}

// SetQuantity reports false when the line is missing or qty exceeds the
// product's current stock.
func (s *CartService) SetQuantity(ctx context.Context, sess *Session, productID string, qty int) (bool, error) {
	branch, snap, err := s.freshStock(ctx, sess)
	if err != nil {
		return false, err
	}
	var ok bool
	sess.Register.Edit(func(c *cart.Cart) {
		swapStock(c, branch, snap)
		ok = c.SetQuantity(productID, qty)
	})
	return ok, nil
}

func (s *CartService) SetDiscount(sess *Session, productID string, pct decimal.Decimal) bool {
	var ok bool
	sess.Register.Edit(func(c *cart.Cart) { ok = c.SetLineDiscount(productID, pct) })
	return ok
}

func (s *CartService) Remove(sess *Session, productID string) bool {
	var ok bool
	sess.Register.Edit(func(c *cart.Cart) { ok = c.RemoveLine(productID) })
	return ok
}

func (s *CartService) Clear(sess *Session) {
	sess.Register.Edit(func(c *cart.Cart) { c.Clear() })
}

// Settings carries optional session field updates; nil leaves a field as is.
type Settings struct {
	CustomerName  *string
	CustomerPhone *string
	OrderDiscount *decimal.Decimal
	TaxPercent    *decimal.Decimal
	PaymentMethod *string
}

func (s *CartService) UpdateSettings(sess *Session, in Settings) error {
	var err error
	sess.Register.Edit(func(c *cart.Cart) {
		if in.PaymentMethod != nil {
			// validated first so a bad method changes nothing
			if err = c.SetPaymentMethod(domain.PaymentMethod(*in.PaymentMethod)); err != nil {
				return
			}
		}
		if in.CustomerName != nil || in.CustomerPhone != nil {
			f := c.Fields()
			name, phone := f.CustomerName, f.CustomerPhone
			if in.CustomerName != nil {
				name = *in.CustomerName
			}
			if in.CustomerPhone != nil {
				phone = *in.CustomerPhone
			}
			c.SetCustomer(name, phone)
		}
		if in.OrderDiscount != nil {
			c.SetOrderDiscount(*in.OrderDiscount)
		}
		if in.TaxPercent != nil {
			c.SetTaxPercent(*in.TaxPercent)
		}
	})
	return err
}

func (s *CartService) Commit(ctx context.Context, sess *Session) (checkout.Result, error) {
	return sess.Register.Commit(ctx)
}

type LineView struct {
	ProductID       string `json:"product_id"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	Stock           int    `json:"stock"`
	UnitPrice       string `json:"unit_price"`
	DiscountPercent string `json:"discount_percent"`
	Discount        string `json:"discount"`
	Total           string `json:"total"`
}

type RegisterView struct {
	State         string      `json:"state"`
	Fields        cart.Fields `json:"session"`
	Lines         []LineView  `json:"lines"`
	Subtotal      string      `json:"subtotal"`
	OrderDiscount string      `json:"order_discount"`
	Tax           string      `json:"tax"`
	Total         string      `json:"total"`
	LastError     string      `json:"last_error,omitempty"`
}

// View renders the live cart with totals settled the way a commit stores them.
func (s *CartService) View(sess *Session) RegisterView {
	var v RegisterView
	sess.Register.View(func(c *cart.Cart, st checkout.State) {
		t := pricing.Settle(c.Totals())
		v = RegisterView{
			State:         st.String(),
			Fields:        c.Fields(),
			Lines:         []LineView{},
			Subtotal:      pricing.Format(t.Subtotal),
			OrderDiscount: pricing.Format(t.OrderDiscount),
			Tax:           pricing.Format(t.Tax),
			Total:         pricing.Format(t.GrandTotal),
		}
		for i, l := range c.Lines() {
			p, _ := c.Lookup(l.ProductID)
			v.Lines = append(v.Lines, LineView{
				ProductID:       l.ProductID,
				Name:            l.Name,
				Quantity:        l.Quantity,
				Stock:           p.Stock,
				UnitPrice:       pricing.Format(l.UnitPrice),
				DiscountPercent: l.DiscountPercent.String(),
				Discount:        pricing.Format(t.Lines[i].Discount),
				Total:           pricing.Format(t.Lines[i].Total),
			})
		}
	})
	if err := sess.Register.LastError(); err != nil {
		v.LastError = err.Error()
	}
	return v
}
