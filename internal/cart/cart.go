// Package cart holds the in-progress sale of one register.
//
// A Cart is not safe for concurrent use; the owning register serializes access.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"shopdesk/internal/domain"
	"shopdesk/internal/pricing"
)

var ErrUnknownPaymentMethod = errors.New("cart: unknown payment method")

// StockSource resolves a product's current stock. Products it does not know
// have no stock.
type StockSource interface {
	Product(id string) (domain.Product, bool)
}

type Line struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

func (l Line) item() pricing.Item {
	return pricing.Item{UnitPrice: l.UnitPrice, Quantity: l.Quantity, DiscountPercent: l.DiscountPercent}
}

// Fields are the session-level values of a sale.
type Fields struct {
	BranchID             string               `json:"branch_id,omitempty"`
	StaffID              string               `json:"staff_id,omitempty"`
	CustomerName         string               `json:"customer_name,omitempty"`
	CustomerPhone        string               `json:"customer_phone,omitempty"`
	OrderDiscountPercent decimal.Decimal      `json:"order_discount_percent"`
	TaxPercent           decimal.Decimal      `json:"tax_percent"`
	PaymentMethod        domain.PaymentMethod `json:"payment_method"`
}

// Snapshot is a frozen copy of a cart with its totals.
type Snapshot struct {
	Fields Fields
	Lines  []Line
	Totals pricing.Totals
}

type Cart struct {
	stock  StockSource
	lines  []Line
	fields Fields
}

func New(taxPercent decimal.Decimal) *Cart {
	return &Cart{fields: Fields{
		TaxPercent:    pricing.ClampPercent(taxPercent),
		PaymentMethod: domain.PaymentCash,
	}}
}

// SetStock swaps the stock view without touching lines.
func (c *Cart) SetStock(s StockSource) { c.stock = s }

// SelectBranch switches the branch. Lines are dropped when the branch
// changes since their stock ceilings belong to the previous branch.
func (c *Cart) SelectBranch(branchID string, s StockSource) {
	if branchID != c.fields.BranchID {
		c.lines = nil
	}
	c.fields.BranchID = branchID
	c.stock = s
}

func (c *Cart) SelectStaff(staffID string) { c.fields.StaffID = staffID }

func (c *Cart) SetCustomer(name, phone string) {
	c.fields.CustomerName = name
	c.fields.CustomerPhone = phone
}

func (c *Cart) SetOrderDiscount(p decimal.Decimal) {
	c.fields.OrderDiscountPercent = pricing.ClampPercent(p)
}

func (c *Cart) SetTaxPercent(p decimal.Decimal) { c.fields.TaxPercent = pricing.ClampPercent(p) }

func (c *Cart) SetPaymentMethod(m domain.PaymentMethod) error {
	pm, ok := domain.ParsePaymentMethod(string(m))
	if !ok {
		return ErrUnknownPaymentMethod
	}
	c.fields.PaymentMethod = pm
	return nil
}

// Lookup finds a product in the current stock view.
func (c *Cart) Lookup(productID string) (domain.Product, bool) {
	if c.stock == nil {
		return domain.Product{}, false
	}
	return c.stock.Product(productID)
}

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) stockOf(productID string) int {
	p, ok := c.Lookup(productID)
	if !ok {
		return 0
	}
	return p.Stock
}

// AddLine adds one unit of p. It reports false when stock would be exceeded.
func (c *Cart) AddLine(p domain.Product) bool {
	if i := c.index(p.ID); i >= 0 {
		if c.lines[i].Quantity+1 > p.Stock {
			return false
		}
		c.lines[i].Quantity++
		return true
	}
	if p.Stock < 1 {
		return false
	}
	c.lines = append(c.lines, Line{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price, Quantity: 1})
	return true
}

// SetQuantity sets a line's quantity. qty <= 0 removes the line; a quantity
// above current stock is rejected and leaves the line unchanged.
func (c *Cart) SetQuantity(productID string, qty int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		c.removeAt(i)
		return true
	}
	if qty > c.stockOf(productID) {
		return false
	}
	c.lines[i].Quantity = qty
	return true
}

func (c *Cart) SetLineDiscount(productID string, p decimal.Decimal) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.lines[i].DiscountPercent = pricing.ClampPercent(p)
	return true
}

func (c *Cart) RemoveLine(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i:i], c.lines[i+1:]...)
}

// Clear empties the cart and resets customer fields and the order discount.
// Branch, staff, tax rate and payment method are kept.
func (c *Cart) Clear() {
	c.lines = nil
	c.fields.CustomerName = ""
	c.fields.CustomerPhone = ""
	c.fields.OrderDiscountPercent = decimal.Zero
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Fields() Fields { return c.fields }

func (c *Cart) Totals() pricing.Totals {
	items := make([]pricing.Item, len(c.lines))
	for i, l := range c.lines {
		items[i] = l.item()
	}
	return pricing.Compute(items, pricing.Rates{
		OrderDiscountPercent: c.fields.OrderDiscountPercent,
		TaxPercent:           c.fields.TaxPercent,
	})
}

func (c *Cart) Freeze() Snapshot {
	return Snapshot{Fields: c.fields, Lines: c.Lines(), Totals: c.Totals()}
}
