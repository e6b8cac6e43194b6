package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Business is the tenant profile printed on receipts.
type Business struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Address       string `db:"address" json:"address"`
	Phone         string `db:"phone" json:"phone"`
	Email         string `db:"email" json:"email"`
	Currency      string `db:"currency" json:"currency"`
	TaxNumber     string `db:"tax_number" json:"tax_number,omitempty"`
	ReceiptFooter string `db:"receipt_footer" json:"receipt_footer"`
}

type Branch struct {
	ID         string `db:"id" json:"id"`
	BusinessID string `db:"business_id" json:"business_id"`
	Name       string `db:"name" json:"name"`
	Address    string `db:"address" json:"address"`
	Phone      string `db:"phone" json:"phone"`
	Active     bool   `db:"is_active" json:"active"`
}

// Product is a sellable item. An empty BranchID means the product is
// stocked by every branch of the business.
type Product struct {
	ID         string          `json:"id"`
	BusinessID string          `json:"business_id"`
	BranchID   string          `json:"branch_id,omitempty"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku,omitempty"`
	Category   string          `json:"category,omitempty"`
	Price      decimal.Decimal `json:"price"`
	CostPrice  decimal.Decimal `json:"cost_price"`
	Stock      int             `json:"stock"`
	MinStock   int             `json:"min_stock"`
	Active     bool            `json:"active"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

// AvailabilityOf classifies stock against the product's reorder level.
func AvailabilityOf(qty, minStock int) Availability {
	status := "OUT_OF_STOCK"
	switch {
	case qty > minStock:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return Availability{Status: status, Qty: qty}
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

// ParsePaymentMethod accepts the enumeration values case-insensitively.
// "upi" is kept as an alias of mobile payment.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return PaymentCash, true
	case "card":
		return PaymentCard, true
	case "mobile", "upi":
		return PaymentMobile, true
	}
	return "", false
}

const PaymentStatusPaid = "paid"

// Order is a committed sale. It is never mutated after creation.
type Order struct {
	ID              string          `json:"id"`
	BusinessID      string          `json:"business_id"`
	BranchID        string          `json:"branch_id"`
	StaffID         string          `json:"staff_id,omitempty"`
	CustomerName    string          `json:"customer_name,omitempty"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Number is the short order reference printed on receipts.
func (o Order) Number() string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}

type OrderLine struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	LineTotal       decimal.Decimal `json:"line_total"`
}
