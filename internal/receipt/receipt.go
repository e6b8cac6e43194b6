// Package receipt formats committed sales for printing.
package receipt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"shopdesk/internal/domain"
	"shopdesk/internal/pricing"
)

const width = 40

// Receipt is the immutable record captured at commit time.
type Receipt struct {
	Business domain.Business    `json:"business"`
	Branch   domain.Branch      `json:"branch"`
	Order    domain.Order       `json:"order"`
	Lines    []domain.OrderLine `json:"lines"`
}

func (r Receipt) money(v decimal.Decimal) string {
	if r.Business.Currency == "" {
		return v.StringFixed(2)
	}
	return r.Business.Currency + " " + v.StringFixed(2)
}

func row(label, value string) string {
	gap := width - utf8.RuneCountInString(label) - utf8.RuneCountInString(value)
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + value
}

func center(s string) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}

func (r Receipt) footer() string {
	if r.Business.ReceiptFooter != "" {
		return r.Business.ReceiptFooter
	}
	return "Thank you for your business!"
}

// Text renders the receipt for a 40 column printer.
func (r Receipt) Text() string {
	o := r.Order
	thick, thin := strings.Repeat("=", width), strings.Repeat("-", width)

	var b []string
	b = append(b, thick, center(r.Business.Name))
	for _, s := range []string{r.Business.Address, r.Business.Phone} {
		if s != "" {
			b = append(b, center(s))
		}
	}
	if r.Business.TaxNumber != "" {
		b = append(b, center("Tax No: "+r.Business.TaxNumber))
	}
	b = append(b, thick)
	b = append(b, fmt.Sprintf("Receipt #%s", o.Number()))
	b = append(b, fmt.Sprintf("Date: %s", o.CreatedAt.Local().Format("2006-01-02 15:04")))
	if r.Branch.Name != "" {
		b = append(b, fmt.Sprintf("Branch: %s", r.Branch.Name))
	}
	if o.CustomerName != "" {
		b = append(b, fmt.Sprintf("Customer: %s", o.CustomerName))
	}
	if o.CustomerPhone != "" {
		b = append(b, fmt.Sprintf("Phone: %s", o.CustomerPhone))
	}
	b = append(b, thin)

	for _, l := range r.Lines {
		b = append(b, l.Name)
		b = append(b, row(fmt.Sprintf("  %d x %s", l.Quantity, l.UnitPrice.StringFixed(2)), l.LineTotal.StringFixed(2)))
		if l.DiscountAmount.IsPositive() {
			b = append(b, row(fmt.Sprintf("  less %s%%", l.DiscountPercent.String()), "-"+l.DiscountAmount.StringFixed(2)))
		}
	}

	b = append(b, thin)
	b = append(b, row("Subtotal:", r.money(o.Subtotal)))
	if pricing.Round(o.DiscountAmount).IsPositive() {
		b = append(b, row(fmt.Sprintf("Discount (%s%%):", o.DiscountPercent.String()), "-"+r.money(o.DiscountAmount)))
	}
	b = append(b, row(fmt.Sprintf("Tax (%s%%):", o.TaxPercent.String()), r.money(o.TaxAmount)))
	b = append(b, thin)
	b = append(b, row("TOTAL:", r.money(o.Total)))
	b = append(b, fmt.Sprintf("Payment Method: %s", strings.ToUpper(string(o.PaymentMethod))))
	b = append(b, thick, center(r.footer()), thick)

	return strings.Join(b, "\n") + "\n"
}

// ViewLine and View carry preformatted values for the HTML template.
type ViewLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	Discount  string
	Total     string
}

type View struct {
	Business      domain.Business
	Branch        string
	Number        string
	Date          string
	CustomerName  string
	CustomerPhone string
	Lines         []ViewLine
	Subtotal      string
	DiscountPct   string
	Discount      string
	TaxPct        string
	Tax           string
	Total         string
	Currency      string
	Payment       string
	Footer        string
}

func (r Receipt) View() View {
	o := r.Order
	v := View{
		Business:      r.Business,
		Branch:        r.Branch.Name,
		Number:        o.Number(),
		Date:          o.CreatedAt.Local().Format("2006-01-02 15:04"),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Subtotal:      o.Subtotal.StringFixed(2),
		DiscountPct:   o.DiscountPercent.String(),
		TaxPct:        o.TaxPercent.String(),
		Tax:           o.TaxAmount.StringFixed(2),
		Total:         o.Total.StringFixed(2),
		Currency:      r.Business.Currency,
		Payment:       strings.ToUpper(string(o.PaymentMethod)),
		Footer:        r.footer(),
	}
	if pricing.Round(o.DiscountAmount).IsPositive() {
		v.Discount = o.DiscountAmount.StringFixed(2)
	}
	for _, l := range r.Lines {
		vl := ViewLine{Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice.StringFixed(2), Total: l.LineTotal.StringFixed(2)}
		if l.DiscountAmount.IsPositive() {
			vl.Discount = l.DiscountAmount.StringFixed(2)
		}
		v.Lines = append(v.Lines, vl)
	}
	return v
}
