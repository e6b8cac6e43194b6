// Package pricing computes sale totals. All arithmetic keeps full decimal
// precision; callers round with Round only when persisting or displaying.
package pricing

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -2)
)

// Item is one priced line: unit price, quantity and a line discount in percent.
type Item struct {
	UnitPrice       decimal.Decimal
	Quantity        int
	DiscountPercent decimal.Decimal
}

// Rates are the order-level percentages.
type Rates struct {
	OrderDiscountPercent decimal.Decimal
	TaxPercent           decimal.Decimal
}

type LineAmount struct {
	Gross    decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

type Totals struct {
	Lines         []LineAmount
	Subtotal      decimal.Decimal
	OrderDiscount decimal.Decimal
	Taxable       decimal.Decimal
	Tax           decimal.Decimal
	GrandTotal    decimal.Decimal
}

// Line is price * quantity less the line discount.
func Line(it Item) LineAmount {
	gross := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
	disc := gross.Mul(it.DiscountPercent).Div(hundred)
	return LineAmount{Gross: gross, Discount: disc, Total: gross.Sub(disc)}
}

// Compute derives subtotal, order discount, tax and grand total. Percentages
// are expected to be clamped already.
func Compute(items []Item, r Rates) Totals {
	t := Totals{Lines: make([]LineAmount, 0, len(items))}
	for _, it := range items {
		la := Line(it)
		t.Lines = append(t.Lines, la)
		t.Subtotal = t.Subtotal.Add(la.Total)
	}
	t.OrderDiscount = t.Subtotal.Mul(r.OrderDiscountPercent).Div(hundred)
	t.Taxable = t.Subtotal.Sub(t.OrderDiscount)
	t.Tax = t.Taxable.Mul(r.TaxPercent).Div(hundred)
	t.GrandTotal = t.Taxable.Add(t.Tax)
	return t
}

// ClampPercent bounds p to [0,100] and rounds it to basis points, the
// precision percents are stored at.
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p.Round(2)
}

// Settle rounds t to cents. Line totals are adjusted a cent at a time, most
// under- or over-rounded line first, until they add up to the rounded
// subtotal. Each line discount is its gross less its total, and the grand
// total is the taxable amount plus the rounded tax.
func Settle(t Totals) Totals {
	out := Totals{Lines: make([]LineAmount, len(t.Lines))}
	sum := decimal.Zero
	for i, la := range t.Lines {
		out.Lines[i] = LineAmount{Gross: Round(la.Gross), Total: Round(la.Total)}
		sum = sum.Add(out.Lines[i].Total)
	}
	out.Subtotal = Round(t.Subtotal)
	diff := out.Subtotal.Sub(sum)
	for len(out.Lines) > 0 && !diff.IsZero() {
		step := cent
		if diff.IsNegative() {
			step = cent.Neg()
		}
		i := furthestFrom(t.Lines, out.Lines, step)
		out.Lines[i].Total = out.Lines[i].Total.Add(step)
		diff = diff.Sub(step)
	}
	for i := range out.Lines {
		out.Lines[i].Discount = out.Lines[i].Gross.Sub(out.Lines[i].Total)
	}
	out.OrderDiscount = Round(t.OrderDiscount)
	out.Taxable = out.Subtotal.Sub(out.OrderDiscount)
	out.Tax = Round(t.Tax)
	out.GrandTotal = out.Taxable.Add(out.Tax)
	return out
}

// furthestFrom picks the line whose rounded total trails its exact total
// the most in the direction of step.
func furthestFrom(exact, rounded []LineAmount, step decimal.Decimal) int {
	best, gap := 0, decimal.Zero
	for i := range exact {
		g := exact[i].Total.Sub(rounded[i].Total)
		if step.IsNegative() {
			g = g.Neg()
		}
		if i == 0 || g.GreaterThan(gap) {
			best, gap = i, g
		}
	}
	return best
}

// Round rounds half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Format renders d with exactly two decimals.
func Format(d decimal.Decimal) string { return d.StringFixed(2) }

// ToMinor converts to hundredths (cents for money, basis points for percents).
func ToMinor(d decimal.Decimal) int64 { return d.Round(2).Shift(2).IntPart() }

func FromMinor(n int64) decimal.Decimal { return decimal.New(n, -2) }
