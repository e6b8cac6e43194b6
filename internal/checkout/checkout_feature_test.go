package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"shopdesk/internal/cart"
	"shopdesk/internal/catalog"
	"shopdesk/internal/checkout"
	"shopdesk/internal/domain"
)

type checkoutFeature struct {
	h       *harness
	branch  string
	tax     string
	lastErr error
}

func (f *checkoutFeature) reset() {
	f.h = nil
	f.branch = ""
	f.tax = "0"
	f.lastErr = nil
}

func (f *checkoutFeature) aRegisterAtBranch(branch string, tax int) error {
	f.branch = branch
	f.tax = fmt.Sprint(tax)
	return nil
}

func (f *checkoutFeature) theBranchStocks(kQty int, kID, kPrice string, mQty int, mID, mPrice string) error {
	products := []domain.Product{
		{ID: kID, Name: kID, Price: d(kPrice), Stock: kQty},
		{ID: mID, Name: mID, Price: d(mPrice), Stock: mQty},
	}
	f.h = buildHarness(profiles{})
	f.h.ledger.stock = map[string]int{kID: kQty, mID: mQty}
	f.h.cat.products = products
	f.h.reg.Edit(func(c *cart.Cart) {
		c.SetTaxPercent(d(f.tax))
		c.SelectBranch(f.branch, catalog.NewSnapshot(f.branch, products))
	})
	return nil
}

func (f *checkoutFeature) theCartHolds(n int, id string) error {
	f.h.add(id, n)
	for _, l := range f.h.lines() {
		if l.ProductID == id && l.Quantity == n {
			return nil
		}
	}
	return fmt.Errorf("could not put %d %q in the cart", n, id)
}

func (f *checkoutFeature) anOrderDiscountOf(pct int) error {
	f.h.reg.Edit(func(c *cart.Cart) { c.SetOrderDiscount(d(fmt.Sprint(pct))) })
	return nil
}

func (f *checkoutFeature) theStoreFailsWhileWriting(step string) error {
	f.h.ledger.failStep = step
	return nil
}

func (f *checkoutFeature) soldAtAnotherRegister(n int, id string) error {
	f.h.ledger.mu.Lock()
	defer f.h.ledger.mu.Unlock()
	f.h.ledger.stock[id] -= n
	return nil
}

func (f *checkoutFeature) theRegisterCommits() error {
	_, f.lastErr = f.h.reg.Commit(context.Background())
	if f.lastErr != nil && !errors.Is(f.lastErr, checkout.ErrCommitFailed) {
		return f.lastErr
	}
	// the store recovers once a failure has been observed
	f.h.ledger.failStep = ""
	return nil
}

func (f *checkoutFeature) theQuantityIsSetTo(id string, n int) error {
	var ok bool
	f.h.reg.Edit(func(c *cart.Cart) { ok = c.SetQuantity(id, n) })
	if !ok {
		return fmt.Errorf("quantity of %q not changed", id)
	}
	return nil
}

func (f *checkoutFeature) theRegisterIs(state string) error {
	if got := f.h.reg.State().String(); got != state {
		return fmt.Errorf("expected state %s, got %s", state, got)
	}
	return nil
}

func (f *checkoutFeature) lastOrder() (domain.Order, error) {
	f.h.ledger.mu.Lock()
	defer f.h.ledger.mu.Unlock()
	if len(f.h.ledger.orders) == 0 {
		return domain.Order{}, errors.New("no order stored")
	}
	return f.h.ledger.orders[len(f.h.ledger.orders)-1], nil
}

func (f *checkoutFeature) theStoredOrderTotalIs(want string) error {
	o, err := f.lastOrder()
	if err != nil {
		return err
	}
	if !o.Total.Equal(d(want)) {
		return fmt.Errorf("expected total %s, got %s", want, o.Total)
	}
	return nil
}

func (f *checkoutFeature) theStoredTaxIs(want string) error {
	o, err := f.lastOrder()
	if err != nil {
		return err
	}
	if !o.TaxAmount.Equal(d(want)) {
		return fmt.Errorf("expected tax %s, got %s", want, o.TaxAmount)
	}
	return nil
}

func (f *checkoutFeature) noOrderIsStored() error {
	if _, err := f.lastOrder(); err == nil {
		return errors.New("an order was stored")
	}
	return nil
}

func (f *checkoutFeature) stockIs(id string, want int) error {
	f.h.ledger.mu.Lock()
	defer f.h.ledger.mu.Unlock()
	if got := f.h.ledger.stock[id]; got != want {
		return fmt.Errorf("expected %s stock %d, got %d", id, want, got)
	}
	return nil
}

func (f *checkoutFeature) theCartIsEmpty() error {
	if n := len(f.h.lines()); n != 0 {
		return fmt.Errorf("cart still has %d lines", n)
	}
	return nil
}

func (f *checkoutFeature) theCartHoldsLines(n int) error {
	if got := len(f.h.lines()); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (f *checkoutFeature) oneSaleEventWasPublished() error {
	f.h.events.mu.Lock()
	defer f.h.events.mu.Unlock()
	if len(f.h.events.sent) != 1 {
		return fmt.Errorf("expected 1 event, got %d", len(f.h.events.sent))
	}
	return nil
}

func (f *checkoutFeature) theLastErrorMentions(text string) error {
	err := f.h.reg.LastError()
	if err == nil || !strings.Contains(err.Error(), text) {
		return fmt.Errorf("last error %v does not mention %q", err, text)
	}
	return nil
}

func initializeCheckoutScenario(ctx *godog.ScenarioContext) {
	f := &checkoutFeature{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a register at branch "([^"]*)" with a tax rate of (\d+) percent$`, f.aRegisterAtBranch)
	ctx.Step(`^the branch stocks (\d+) "([^"]*)" at ([\d.]+) and (\d+) "([^"]*)" at ([\d.]+)$`, f.theBranchStocks)
	ctx.Step(`^the cart holds (\d+) "([^"]*)"$`, f.theCartHolds)
	ctx.Step(`^an order discount of (\d+) percent$`, f.anOrderDiscountOf)
	ctx.Step(`^the store fails while writing the (\w+)$`, f.theStoreFailsWhileWriting)
	ctx.Step(`^(\d+) "([^"]*)" is sold at another register$`, f.soldAtAnotherRegister)

	// When steps
	ctx.Step(`^the register commits$`, f.theRegisterCommits)
	ctx.Step(`^the "([^"]*)" quantity is set to (\d+)$`, f.theQuantityIsSetTo)

	// Then steps
	ctx.Step(`^the register is "([^"]*)"$`, f.theRegisterIs)
	ctx.Step(`^the stored order total is ([\d.]+)$`, f.theStoredOrderTotalIs)
	ctx.Step(`^the stored tax is ([\d.]+)$`, f.theStoredTaxIs)
	ctx.Step(`^no order is stored$`, f.noOrderIsStored)
	ctx.Step(`^"([^"]*)" stock is (\d+)$`, f.stockIs)
	ctx.Step(`^the cart is empty$`, f.theCartIsEmpty)
	ctx.Step(`^the cart holds (\d+) lines?$`, f.theCartHoldsLines)
	ctx.Step(`^one sale event was published$`, f.oneSaleEventWasPublished)
	ctx.Step(`^the last error mentions "([^"]*)"$`, f.theLastErrorMentions)
}

func TestCheckoutFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeCheckoutScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
