package repos_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shopdesk/internal/cart"
	"shopdesk/internal/catalog"
	"shopdesk/internal/checkout"
	"shopdesk/internal/domain"
	"shopdesk/internal/repos"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func stockOf(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT stock_quantity FROM products WHERE id = ?`, id))
	return n
}

func countOrders(t *testing.T, db *sqlx.DB) (orders, items int) {
	t.Helper()
	require.NoError(t, db.Get(&orders, `SELECT COUNT(*) FROM orders`))
	require.NoError(t, db.Get(&items, `SELECT COUNT(*) FROM order_items`))
	return orders, items
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openDB(t)
	require.NoError(t, repos.Migrate(db))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM businesses`))
	assert.Equal(t, 1, n)
}

func TestSeededPasswordsAreHashed(t *testing.T) {
	db := openDB(t)
	var hashes []string
	require.NoError(t, db.Select(&hashes, `SELECT password_hash FROM users`))
	require.NotEmpty(t, hashes)
	for _, h := range hashes {
		assert.NotContains(t, h, repos.DemoPassword)
		assert.True(t, strings.HasPrefix(h, "$2"))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte(repos.DemoPassword)))
	}
}

func TestListProductsScopesToBranch(t *testing.T) {
	db := openDB(t)
	pr := repos.NewProductRepo(db)
	ctx := context.Background()

	main, err := pr.ListProducts(ctx, "demo", "br-main")
	require.NoError(t, err)
	var names []string
	for _, p := range main {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Basmati Rice 5kg", "Filter Coffee 500g", "Masala Tea 250g", "Sandal Soap"}, names)
	assert.True(t, main[0].Price.Equal(decimal.RequireFromString("599")))
	assert.Equal(t, "br-main", main[0].BranchID)
	assert.Empty(t, main[1].BranchID)

	annex, err := pr.ListProducts(ctx, "demo", "br-annex")
	require.NoError(t, err)
	assert.Len(t, annex, 3)

	other, err := pr.ListProducts(ctx, "nobody", "br-main")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = pr.Get(ctx, "demo", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfilesAndCategories(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	br := repos.NewBusinessRepo(db)

	b, err := br.Business(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "Corner Store", b.Name)
	assert.Equal(t, "Thank you for your business!", b.ReceiptFooter)

	closed, err := br.Branch(ctx, "demo", "br-closed")
	require.NoError(t, err)
	assert.False(t, closed.Active)

	_, err = br.Branch(ctx, "other", "br-main")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	active, err := br.ActiveBranches(ctx, "demo")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	cats, err := repos.NewCategoryRepo(db).List(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"Beverages", "Grocery", "Personal Care", "Stationery"}, cats)
}

func TestDecrementIsConditional(t *testing.T) {
	db := openDB(t)
	inv := repos.NewInventoryRepo(db)
	ctx := context.Background()

	require.NoError(t, inv.Decrement(ctx, db, "p-soap", 2))
	assert.Equal(t, 1, stockOf(t, db, "p-soap"))

	err := inv.Decrement(ctx, db, "p-soap", 2)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, stockOf(t, db, "p-soap"))

	require.NoError(t, inv.SetStock(ctx, "demo", "p-soap", 9))
	qty, minStock, err := inv.Stock(ctx, "demo", "p-soap")
	require.NoError(t, err)
	assert.Equal(t, 9, qty)
	assert.Equal(t, 5, minStock)

	assert.ErrorIs(t, inv.SetStock(ctx, "demo", "nope", 1), domain.ErrNotFound)
}

func TestUserSessions(t *testing.T) {
	db := openDB(t)
	ur := repos.NewUserRepo(db)
	ctx := context.Background()

	u, err := ur.ByEmail(ctx, "CASHIER@shopdesk.test")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCashier, u.Role)
	assert.Equal(t, "br-main", u.BranchID)

	require.NoError(t, ur.BindSession(ctx, "sid-1", u.ID))
	su, err := ur.SessionUser(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, su.ID)

	require.NoError(t, ur.UnbindSession(ctx, "sid-1"))
	_, err = ur.SessionUser(ctx, "sid-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	owner, err := ur.Staff(ctx, "demo", "u-owner")
	require.NoError(t, err)
	assert.Empty(t, owner.BranchID)
}

func newRegister(t *testing.T, db *sqlx.DB, cat *catalog.Catalog) *checkout.Register {
	t.Helper()
	snap, err := cat.Snapshot(context.Background(), "demo", "br-main")
	require.NoError(t, err)
	c := cart.New(decimal.NewFromInt(18))
	c.SelectBranch("br-main", snap)
	return checkout.NewRegister("demo", c, checkout.Deps{
		Ledger:   repos.NewSalesStore(db),
		Profiles: repos.NewBusinessRepo(db),
		Catalog:  cat,
	})
}

func addN(reg *checkout.Register, id string, n int) {
	reg.Edit(func(c *cart.Cart) {
		p, _ := c.Lookup(id)
		for i := 0; i < n; i++ {
			c.AddLine(p)
		}
	})
}

func TestCommitPersistsOrder(t *testing.T) {
	db := openDB(t)
	cat := catalog.New(repos.NewProductRepo(db), catalog.NewMemoryCache(time.Minute))
	reg := newRegister(t, db, cat)

	addN(reg, "p-tea", 2)
	addN(reg, "p-soap", 1)
	reg.Edit(func(c *cart.Cart) {
		c.SetLineDiscount("p-soap", decimal.NewFromInt(50))
		c.SetOrderDiscount(decimal.NewFromInt(10))
		c.SelectStaff("u-cashier")
		c.SetCustomer("Lata", "98111")
		require.NoError(t, c.SetPaymentMethod(domain.PaymentMobile))
	})

	res, err := reg.Commit(context.Background())
	require.NoError(t, err)
	require.Equal(t, checkout.Committed, res.State)

	o, lines, err := repos.NewOrderRepo(db).Get(context.Background(), "demo", res.Receipt.Order.ID)
	require.NoError(t, err)
	// 2*145 + 45*0.5 = 312.50; -10% = 281.25; +18% = 331.875
	assert.Equal(t, "312.50", o.Subtotal.StringFixed(2))
	assert.Equal(t, "31.25", o.DiscountAmount.StringFixed(2))
	assert.Equal(t, "50.63", o.TaxAmount.StringFixed(2))
	assert.Equal(t, "331.88", o.Total.StringFixed(2))
	assert.True(t, o.TaxPercent.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, domain.PaymentMobile, o.PaymentMethod)
	assert.Equal(t, "u-cashier", o.StaffID)
	assert.WithinDuration(t, time.Now(), o.CreatedAt, time.Minute)

	require.Len(t, lines, 2)
	assert.Equal(t, "p-tea", lines[0].ProductID)
	assert.Equal(t, "22.50", lines[1].LineTotal.StringFixed(2))

	assert.Equal(t, 38, stockOf(t, db, "p-tea"))
	assert.Equal(t, 2, stockOf(t, db, "p-soap"))

	// the register sees the new stock ceiling
	reg.View(func(c *cart.Cart, _ checkout.State) {
		p, ok := c.Lookup("p-soap")
		require.True(t, ok)
		assert.Equal(t, 2, p.Stock)
	})

	summaries, err := repos.NewOrderRepo(db).ListLatest(context.Background(), "demo", "br-main", 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].Items)
	assert.Equal(t, "331.88", summaries[0].Total)
	assert.Equal(t, "Cal Cashier", summaries[0].StaffName)
}

func TestFailedCommitRollsBackEverything(t *testing.T) {
	db := openDB(t)
	cat := catalog.New(repos.NewProductRepo(db), catalog.NewMemoryCache(time.Minute))
	reg := newRegister(t, db, cat)

	addN(reg, "p-tea", 1)
	addN(reg, "p-soap", 3)
	// stock drops behind the register's back
	require.NoError(t, repos.NewInventoryRepo(db).SetStock(context.Background(), "demo", "p-soap", 2))

	_, err := reg.Commit(context.Background())
	require.ErrorIs(t, err, checkout.ErrCommitFailed)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	orders, items := countOrders(t, db)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Equal(t, 40, stockOf(t, db, "p-tea"))
	assert.Equal(t, 2, stockOf(t, db, "p-soap"))

	reg.View(func(c *cart.Cart, s checkout.State) {
		assert.Equal(t, 2, c.Len())
		assert.Equal(t, checkout.Failed, s)
	})
}

func TestConcurrentCommitsNeverOversell(t *testing.T) {
	db := openDB(t)
	cat := catalog.New(repos.NewProductRepo(db), catalog.NewMemoryCache(time.Minute))

	// soap has 3 units; the first two sales use exactly all of them
	a, b, c := newRegister(t, db, cat), newRegister(t, db, cat), newRegister(t, db, cat)
	addN(a, "p-soap", 2)
	addN(b, "p-soap", 1)
	addN(c, "p-soap", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, reg := range []*checkout.Register{a, b} {
		wg.Add(1)
		go func(i int, reg *checkout.Register) {
			defer wg.Done()
			_, errs[i] = reg.Commit(context.Background())
		}(i, reg)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 0, stockOf(t, db, "p-soap"))

	_, err := c.Commit(context.Background())
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 0, stockOf(t, db, "p-soap"))

	orders, _ := countOrders(t, db)
	assert.Equal(t, 2, orders)
}
