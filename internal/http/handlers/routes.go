package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "shopdesk/internal/log"
)

// Limits tunes the per-route rate limiters.
type Limits struct {
	Login              int
	LoginWindow        time.Duration
	Availability       int
	AvailabilityWindow time.Duration
}

func DefaultLimits() Limits {
	return Limits{Login: 5, LoginWindow: 10 * time.Minute, Availability: 15, AvailabilityWindow: 30 * time.Second}
}

// Routes mounts every application route on app.
func Routes(app *fiber.App, d *Deps, l Limits) {
	loginLimiter := limiter.New(limiter.Config{
		Max:        l.Login,
		Expiration: l.LoginWindow,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			if wantsJSON(c) {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
			}
			c.Status(fiber.StatusTooManyRequests)
			return render(c, "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	})
	availLimiter := limiter.New(limiter.Config{
		Max:        l.Availability,
		Expiration: l.AvailabilityWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})

	app.Use(exposeCSRF)

	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", loginLimiter, d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)

	staff := RequireStaff(d.Auth)
	app.Get("/", staff, d.OrderHandler.Home)
	app.Get("/orders/:id/receipt", staff, d.OrderHandler.Receipt)

	api := app.Group("/api/v1", staff)
	d.RegisterHandler.Mount(api)
	api.Get("/catalog", d.CatalogHandler.Products)
	api.Get("/categories", d.CatalogHandler.Categories)
	api.Get("/branches", d.CatalogHandler.Branches)
	api.Get("/orders", d.OrderHandler.History)
	api.Get("/availability", availLimiter, d.InventoryHandler.Check)

	admin := app.Group("/admin", staff, RequireManager())
	admin.Get("/inventory", d.AdminHandler.Inventory)
	admin.Post("/inventory", d.AdminHandler.UpdateInventory)
}
