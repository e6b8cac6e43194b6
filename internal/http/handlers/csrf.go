package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	applog "shopdesk/internal/log"
)

var errCSRFMissing = errors.New("csrf token missing")

// csrfToken reads the token from the X-Csrf-Token header (API clients) or
// the csrf form field (server-rendered forms).
func csrfToken(c *fiber.Ctx) (string, error) {
	if tok := c.Get("X-Csrf-Token"); tok != "" {
		return tok, nil
	}
	if tok := c.FormValue("csrf"); tok != "" {
		return tok, nil
	}
	return "", errCSRFMissing
}

// CSRF is the double-submit cookie guard for every unsafe method.
func CSRF() fiber.Handler {
	return csrf.New(csrf.Config{
		Extractor:      csrfToken,
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"error": err.Error()})
			return fail(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
		},
	})
}

// exposeCSRF copies the token to Locals("CSRFToken") for templates.
func exposeCSRF(c *fiber.Ctx) error {
	if tok, ok := c.Locals("csrf").(string); ok {
		c.Locals("CSRFToken", tok)
	}
	return c.Next()
}
