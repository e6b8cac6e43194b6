package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "shopdesk/internal/log"
	"shopdesk/internal/services"
)

const sessionKey = "session"

func isAPI(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") }

func currentSession(c *fiber.Ctx) *services.Session {
	sess, _ := c.Locals(sessionKey).(*services.Session)
	return sess
}

// RequireStaff resolves the signed-in session behind the sid cookie.
// API callers get 401, pages redirect to the login form.
func RequireStaff(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := auth.Current(c.UserContext(), c.Cookies("sid"))
		if errors.Is(err, services.ErrNotSignedIn) {
			if isAPI(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
			}
			return c.Redirect("/login")
		}
		if err != nil {
			return err
		}
		c.Locals(sessionKey, sess)
		c.Locals("user", &sess.User)
		c.Locals("user_id", sess.User.ID)
		return c.Next()
	}
}

// RequireManager must run after RequireStaff.
func RequireManager() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := currentSession(c)
		if sess == nil || !sess.User.CanManageStock() {
			role := ""
			if sess != nil {
				role = sess.User.Role
			}
			applog.Security(c, "access.denied.manager", map[string]any{"role": role})
			return fail(c, fiber.StatusForbidden, "Access denied")
		}
		return c.Next()
	}
}
