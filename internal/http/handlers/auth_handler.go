package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"shopdesk/internal/log"
	"shopdesk/internal/services"
	"shopdesk/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
	Cart *services.CartService
}

func sidCookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     "sid",
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable true behind TLS
		Expires:  expires,
	}
}

// newSID issues a fresh sid cookie. Login never reuses a client-supplied sid.
func newSID(c *fiber.Ctx) string {
	sid := uuid.NewString()
	c.Cookie(sidCookie(sid, time.Time{}))
	return sid
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, email, reason string) error {
	log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
	if wantsJSON(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}
	c.Status(fiber.StatusUnauthorized)
	return render(c, "login", fiber.Map{"Err": "Invalid email or password"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		return h.loginFailed(c, c.FormValue("email"), "bad_format")
	}
	pass := c.FormValue("password")
	if !validate.Password(pass) {
		return h.loginFailed(c, email, "bad_password_format")
	}

	sess, err := h.Auth.Login(c.UserContext(), newSID(c), email, pass)
	if errors.Is(err, services.ErrBadCreds) {
		return h.loginFailed(c, email, "bad_credentials")
	}
	if err != nil {
		return err
	}
	c.Locals("user_id", sess.User.ID)

	// start at the staff member's home branch when they have one
	if sess.User.BranchID != "" {
		if err := h.Cart.SelectBranch(c.UserContext(), sess, sess.User.BranchID); err != nil {
			log.Info(c, "auth.login.branch_skipped", map[string]any{"branch": sess.User.BranchID, "error": err.Error()})
		} else {
			_ = h.Cart.SelectStaff(c.UserContext(), sess, sess.User.ID)
		}
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email, "business": sess.Business.ID})
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"user": sess.User, "business": sess.Business, "register": h.Cart.View(sess)})
	}
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			log.Error(c, "auth.logout.fail", err, nil)
		}
	}
	c.Cookie(sidCookie("", time.Now().Add(-1*time.Hour)))
	log.Audit(c, "auth.logout", nil)
	if wantsJSON(c) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Redirect("/login")
}
