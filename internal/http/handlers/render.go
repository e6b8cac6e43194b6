package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "shopdesk/internal/log"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if sess := currentSession(c); sess != nil {
		data["User"] = sess.User
		data["Business"] = sess.Business
	}
	// the csrf middleware leaves its token in Locals; the cookie covers
	// handlers mounted without it
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// fail answers with JSON on the API and with the error page elsewhere.
func fail(c *fiber.Ctx, status int, msg string) error {
	if isAPI(c) {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	return c.Status(status).Render("error", fiber.Map{"Message": msg})
}

func wantsJSON(c *fiber.Ctx) bool {
	return isAPI(c) || c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// ErrorHandler logs unexpected errors and hides their details from callers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			msg = fe.Message
		}
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(code).Render("error", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
