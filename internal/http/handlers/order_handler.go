package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"shopdesk/internal/domain"
	applog "shopdesk/internal/log"
	"shopdesk/internal/repos"
	"shopdesk/internal/services"
	"shopdesk/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
	Cart   *services.CartService
}

// Home shows the register summary and the latest sales of its branch.
func (h *OrderHandler) Home(c *fiber.Ctx) error {
	sess := currentSession(c)
	orders, err := h.Orders.History(c.UserContext(), sess.Business.ID, sess.BranchID(), 10)
	if err != nil {
		applog.Error(c, "home.orders.fail", err, nil)
	}
	return render(c, "home", fiber.Map{"Register": h.Cart.View(sess), "Orders": orders})
}

// Receipt re-prints a stored order. Orders of other businesses are not found.
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	sess := currentSession(c)
	rc, err := h.Orders.Receipt(c.UserContext(), sess.Business.ID, oid)
	if errors.Is(err, domain.ErrNotFound) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	if err != nil {
		return err
	}
	if c.Query("format") == "text" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(rc.Text())
	}
	return render(c, "receipt", fiber.Map{"R": rc.View()})
}

// History lists the latest orders of the business, optionally one branch.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	branch := c.Query("branch")
	if branch != "" {
		var ok bool
		if branch, ok = validate.ID(branch); !ok {
			return fail(c, fiber.StatusBadRequest, "invalid branch")
		}
	}
	limit := 25
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 200 {
			return fail(c, fiber.StatusBadRequest, "limit must be between 1 and 200")
		}
		limit = n
	}
	orders, err := h.Orders.History(c.UserContext(), currentSession(c).Business.ID, branch, limit)
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return err
	}
	if orders == nil {
		orders = []repos.OrderSummary{}
	}
	return c.JSON(fiber.Map{"orders": orders})
}
