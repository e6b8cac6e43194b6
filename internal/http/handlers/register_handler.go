package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"shopdesk/internal/checkout"
	applog "shopdesk/internal/log"
	"shopdesk/internal/services"
	"shopdesk/internal/validate"
)

// RegisterHandler exposes the session's cart and checkout over JSON.
type RegisterHandler struct {
	Cart *services.CartService
}

// Mount wires the register routes under r; r must already require staff.
func (h *RegisterHandler) Mount(r fiber.Router) {
	g := r.Group("/register")
	g.Get("/", h.View)
	g.Delete("/", h.Clear)
	g.Put("/branch", h.SelectBranch)
	g.Get("/staff", h.StaffList)
	g.Put("/staff", h.SelectStaff)
	g.Put("/settings", h.Settings)
	g.Post("/lines", h.AddLine)
	g.Put("/lines/:id", h.SetQuantity)
	g.Put("/lines/:id/discount", h.SetDiscount)
	g.Delete("/lines/:id", h.RemoveLine)
	g.Post("/commit", h.Commit)
	g.Get("/receipt", h.LastReceipt)
}

func (h *RegisterHandler) view(c *fiber.Ctx, sess *services.Session) error {
	return c.JSON(h.Cart.View(sess))
}

func (h *RegisterHandler) View(c *fiber.Ctx) error {
	return h.view(c, currentSession(c))
}

func (h *RegisterHandler) Clear(c *fiber.Ctx) error {
	sess := currentSession(c)
	h.Cart.Clear(sess)
	return h.view(c, sess)
}

func (h *RegisterHandler) SelectBranch(c *fiber.Ctx) error {
	var in struct {
		BranchID string `json:"branch_id" form:"branch_id"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	id, ok := validate.ID(in.BranchID)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "branch_id"})
		return fail(c, fiber.StatusBadRequest, "invalid branch")
	}
	sess := currentSession(c)
	if err := h.Cart.SelectBranch(c.UserContext(), sess, id); err != nil {
		return cartError(c, err)
	}
	return h.view(c, sess)
}

func (h *RegisterHandler) StaffList(c *fiber.Ctx) error {
	staff, err := h.Cart.Staff(c.UserContext(), currentSession(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"staff": staff})
}

func (h *RegisterHandler) SelectStaff(c *fiber.Ctx) error {
	var in struct {
		StaffID string `json:"staff_id" form:"staff_id"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	id := in.StaffID
	if id != "" {
		var ok bool
		if id, ok = validate.ID(id); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "staff_id"})
			return fail(c, fiber.StatusBadRequest, "invalid staff id")
		}
	}
	sess := currentSession(c)
	if err := h.Cart.SelectStaff(c.UserContext(), sess, id); err != nil {
		return cartError(c, err)
	}
	return h.view(c, sess)
}

type settingsBody struct {
	CustomerName    *string      `json:"customer_name"`
	CustomerPhone   *string      `json:"customer_phone"`
	DiscountPercent *json.Number `json:"discount_percent"`
	TaxPercent      *json.Number `json:"tax_percent"`
	PaymentMethod   *string      `json:"payment_method"`
}

func (h *RegisterHandler) Settings(c *fiber.Ctx) error {
	var in settingsBody
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	var s services.Settings
	if in.CustomerName != nil {
		name, ok := validate.Name(*in.CustomerName)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "customer_name"})
			return fail(c, fiber.StatusBadRequest, "invalid customer name")
		}
		s.CustomerName = &name
	}
	if in.CustomerPhone != nil {
		phone, ok := validate.Phone(*in.CustomerPhone)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "customer_phone"})
			return fail(c, fiber.StatusBadRequest, "invalid customer phone")
		}
		s.CustomerPhone = &phone
	}
	if in.DiscountPercent != nil {
		d, ok := validate.Percent(in.DiscountPercent.String())
		if !ok {
			return fail(c, fiber.StatusBadRequest, "invalid discount percent")
		}
		s.OrderDiscount = &d
	}
	if in.TaxPercent != nil {
		d, ok := validate.Percent(in.TaxPercent.String())
		if !ok {
			return fail(c, fiber.StatusBadRequest, "invalid tax percent")
		}
		s.TaxPercent = &d
	}
	s.PaymentMethod = in.PaymentMethod

	sess := currentSession(c)
	if err := h.Cart.UpdateSettings(sess, s); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	return h.view(c, sess)
}

func (h *RegisterHandler) AddLine(c *fiber.Ctx) error {
	var in struct {
		ProductID string `json:"product_id" form:"product_id"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	pid, ok := validate.ID(in.ProductID)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return fail(c, fiber.StatusBadRequest, "invalid product")
	}
	sess := currentSession(c)
	added, err := h.Cart.Add(c.UserContext(), sess, pid)
	if err != nil {
		return cartError(c, err)
	}
	if !added {
		return fail(c, fiber.StatusConflict, "not enough stock")
	}
	return h.view(c, sess)
}

func (h *RegisterHandler) SetQuantity(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product")
	}
	var in struct {
		Quantity json.Number `json:"quantity" form:"quantity"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	qty, ok := validate.Qty(in.Quantity.String())
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "quantity"})
		return fail(c, fiber.StatusBadRequest, "invalid quantity")
	}
	sess := currentSession(c)
	ok, err := h.Cart.SetQuantity(c.UserContext(), sess, pid, qty)
	if err != nil {
		return err
	}
	if !ok {
		return fail(c, fiber.StatusConflict, "line not in cart or not enough stock")
	}
	return h.view(c, sess)
}

func (h *RegisterHandler) SetDiscount(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product")
	}
	var in struct {
		Percent json.Number `json:"discount_percent" form:"discount_percent"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	pct, ok := validate.Percent(in.Percent.String())
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid discount percent")
	}
	sess := currentSession(c)
	if !h.Cart.SetDiscount(sess, pid, pct) {
		return fail(c, fiber.StatusNotFound, "line not in cart")
	}
	return h.view(c, sess)
}

func (h *RegisterHandler) RemoveLine(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product")
	}
	sess := currentSession(c)
	if !h.Cart.Remove(sess, pid) {
		return fail(c, fiber.StatusNotFound, "line not in cart")
	}
	return h.view(c, sess)
}

// Commit runs the checkout. A rejected commit (empty cart, no branch)
// answers 200 with the unchanged register; a failed one answers 409 and
// keeps the cart for a retry.
func (h *RegisterHandler) Commit(c *fiber.Ctx) error {
	sess := currentSession(c)
	res, err := h.Cart.Commit(c.UserContext(), sess)
	switch {
	case errors.Is(err, checkout.ErrCommitInProgress):
		return fail(c, fiber.StatusConflict, "a commit is already in progress")
	case err != nil:
		applog.Error(c, "register.commit.fail", err, map[string]any{"business": sess.Business.ID})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"state":    res.State,
			"error":    "Could not complete the sale. Please review quantities and try again.",
			"register": h.Cart.View(sess),
		})
	case res.Receipt == nil:
		return c.JSON(fiber.Map{"state": res.State, "register": h.Cart.View(sess)})
	}
	o := res.Receipt.Order
	applog.Audit(c, "register.commit", map[string]any{
		"order_id": o.ID,
		"branch":   o.BranchID,
		"total":    o.Total.StringFixed(2),
		"lines":    len(res.Receipt.Lines),
	})
	return c.JSON(fiber.Map{
		"state":   res.State,
		"order":   o,
		"number":  o.Number(),
		"receipt": res.Receipt.Text(),
	})
}

func (h *RegisterHandler) LastReceipt(c *fiber.Ctx) error {
	rc, ok := currentSession(c).Register.LastReceipt()
	if !ok {
		return fail(c, fiber.StatusNotFound, "no sale committed yet")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(rc.Text())
}

func cartError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNoBranch):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrBranchNotFound),
		errors.Is(err, services.ErrStaffNotFound),
		errors.Is(err, services.ErrProductNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	return err
}
