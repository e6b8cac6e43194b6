package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"shopdesk/internal/domain"
	applog "shopdesk/internal/log"
	"shopdesk/internal/services"
	"shopdesk/internal/validate"
)

// AdminHandler serves the manager-only stock pages.
type AdminHandler struct {
	Inv    *services.InventoryService
	Orders *services.OrderService
}

// GET /admin/inventory
func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	biz := currentSession(c).Business.ID
	rows, err := h.Inv.List(c.UserContext(), biz)
	if err != nil {
		applog.Error(c, "admin.inventory.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load inventory")
	}
	ords, _ := h.Orders.History(c.UserContext(), biz, "", 25)
	return render(c, "admin_inventory", fiber.Map{"Rows": rows, "Orders": ords})
}

// POST /admin/inventory
func (h *AdminHandler) UpdateInventory(c *fiber.Ctx) error {
	pid := c.FormValue("product_id")
	qty, err := strconv.Atoi(c.FormValue("qty"))
	if _, okID := validate.ID(pid); !okID || err != nil || qty < 0 {
		applog.Security(c, "validation.fail", map[string]any{"field": "inventory"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid input")
	}
	biz := currentSession(c).Business.ID
	if err := h.Inv.SetStock(c.UserContext(), biz, pid, qty); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("unknown product")
		}
		applog.Error(c, "admin.inventory.save.fail", err, map[string]any{"product": pid, "qty": qty})
		return c.Status(fiber.StatusBadRequest).SendString("could not save inventory")
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product": pid, "qty": qty})
	return c.Redirect("/admin/inventory")
}
