package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopdesk/internal/services"
	"shopdesk/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("product"))
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing product",
		})
	}
	productID, ok := validate.ID(productID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product",
		})
	}

	avail, err := h.Inv.CheckAvailability(c.UserContext(), currentSession(c).Business.ID, productID)
	if err != nil {
		return err
	}
	return c.JSON(avail)
}
