package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopdesk/internal/log"
	"shopdesk/internal/services"
	"shopdesk/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// Products lists a branch catalog; the branch defaults to the register's.
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	sess := currentSession(c)
	branch := c.Query("branch")
	if branch == "" {
		branch = sess.BranchID()
	}
	if branch == "" {
		return fail(c, fiber.StatusBadRequest, "branch is required")
	}
	branch, ok := validate.ID(branch)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "branch"})
		return fail(c, fiber.StatusBadRequest, "invalid branch")
	}
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q"})
		return fail(c, fiber.StatusBadRequest, "search text may use letters, numbers, spaces and - _ ' . /")
	}
	ps, err := h.Catalog.List(c.UserContext(), sess.Business.ID, branch, q, c.Query("category"))
	if err != nil {
		return err
	}
	if ps == nil {
		ps = []services.ProductView{}
	}
	return c.JSON(fiber.Map{"branch": branch, "products": ps})
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext(), currentSession(c).Business.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": cats})
}

func (h *CatalogHandler) Branches(c *fiber.Ctx) error {
	bs, err := h.Catalog.Branches(c.UserContext(), currentSession(c).Business.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"branches": bs})
}
