package handlers

import (
	"github.com/gofiber/fiber/v2"

	"kinshop/internal/services"
	"kinshop/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// Check handles GET /api/v1/availability?productId=...
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}

	avail, err := h.Inv.CheckAvailability(productID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not check availability"})
	}
	return c.JSON(avail)
}
