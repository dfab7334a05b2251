package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "kinshop/internal/log"
	"kinshop/internal/repos"
	"kinshop/internal/services"
	"kinshop/internal/validate"
)

type OrderHandler struct {
	Orders    *repos.OrderRepo
	Customers *repos.CustomerRepo
	Auth      *services.AuthService
}

// View handles GET /api/v1/orders/:id, the order-confirmation read.
// Registered customers may only see their own orders. Guest orders have no
// session to check against and are reachable by their opaque id alone.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	orderID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	order, items, err := h.Orders.Get(orderID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	owner, err := h.Customers.ByID(order.CustomerID)
	if err != nil {
		applog.Error(c, "order.view", err, map[string]any{"order_id": orderID})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	if !owner.IsGuest {
		cust, err := h.Auth.Current(c.Cookies("sid"))
		if err != nil || cust.ID != order.CustomerID {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": orderID})
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		}
	}

	return c.JSON(fiber.Map{"order": order, "items": items})
}
