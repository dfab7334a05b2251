package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"kinshop/internal/cart"
	"kinshop/internal/domain"
	applog "kinshop/internal/log"
	"kinshop/internal/services"
	"kinshop/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

type cartView struct {
	Items             []domain.CartLine `json:"items"`
	TotalItems        int               `json:"totalItems"`
	TotalPrice        int64             `json:"totalPrice"`
	TotalPriceWithVAT int64             `json:"totalPriceWithVat"` // display only, never persisted
	Error             string            `json:"error,omitempty"`
	Removed           []string          `json:"removed,omitempty"`
	Reduced           []string          `json:"reduced,omitempty"`
}

func viewOf(st *cart.Store) cartView {
	return cartView{
		Items:             st.Lines(),
		TotalItems:        st.TotalItems(),
		TotalPrice:        st.TotalPrice(),
		TotalPriceWithVAT: st.TotalPriceWithVAT(),
		Error:             st.Err(),
	}
}

// View reconciles the persisted cart against live stock before returning it,
// reporting which lines were silently removed or reduced so the UI can tell
// the shopper.
func (h *CartHandler) View(c *fiber.Ctx) error {
	st, err := h.Cart.Open(ensureSID(c))
	if err != nil {
		applog.Error(c, "cart.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load cart"})
	}

	before := st.Lines()
	if err := st.Reconcile(); err != nil {
		applog.Error(c, "cart.reconcile", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not refresh stock"})
	}

	view := viewOf(st)
	for _, old := range before {
		now, ok := st.Line(old.ProductID)
		switch {
		case !ok:
			view.Removed = append(view.Removed, old.Name)
		case now.Quantity < old.Quantity:
			view.Reduced = append(view.Reduced, old.Name)
		}
	}
	return c.JSON(view)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var body struct {
		ProductID string `json:"productId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	productID, ok := validate.ID(body.ProductID)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}

	st, added, err := h.Cart.Add(ensureSID(c), productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
		}
		applog.Error(c, "cart.add", err, map[string]any{"product_id": productID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not add to cart"})
	}
	if !added {
		return c.Status(fiber.StatusConflict).JSON(viewOf(st))
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": productID})
	return c.JSON(viewOf(st))
}

func (h *CartHandler) Increment(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing product id"})
	}
	st, err := h.Cart.Open(ensureSID(c))
	if err != nil {
		applog.Error(c, "cart.increment", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load cart"})
	}
	if !st.Increment(productID) {
		return c.Status(fiber.StatusConflict).JSON(viewOf(st))
	}
	return c.JSON(viewOf(st))
}

func (h *CartHandler) Decrement(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing product id"})
	}
	st, err := h.Cart.Open(ensureSID(c))
	if err != nil {
		applog.Error(c, "cart.decrement", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load cart"})
	}
	st.Decrement(productID)
	return c.JSON(viewOf(st))
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing product id"})
	}
	st, err := h.Cart.Open(ensureSID(c))
	if err != nil {
		applog.Error(c, "cart.remove", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load cart"})
	}
	st.Remove(productID)
	return c.JSON(viewOf(st))
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	st, err := h.Cart.Open(ensureSID(c))
	if err != nil {
		applog.Error(c, "cart.clear", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load cart"})
	}
	st.Clear()
	return c.JSON(viewOf(st))
}
