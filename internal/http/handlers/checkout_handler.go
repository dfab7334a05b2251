package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kinshop/internal/domain"
	applog "kinshop/internal/log"
	"kinshop/internal/services"
	"kinshop/internal/validate"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
	Cart     *services.CartService
	Auth     *services.AuthService
}

type checkoutLine struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	Subtotal    int64  `json:"subtotal"`
}

type guestCheckoutData struct {
	Email         string              `json:"email"`
	Name          string              `json:"name"`
	Phone         string              `json:"phone"`
	Address       domain.AddressInput `json:"address"`
	CreateAccount bool                `json:"createAccount"`
	Password      string              `json:"password"`
}

type guestCheckoutRequest struct {
	CartItems    []checkoutLine    `json:"cartItems"`
	CheckoutData guestCheckoutData `json:"checkoutData"`
	DeliveryType string            `json:"deliveryType"`
}

type registeredCheckoutRequest struct {
	CartItems    []checkoutLine       `json:"cartItems"`
	AddressID    string               `json:"addressId"`
	NewAddress   *domain.AddressInput `json:"newAddress"`
	DeliveryType string               `json:"deliveryType"`
}

func toOrderLines(items []checkoutLine) []domain.OrderLineInput {
	out := make([]domain.OrderLineInput, 0, len(items))
	for _, it := range items {
		qty := validate.Qty(it.Quantity)
		out = append(out, domain.OrderLineInput{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    qty,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.UnitPrice * int64(qty),
		})
	}
	return out
}

func checkoutStatus(err error) int {
	var ve *services.ValidationError
	var sc *services.StockConflictError
	var ie *services.IdentityError
	switch {
	case errors.As(err, &ve), errors.As(err, &sc):
		return fiber.StatusBadRequest
	case errors.As(err, &ie):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func (h *CheckoutHandler) respond(c *fiber.Ctx, sid string, placed services.PlacedOrder, err error) error {
	if err != nil {
		status := checkoutStatus(err)
		if status >= fiber.StatusInternalServerError {
			applog.Error(c, "checkout.fail", err, map[string]any{"sid": sid})
			// The cart stays intact so the shopper can retry.
			return c.Status(status).JSON(fiber.Map{"error": "could not place order, please try again"})
		}
		applog.Security(c, "checkout.reject", map[string]any{"sid": sid, "reason": err.Error()})
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	// Success: the orchestrator's caller owns clearing the cart.
	if st, cerr := h.Cart.Open(sid); cerr == nil {
		st.Clear()
	}

	// The cart page shows a VAT-inclusive figure that is never persisted;
	// record both totals so the discrepancy stays observable.
	displayTotal := placed.Subtotal + int64(float64(placed.Subtotal)*domain.DisplayVATRate) + placed.ShippingCost
	applog.Audit(c, "order.place", map[string]any{
		"order_id":      placed.OrderID,
		"order_number":  placed.OrderNumber,
		"total":         placed.Total,
		"display_total": displayTotal,
		"vat_mismatch":  displayTotal != placed.Total,
	})
	return c.JSON(fiber.Map{
		"success":      true,
		"orderId":      placed.OrderID,
		"orderNumber":  placed.OrderNumber,
		"subtotal":     placed.Subtotal,
		"shippingCost": placed.ShippingCost,
		"total":        placed.Total,
	})
}

// Guest handles POST /api/v1/checkout/guest.
func (h *CheckoutHandler) Guest(c *fiber.Ctx) error {
	sid := ensureSID(c)

	var req guestCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(req.CartItems) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cart is empty"})
	}

	email, ok := validate.Email(req.CheckoutData.Email)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}
	name, ok := validate.Name(req.CheckoutData.Name)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid name"})
	}
	phone, ok := validate.Phone(req.CheckoutData.Phone)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "phone"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid phone number"})
	}
	if day, ok := validate.DeliveryDay(req.CheckoutData.Address.PreferredDeliveryDay); ok {
		req.CheckoutData.Address.PreferredDeliveryDay = day
	} else {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid delivery day"})
	}

	placed, err := h.Checkout.Place(services.OrderRequest{
		Buyer: domain.BuyerIdentity{Guest: &domain.GuestContact{
			Email:         email,
			Name:          name,
			Phone:         phone,
			CreateAccount: req.CheckoutData.CreateAccount,
			Password:      req.CheckoutData.Password,
		}},
		NewAddress:   &req.CheckoutData.Address,
		DeliveryType: domain.DeliveryType(req.DeliveryType),
		Lines:        toOrderLines(req.CartItems),
	})
	return h.respond(c, sid, placed, err)
}

// Registered handles POST /api/v1/checkout/registered; requires a session
// bound to a customer.
func (h *CheckoutHandler) Registered(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if sid == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}
	cust, err := h.Auth.Current(sid)
	if err != nil {
		applog.Security(c, "checkout.session.invalid", map[string]any{"sid": sid})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid session"})
	}

	var req registeredCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(req.CartItems) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cart is empty"})
	}
	if req.AddressID == "" && req.NewAddress == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing delivery address"})
	}

	placed, err := h.Checkout.Place(services.OrderRequest{
		Buyer:        domain.BuyerIdentity{CustomerID: cust.ID},
		AddressID:    req.AddressID,
		NewAddress:   req.NewAddress,
		DeliveryType: domain.DeliveryType(req.DeliveryType),
		Lines:        toOrderLines(req.CartItems),
	})
	return h.respond(c, sid, placed, err)
}

// Profile handles GET /api/v1/checkout/profile: contact prefill plus saved
// addresses for the logged-in shopper, or {guest:true} otherwise.
func (h *CheckoutHandler) Profile(c *fiber.Ctx) error {
	profile, err := h.Auth.CheckoutProfile(c.Cookies("sid"))
	if err != nil {
		applog.Error(c, "checkout.profile", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load profile"})
	}
	if profile == nil {
		return c.JSON(fiber.Map{"guest": true})
	}
	return c.JSON(fiber.Map{
		"guest": false,
		"contact": fiber.Map{
			"email": profile.Customer.Email,
			"name":  profile.Customer.Name,
			"phone": profile.Customer.Phone,
		},
		"addresses": profile.Addresses,
	})
}
