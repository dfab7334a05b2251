package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kinshop/internal/domain"
	"kinshop/internal/repos"
	"kinshop/internal/validate"
)

// Store interfaces are defined here so tests can inject failing fakes around
// the sqlx-backed repos.

type StockStore interface {
	StockFor(ids []string) (map[string]int, error)
	DecrementStock(productID string, qty int) error
	RestoreStock(productID string, qty int) error
}

type CustomerStore interface {
	ByEmail(email string) (*domain.Customer, error)
	Insert(c domain.Customer) error
	UpdateContact(id, name, phone string) error
	Delete(id string) error
}

type AddressStore interface {
	Get(id string) (domain.Address, error)
	Insert(a domain.Address) error
	Delete(id string) error
}

type OrderStore interface {
	Create(o domain.Order) error
	InsertItems(orderID string, lines []domain.OrderLineInput) error
	Delete(orderID string) error
	DeleteItems(orderID string) error
}

// OrderRequest is the single internal submission shape both checkout
// endpoints validate into before the orchestrator runs.
type OrderRequest struct {
	Buyer        domain.BuyerIdentity
	AddressID    string
	NewAddress   *domain.AddressInput
	DeliveryType domain.DeliveryType
	Lines        []domain.OrderLineInput
}

type PlacedOrder struct {
	OrderID      string `json:"orderId"`
	OrderNumber  string `json:"orderNumber"`
	Subtotal     int64  `json:"subtotal"`
	ShippingCost int64  `json:"shippingCost"`
	Total        int64  `json:"total"`
}

// CheckoutService turns a finalized cart plus buyer identity into a persisted
// order through a strictly ordered write sequence: stock verify, identity
// resolve, totals, order header, order lines, sequential stock decrements.
// Each write pushes a compensation; on failure the completed compensations
// run in reverse, so a rejected checkout leaves no writes behind.
type CheckoutService struct {
	Stock     StockStore
	Customers CustomerStore
	Addresses AddressStore
	Orders    OrderStore
}

func NewCheckoutService(stock StockStore, customers CustomerStore, addresses AddressStore, orders OrderStore) *CheckoutService {
	return &CheckoutService{Stock: stock, Customers: customers, Addresses: addresses, Orders: orders}
}

// saga collects compensating actions for completed steps.
type saga struct{ comps []func() error }

func (s *saga) push(f func() error) { s.comps = append(s.comps, f) }

// unwind runs compensations in reverse order, returning the first failure
// after attempting all of them.
func (s *saga) unwind() error {
	var first error
	for i := len(s.comps) - 1; i >= 0; i-- {
		if err := s.comps[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *CheckoutService) Place(req OrderRequest) (PlacedOrder, error) {
	if len(req.Lines) == 0 {
		return PlacedOrder{}, ErrEmptyCart
	}
	shipping, ok := domain.ShippingCost(req.DeliveryType)
	if !ok {
		return PlacedOrder{}, &ValidationError{Msg: "unknown delivery type"}
	}
	if g := req.Buyer.Guest; g != nil {
		if g.Email == "" || g.Name == "" || g.Phone == "" {
			return PlacedOrder{}, &ValidationError{Msg: "missing contact information"}
		}
		if g.CreateAccount && !validate.Password(g.Password) {
			return PlacedOrder{}, &ValidationError{Msg: "password must be at least 6 characters"}
		}
	} else if req.Buyer.CustomerID == "" {
		return PlacedOrder{}, &ValidationError{Msg: "missing buyer identity"}
	}

	// Stock verification: a fresh authoritative read always overrides whatever
	// ceiling the cart had cached. Nothing is written before this passes.
	ids := make([]string, 0, len(req.Lines))
	seen := map[string]bool{}
	for _, l := range req.Lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	recs, err := s.Stock.StockFor(ids)
	if err != nil {
		return PlacedOrder{}, fmt.Errorf("stock verification: %w", err)
	}
	for _, l := range req.Lines {
		avail, ok := recs[l.ProductID]
		if !ok || avail < l.Quantity {
			return PlacedOrder{}, &StockConflictError{ProductName: l.ProductName, Requested: l.Quantity, Available: avail}
		}
	}

	var sg saga
	fail := func(step string, err error) (PlacedOrder, error) {
		if cerr := sg.unwind(); cerr != nil {
			return PlacedOrder{}, &PartialCommitError{Step: step, Err: err, CompErr: cerr}
		}
		return PlacedOrder{}, err
	}

	customerID, err := s.resolveIdentity(req.Buyer, &sg)
	if err != nil {
		return fail("identity", err)
	}

	addressID := req.AddressID
	if addressID != "" {
		// A supplied address id must belong to the resolved buyer.
		a, aerr := s.Addresses.Get(addressID)
		if aerr != nil || a.CustomerID != customerID {
			return fail("address", &ValidationError{Msg: "unknown delivery address"})
		}
	}
	if addressID == "" {
		if req.NewAddress == nil {
			return fail("address", &ValidationError{Msg: "missing delivery address"})
		}
		in := req.NewAddress
		a := domain.Address{
			ID:                   uuid.NewString(),
			CustomerID:           customerID,
			City:                 in.City,
			District:             in.District,
			Neighborhood:         in.Neighborhood,
			Street:               in.Street,
			ParcelNumber:         in.ParcelNumber,
			Landmark:             in.Landmark,
			PreferredDeliveryDay: in.PreferredDeliveryDay,
			// A guest's fresh address is always their default.
			IsDefault: req.Buyer.Guest != nil,
		}
		if err := s.Addresses.Insert(a); err != nil {
			return fail("address", fmt.Errorf("create address: %w", err))
		}
		id := a.ID
		sg.push(func() error { return s.Addresses.Delete(id) })
		addressID = a.ID
	}

	var subtotal int64
	for _, l := range req.Lines {
		subtotal += l.UnitPrice * int64(l.Quantity)
	}
	// Persisted totals are VAT-free; the display total is logged beside them
	// at the handler so the known discrepancy stays visible.
	total := subtotal + shipping

	order := domain.Order{
		ID:            uuid.NewString(),
		OrderNumber:   newOrderNumber(),
		CustomerID:    customerID,
		AddressID:     addressID,
		Subtotal:      subtotal,
		ShippingCost:  shipping,
		Total:         total,
		DeliveryType:  req.DeliveryType,
		Status:        domain.OrderStatusPending,
		PaymentMethod: domain.PaymentCashDelivery,
	}
	if err := s.Orders.Create(order); err != nil {
		return fail("order_insert", fmt.Errorf("create order: %w", err))
	}
	sg.push(func() error { return s.Orders.Delete(order.ID) })

	if err := s.Orders.InsertItems(order.ID, req.Lines); err != nil {
		return fail("line_insert", fmt.Errorf("create order items: %w", err))
	}
	sg.push(func() error { return s.Orders.DeleteItems(order.ID) })

	// Decrements run sequentially, one conditional update per line; a loser of
	// the stock race is rejected here and the whole order unwinds.
	for _, l := range req.Lines {
		if err := s.Stock.DecrementStock(l.ProductID, l.Quantity); err != nil {
			if errors.Is(err, repos.ErrInsufficientStock) {
				return fail("stock_decrement", &StockConflictError{ProductName: l.ProductName, Requested: l.Quantity})
			}
			return fail("stock_decrement", fmt.Errorf("decrement stock: %w", err))
		}
		pid, qty := l.ProductID, l.Quantity
		sg.push(func() error { return s.Stock.RestoreStock(pid, qty) })
	}

	// Confirmation email deliberately not sent: no mail provider is wired.

	return PlacedOrder{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Total:        total,
	}, nil
}

// resolveIdentity maps the buyer to a customer row. Authenticated buyers pass
// through; guests are matched by email (contact refreshed, not compensated),
// or inserted as a new account or bare guest record with a delete
// compensation.
func (s *CheckoutService) resolveIdentity(buyer domain.BuyerIdentity, sg *saga) (string, error) {
	if buyer.Guest == nil {
		return buyer.CustomerID, nil
	}
	g := buyer.Guest

	existing, err := s.Customers.ByEmail(g.Email)
	switch {
	case err == nil:
		if uerr := s.Customers.UpdateContact(existing.ID, g.Name, g.Phone); uerr != nil {
			return "", &IdentityError{Msg: "could not update customer", Err: uerr}
		}
		return existing.ID, nil

	case errors.Is(err, sql.ErrNoRows):
		c := domain.Customer{ID: uuid.NewString(), Email: g.Email, Name: g.Name, Phone: g.Phone}
		if g.CreateAccount {
			hash, herr := bcrypt.GenerateFromPassword([]byte(g.Password), bcrypt.DefaultCost)
			if herr != nil {
				return "", &IdentityError{Msg: "could not create account", Err: herr}
			}
			c.PasswordHash = string(hash)
		} else {
			c.IsGuest = true
		}
		if ierr := s.Customers.Insert(c); ierr != nil {
			return "", &IdentityError{Msg: "could not create customer", Err: ierr}
		}
		id := c.ID
		sg.push(func() error { return s.Customers.Delete(id) })
		return id, nil

	default:
		return "", &IdentityError{Msg: "could not look up customer", Err: err}
	}
}

func newOrderNumber() string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("KS-%s-%s", time.Now().UTC().Format("20060102"), frag)
}
