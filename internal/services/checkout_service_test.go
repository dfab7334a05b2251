package services_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"kinshop/internal/domain"
	"kinshop/internal/repos"
	"kinshop/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := repos.EnsureSchema(db); err != nil {
		t.Fatal(err)
	}
	seed := `
	INSERT INTO products(id,name,price,category,stock_quantity,stock_threshold) VALUES
	  ('phone-1','Aster 12',450000,'smartphones',5,3),
	  ('tab-1','Venta Tab 10',310000,'tablets',2,3),
	  ('acc-1','Charger',25000,'accessories',10,5);
	INSERT INTO customers(id,email,name,phone,is_guest) VALUES
	  ('c-amina','amina@kinshop.test','Amina K.','+243 810000001',0);
	INSERT INTO addresses(id,customer_id,city,neighborhood,street,is_default) VALUES
	  ('a-amina','c-amina','Kinshasa','Gombe','Av. de la Justice 12',1);
	`
	if _, err := db.Exec(seed); err != nil {
		t.Fatal(err)
	}
	return db
}

func newCheckout(db *sqlx.DB) *services.CheckoutService {
	return services.NewCheckoutService(
		repos.NewProductRepo(db),
		repos.NewCustomerRepo(db),
		repos.NewAddressRepo(db),
		repos.NewOrderRepo(db),
	)
}

func guestBuyer() domain.BuyerIdentity {
	return domain.BuyerIdentity{Guest: &domain.GuestContact{
		Email: "didier@kinshop.test",
		Name:  "Didier M.",
		Phone: "+243 810000002",
	}}
}

func kinAddress() *domain.AddressInput {
	return &domain.AddressInput{City: "Kinshasa", Neighborhood: "Lemba", Street: "Av. Lumumba 3"}
}

func lines(ls ...domain.OrderLineInput) []domain.OrderLineInput { return ls }

func line(id, name string, qty int, price int64) domain.OrderLineInput {
	return domain.OrderLineInput{ProductID: id, ProductName: name, Quantity: qty, UnitPrice: price, Subtotal: price * int64(qty)}
}

func count(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestPlaceRejectsEmptyCart(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	_, err := svc.Place(services.OrderRequest{
		Buyer:        guestBuyer(),
		NewAddress:   kinAddress(),
		DeliveryType: domain.DeliveryStandard,
	})
	var ve *services.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if count(t, db, "orders") != 0 || count(t, db, "customers") != 1 {
		t.Fatal("empty cart must write nothing")
	}
}

func TestPlaceGuestExpress(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	placed, err := svc.Place(services.OrderRequest{
		Buyer:        guestBuyer(),
		NewAddress:   kinAddress(),
		DeliveryType: domain.DeliveryExpress,
		Lines: lines(
			line("phone-1", "Aster 12", 2, 450000),
			line("acc-1", "Charger", 1, 25000),
		),
	})
	if err != nil {
		t.Fatal(err)
	}

	wantSubtotal := int64(2*450000 + 25000)
	if placed.Total != wantSubtotal+5000 {
		t.Fatalf("want total %d, got %d", wantSubtotal+5000, placed.Total)
	}
	if placed.OrderNumber == "" {
		t.Fatal("no order number")
	}

	order, items, err := repos.NewOrderRepo(db).Get(placed.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if order.ShippingCost != 5000 || order.Status != "pending" || order.PaymentMethod != "cash_on_delivery" {
		t.Fatalf("bad order row: %+v", order)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 frozen lines, got %d", len(items))
	}

	// Guest customer was created and stock decremented.
	guest, err := repos.NewCustomerRepo(db).ByEmail("didier@kinshop.test")
	if err != nil || !guest.IsGuest {
		t.Fatalf("want guest customer, got %+v %v", guest, err)
	}
	recs, _ := repos.NewProductRepo(db).StockFor([]string{"phone-1", "acc-1"})
	if recs["phone-1"] != 3 || recs["acc-1"] != 9 {
		t.Fatalf("stock not decremented: %v", recs)
	}
}

func TestPlaceRegisteredReusesAddressID(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	placed, err := svc.Place(services.OrderRequest{
		Buyer:        domain.BuyerIdentity{CustomerID: "c-amina"},
		AddressID:    "a-amina",
		DeliveryType: domain.DeliveryStandard,
		Lines:        lines(line("acc-1", "Charger", 2, 25000)),
	})
	if err != nil {
		t.Fatal(err)
	}

	order, _, err := repos.NewOrderRepo(db).Get(placed.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if order.AddressID != "a-amina" {
		t.Fatalf("supplied address id must be reused unchanged, got %s", order.AddressID)
	}
	if order.CustomerID != "c-amina" {
		t.Fatalf("want c-amina, got %s", order.CustomerID)
	}
	if count(t, db, "addresses") != 1 {
		t.Fatal("no address row should be created")
	}
	if order.ShippingCost != 3000 {
		t.Fatalf("want standard fee 3000, got %d", order.ShippingCost)
	}
}

func TestPlaceFreshReadBeatsStaleCeiling(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	// The cart believed 5 were available; live stock is 2.
	_, err := svc.Place(services.OrderRequest{
		Buyer:        guestBuyer(),
		NewAddress:   kinAddress(),
		DeliveryType: domain.DeliveryStandard,
		Lines:        lines(line("tab-1", "Venta Tab 10", 5, 310000)),
	})
	var sc *services.StockConflictError
	if !errors.As(err, &sc) {
		t.Fatalf("want StockConflictError, got %v", err)
	}
	if sc.ProductName != "Venta Tab 10" {
		t.Fatalf("error should name the product, got %+v", sc)
	}
	if count(t, db, "orders") != 0 || count(t, db, "customers") != 1 || count(t, db, "addresses") != 1 {
		t.Fatal("stock verification failure must write nothing")
	}
}

func TestPlaceUnknownProductRejected(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	_, err := svc.Place(services.OrderRequest{
		Buyer:        guestBuyer(),
		NewAddress:   kinAddress(),
		DeliveryType: domain.DeliveryStandard,
		Lines:        lines(line("ghost", "Ghost", 1, 1000)),
	})
	var sc *services.StockConflictError
	if !errors.As(err, &sc) {
		t.Fatalf("want StockConflictError for missing product, got %v", err)
	}
}

func TestPlaceGuestReusesExistingCustomer(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	// Registered email checking out as guest: reuse the row, refresh contact.
	_, err := svc.Place(services.OrderRequest{
		Buyer: domain.BuyerIdentity{Guest: &domain.GuestContact{
			Email: "amina@kinshop.test",
			Name:  "Amina Kalenga",
			Phone: "+243 810009999",
		}},
		NewAddress:   kinAddress(),
		DeliveryType: domain.DeliveryStandard,
		Lines:        lines(line("acc-1", "Charger", 1, 25000)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if count(t, db, "customers") != 1 {
		t.Fatal("existing customer must be reused, not duplicated")
	}
	c, _ := repos.NewCustomerRepo(db).ByEmail("amina@kinshop.test")
	if c.Name != "Amina Kalenga" || c.Phone != "+243 810009999" {
		t.Fatalf("contact should be refreshed: %+v", c)
	}
}

func TestPlaceGuestCreateAccount(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	buyer := guestBuyer()
	buyer.Guest.CreateAccount = true
	buyer.Guest.Password = "short"
	_, err := svc.Place(services.OrderRequest{
		Buyer:        buyer,
		NewAddress:   kinAddress(),
		DeliveryType: domain.DeliveryStandard,
		Lines:        lines(line("acc-1", "Charger", 1, 25000)),
	})
	var ve *services.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("weak password must fail before any write, got %v", err)
	}

	buyer.Guest.Password = "s3cret-pass"
	if _, err := svc.Place(services.OrderRequest{
		Buyer:        buyer,
		NewAddress:   kinAddress(),
		DeliveryType: domain.DeliveryStandard,
		Lines:        lines(line("acc-1", "Charger", 1, 25000)),
	}); err != nil {
		t.Fatal(err)
	}
	c, err := repos.NewCustomerRepo(db).ByEmail("didier@kinshop.test")
	if err != nil {
		t.Fatal(err)
	}
	if c.IsGuest || c.PasswordHash == "" {
		t.Fatalf("account creation should store a hash: %+v", c)
	}
}

func TestPlaceRejectsForeignAddressID(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	// The supplied id belongs to another customer; identity resolution has
	// already created the guest row, so the rejection must unwind it.
	_, err := svc.Place(services.OrderRequest{
		Buyer:        guestBuyer(),
		AddressID:    "a-amina",
		DeliveryType: domain.DeliveryStandard,
		Lines:        lines(line("acc-1", "Charger", 1, 25000)),
	})
	var ve *services.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if _, err := repos.NewCustomerRepo(db).ByEmail("didier@kinshop.test"); err != sql.ErrNoRows {
		t.Fatalf("created guest should be unwound, got %v", err)
	}
	if count(t, db, "orders") != 0 {
		t.Fatal("no order may be written")
	}
}

func TestPlaceUnknownDeliveryType(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)

	_, err := svc.Place(services.OrderRequest{
		Buyer:        guestBuyer(),
		NewAddress:   kinAddress(),
		DeliveryType: "overnight",
		Lines:        lines(line("acc-1", "Charger", 1, 25000)),
	})
	var ve *services.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

// flakyStock fails decrements for one product, simulating a backend error in
// the middle of the sequential decrement loop.
type flakyStock struct {
	*repos.ProductRepo
	failFor string
}

func (f *flakyStock) DecrementStock(productID string, qty int) error {
	if productID == f.failFor {
		return errors.New("backend timeout")
	}
	return f.ProductRepo.DecrementStock(productID, qty)
}

func TestPlaceUnwindsOnDecrementFailure(t *testing.T) {
	db := memdb(t)
	prods := repos.NewProductRepo(db)
	svc := services.NewCheckoutService(
		&flakyStock{ProductRepo: prods, failFor: "acc-1"},
		repos.NewCustomerRepo(db),
		repos.NewAddressRepo(db),
		repos.NewOrderRepo(db),
	)

	_, err := svc.Place(services.OrderRequest{
		Buyer:        guestBuyer(),
		NewAddress:   kinAddress(),
		DeliveryType: domain.DeliveryStandard,
		Lines: lines(
			line("phone-1", "Aster 12", 2, 450000),
			line("acc-1", "Charger", 1, 25000),
		),
	})
	if err == nil {
		t.Fatal("decrement failure must fail the checkout")
	}

	// Every write is compensated: stock restored, order and lines gone,
	// guest customer and address gone.
	recs, _ := prods.StockFor([]string{"phone-1"})
	if recs["phone-1"] != 5 {
		t.Fatalf("first decrement should be restored, got %d", recs["phone-1"])
	}
	if n := count(t, db, "orders"); n != 0 {
		t.Fatalf("order header should be deleted, found %d", n)
	}
	if n := count(t, db, "order_items"); n != 0 {
		t.Fatalf("order lines should be deleted, found %d", n)
	}
	if _, err := repos.NewCustomerRepo(db).ByEmail("didier@kinshop.test"); err != sql.ErrNoRows {
		t.Fatalf("created guest customer should be deleted, got %v", err)
	}
	if n := count(t, db, "addresses"); n != 1 {
		t.Fatalf("created address should be deleted, found %d", n)
	}
}

// staleStock reports an inflated availability while delegating writes to the
// real repo, standing in for a shopper whose verification read happened just
// before a competing order landed.
type staleStock struct {
	*repos.ProductRepo
	claim map[string]int
}

func (s *staleStock) StockFor(ids []string) (map[string]int, error) {
	out := map[string]int{}
	for _, id := range ids {
		out[id] = s.claim[id]
	}
	return out, nil
}

func TestPlaceRaceLoserIsRejectedCleanly(t *testing.T) {
	db := memdb(t)
	prods := repos.NewProductRepo(db)

	// Verification sees 2 units, but only 1 is really left. The conditional
	// decrement refuses and the whole order unwinds.
	if _, err := db.Exec(`UPDATE products SET stock_quantity=1 WHERE id='tab-1'`); err != nil {
		t.Fatal(err)
	}
	svc := services.NewCheckoutService(
		&staleStock{ProductRepo: prods, claim: map[string]int{"tab-1": 2}},
		repos.NewCustomerRepo(db),
		repos.NewAddressRepo(db),
		repos.NewOrderRepo(db),
	)

	_, err := svc.Place(services.OrderRequest{
		Buyer:        guestBuyer(),
		NewAddress:   kinAddress(),
		DeliveryType: domain.DeliveryStandard,
		Lines:        lines(line("tab-1", "Venta Tab 10", 2, 310000)),
	})
	var sc *services.StockConflictError
	if !errors.As(err, &sc) {
		t.Fatalf("race loser should see a stock conflict, got %v", err)
	}
	if n := count(t, db, "orders"); n != 0 {
		t.Fatalf("losing order must not persist, found %d orders", n)
	}
	recs, _ := prods.StockFor([]string{"tab-1"})
	if recs["tab-1"] != 1 {
		t.Fatalf("failed decrement must not change stock, got %d", recs["tab-1"])
	}
}
