package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kinshop/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts the order header. Status and payment method are fixed at
// creation time: orders start pending and are paid cash on delivery.
func (r *OrderRepo) Create(o domain.Order) error {
	_, err := r.db.Exec(`
	  INSERT INTO orders
	    (id, order_number, customer_id, address_id, subtotal, shipping_cost, total,
	     delivery_type, status, payment_method, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, o.ID, o.OrderNumber, o.CustomerID, o.AddressID, o.Subtotal, o.ShippingCost,
		o.Total, o.DeliveryType, o.Status, o.PaymentMethod)
	return err
}

// InsertItems bulk-inserts frozen order lines.
func (r *OrderRepo) InsertItems(orderID string, lines []domain.OrderLineInput) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, l := range lines {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(id, order_id, product_id, product_name, quantity, unit_price, total_price)
		  VALUES(?,?,?,?,?,?,?)
		`, uuid.NewString(), orderID, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice, l.Subtotal); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(orderID string) (domain.Order, []domain.OrderItem, error) {
	var o domain.Order
	if err := r.db.Get(&o, `
	  SELECT id, order_number, customer_id, address_id, subtotal, shipping_cost,
	         total, delivery_type, status, payment_method, created_at
	  FROM orders WHERE id = ?
	`, orderID); err != nil {
		return domain.Order{}, nil, err
	}

	var items []domain.OrderItem
	if err := r.db.Select(&items, `
	  SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
	  FROM order_items
	  WHERE order_id = ?
	  ORDER BY product_name
	`, orderID); err != nil {
		return domain.Order{}, nil, err
	}
	return o, items, nil
}

// Delete removes the order header; compensation for a failed later step.
func (r *OrderRepo) Delete(orderID string) error {
	_, err := r.db.Exec(`DELETE FROM orders WHERE id = ?`, orderID)
	return err
}

// DeleteItems removes all lines of an order; compensation partner of Delete.
func (r *OrderRepo) DeleteItems(orderID string) error {
	_, err := r.db.Exec(`DELETE FROM order_items WHERE order_id = ?`, orderID)
	return err
}
