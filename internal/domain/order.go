package domain

type DeliveryType string

const (
	DeliveryStandard DeliveryType = "standard"
	DeliveryExpress  DeliveryType = "express"
)

// Flat shipping fees in minor units (FC).
const (
	ShippingStandard int64 = 3000
	ShippingExpress  int64 = 5000
)

// DisplayVATRate is shown on the cart page only. The persisted order total
// does not include VAT; see TotalPriceWithVAT in the cart package.
const DisplayVATRate = 0.20

func ShippingCost(t DeliveryType) (int64, bool) {
	switch t {
	case DeliveryStandard:
		return ShippingStandard, true
	case DeliveryExpress:
		return ShippingExpress, true
	}
	return 0, false
}

const (
	OrderStatusPending  = "pending"
	PaymentCashDelivery = "cash_on_delivery"
)

type Order struct {
	ID            string       `db:"id" json:"id"`
	OrderNumber   string       `db:"order_number" json:"orderNumber"`
	CustomerID    string       `db:"customer_id" json:"-"`
	AddressID     string       `db:"address_id" json:"-"`
	Subtotal      int64        `db:"subtotal" json:"subtotal"`
	ShippingCost  int64        `db:"shipping_cost" json:"shippingCost"`
	Total         int64        `db:"total" json:"total"`
	DeliveryType  DeliveryType `db:"delivery_type" json:"deliveryType"`
	Status        string       `db:"status" json:"status"`
	PaymentMethod string       `db:"payment_method" json:"paymentMethod"`
	CreatedAt     string       `db:"created_at" json:"createdAt"`
}

// OrderItem freezes a point-in-time copy of the product so later catalog
// changes cannot rewrite order history.
type OrderItem struct {
	ID          string `db:"id" json:"-"`
	OrderID     string `db:"order_id" json:"-"`
	ProductID   string `db:"product_id" json:"productId"`
	ProductName string `db:"product_name" json:"productName"`
	Quantity    int    `db:"quantity" json:"quantity"`
	UnitPrice   int64  `db:"unit_price" json:"unitPrice"`
	TotalPrice  int64  `db:"total_price" json:"totalPrice"`
}

// OrderLineInput is one cart line as submitted at checkout time.
type OrderLineInput struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	Subtotal    int64  `json:"subtotal"`
}
