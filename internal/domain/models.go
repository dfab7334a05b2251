package domain

type Product struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Description    string `db:"description" json:"description,omitempty"`
	Price          int64  `db:"price" json:"price"` // minor units (FC)
	Category       string `db:"category" json:"category"` // smartphones | laptops | accessories | tablets
	Brand          string `db:"brand" json:"brand,omitempty"`
	ImageURL       string `db:"image_url" json:"imageUrl,omitempty"`
	StockQuantity  int    `db:"stock_quantity" json:"stockQuantity"`
	StockThreshold int    `db:"stock_threshold" json:"-"`
	IsAvailable    bool   `db:"is_available" json:"isAvailable"`
	CreatedAt      string `db:"created_at" json:"-"`
	UpdatedAt      string `db:"updated_at" json:"-"`
}

// StockRecord is the authoritative availability projection read from the
// products table. Cart-side stock ceilings are caches of this value.
type StockRecord struct {
	ProductID string `db:"id" json:"productId"`
	Available int    `db:"stock_quantity" json:"available"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}

// CartLine is one product entry in a shopping cart. StockCeiling is the most
// recently read stock level for the product; a live read at commit time always
// wins over it.
type CartLine struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	UnitPrice    int64  `json:"unitPrice"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Quantity     int    `json:"quantity"`
	StockCeiling int    `json:"stockCeiling"`
}

func (l CartLine) Subtotal() int64 { return l.UnitPrice * int64(l.Quantity) }
