package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	// Seed demo catalog and accounts if the DB is empty (idempotent).
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates all tables; exported so tests can bootstrap
// in-memory databases with the production schema.
func EnsureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Products (stock_quantity is the authoritative stock counter)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price INTEGER NOT NULL CHECK (price >= 0),
  category TEXT NOT NULL CHECK (category IN ('smartphones','laptops','accessories','tablets')),
  brand TEXT,
  image_url TEXT,
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  stock_threshold INTEGER NOT NULL DEFAULT 5,
  is_available INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

-- Customers (guest rows have is_guest=1 and no password hash)
CREATE TABLE IF NOT EXISTS customers(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  is_guest INTEGER NOT NULL DEFAULT 0,
  password_hash TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_email ON customers(LOWER(email));

-- Delivery addresses
CREATE TABLE IF NOT EXISTS addresses(
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  city TEXT NOT NULL,
  district TEXT NOT NULL DEFAULT '',
  neighborhood TEXT NOT NULL,
  street TEXT NOT NULL,
  parcel_number TEXT NOT NULL DEFAULT '',
  landmark TEXT NOT NULL DEFAULT '',
  preferred_delivery_day TEXT NOT NULL DEFAULT '',
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_addresses_customer ON addresses(customer_id);

-- Orders (amounts in minor units, VAT never included)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL REFERENCES customers(id),
  address_id TEXT NOT NULL REFERENCES addresses(id),
  subtotal INTEGER NOT NULL,
  shipping_cost INTEGER NOT NULL,
  total INTEGER NOT NULL,
  delivery_type TEXT NOT NULL CHECK (delivery_type IN ('standard','express')),
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL DEFAULT 'cash_on_delivery',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);

CREATE TABLE IF NOT EXISTS order_items(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  unit_price INTEGER NOT NULL,
  total_price INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

-- Sessions (id is the 'sid' cookie value)
CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  customer_id TEXT NULL REFERENCES customers(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_customer ON sessions(customer_id);

-- Persisted cart snapshots, keyed by storage id (session id)
CREATE TABLE IF NOT EXISTS cart_storage(
  id TEXT PRIMARY KEY,
  payload TEXT NOT NULL,
  updated_at TEXT
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products and accounts")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO products(id,name,description,price,category,brand,image_url,stock_quantity,stock_threshold) VALUES
	  ('phone-aster-12','Aster 12','6.1" dual-SIM smartphone',450000,'smartphones','Aster','products/phone-aster-12.jpg',12,3),
	  ('phone-aster-12p','Aster 12 Pro','6.7" smartphone, 256GB',620000,'smartphones','Aster','products/phone-aster-12p.jpg',5,3),
	  ('laptop-nbk-14','Notebook 14','14" ultrabook, 16GB RAM',980000,'laptops','Venta','products/laptop-nbk-14.jpg',4,2),
	  ('tab-venta-10','Venta Tab 10','10" tablet, 64GB',310000,'tablets','Venta','products/tab-venta-10.jpg',9,3),
	  ('acc-charg-30w','30W USB-C Charger','Fast charger with cable',25000,'accessories','Aster','products/acc-charg-30w.jpg',40,10),
	  ('acc-case-12','Aster 12 Case','Shockproof case',15000,'accessories','Aster','products/acc-case-12.jpg',0,5)`)

	hash, _ := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), 12)
	tx.MustExec(`INSERT INTO customers(id,email,name,phone,is_guest,password_hash) VALUES
	  ('c-amina','amina@kinshop.test','Amina K.','+243 810000001',0,?),
	  ('c-didier','didier@kinshop.test','Didier M.','+243 810000002',0,?)`, string(hash), string(hash))

	tx.MustExec(`INSERT INTO addresses(id,customer_id,city,district,neighborhood,street,is_default) VALUES
	  ('a-amina-1','c-amina','Kinshasa','Gombe','Croix-Rouge','Avenue de la Justice 12',1)`)

	return tx.Commit()
}
