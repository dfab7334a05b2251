package repos

import (
	"errors"

	"github.com/jmoiron/sqlx"

	"kinshop/internal/domain"
)

// ErrInsufficientStock is returned when a conditional decrement finds less
// stock than requested. The caller decides whether to unwind prior writes.
var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT id, name, COALESCE(description,'') AS description, price, category,
	         COALESCE(brand,'') AS brand, COALESCE(image_url,'') AS image_url,
	         stock_quantity, stock_threshold, is_available,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products
	  WHERE id = ?
	`, id)
	return p, err
}

// StockFor projects {id, stock_quantity} for an id set. Products missing from
// the result simply have no row; callers treat absence as unknown.
func (r *ProductRepo) StockFor(ids []string) (map[string]int, error) {
	out := map[string]int{}
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, stock_quantity FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.StockRecord
	if err := r.db.Select(&rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, rec := range rows {
		out[rec.ProductID] = rec.Available
	}
	return out, nil
}

// DecrementStock atomically subtracts qty if enough stock exists, so two
// racing checkouts cannot both take the last unit.
func (r *ProductRepo) DecrementStock(productID string, qty int) error {
	res, err := r.db.Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity >= ?
	`, qty, productID, qty)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStock adds qty back; used by checkout compensations.
func (r *ProductRepo) RestoreStock(productID string, qty int) error {
	_, err := r.db.Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	return err
}
