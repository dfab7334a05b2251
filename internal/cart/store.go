// Package cart holds the client-facing shopping cart state: lines capped by
// the best-known stock ceiling, persisted across sessions, reconciled against
// live stock before anything is trusted for checkout.
package cart

import (
	"fmt"

	"kinshop/internal/domain"
)

// StockReader is the read-only inventory gateway the store checks against.
type StockReader interface {
	// StockFor returns available quantity per product id; ids missing from
	// the map have no stock record.
	StockFor(ids []string) (map[string]int, error)
}

// Persister is the storage boundary for cart snapshots.
type Persister interface {
	Save(key string, lines []domain.CartLine) error
	Load(key string) ([]domain.CartLine, error)
}

// Store maintains what one shopper intends to buy. Not safe for concurrent
// use; each request loads its own instance over the same storage key.
//
// Add and Increment are check-then-act against the remote stock counter with
// no reservation: two shoppers can both pass the check for the last unit.
// The checkout decrement is atomic and conditional, so the race surfaces as a
// rejected order there rather than an oversell.
type Store struct {
	key     string
	stock   StockReader
	persist Persister
	lines   []domain.CartLine
	err     string
}

func NewStore(key string, stock StockReader, persist Persister) *Store {
	return &Store{key: key, stock: stock, persist: persist}
}

// Load rehydrates the persisted snapshot. The error slot is not persisted and
// always starts clear.
func (s *Store) Load() error {
	lines, err := s.persist.Load(s.key)
	if err != nil {
		return err
	}
	s.lines = lines
	s.err = ""
	return nil
}

// Err returns the single outstanding user-facing error message, overwritten
// by the newest failed operation and cleared by the newest successful one.
func (s *Store) Err() string { return s.err }
func (s *Store) ClearErr()   { s.err = "" }

func (s *Store) find(productID string) *domain.CartLine {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return &s.lines[i]
		}
	}
	return nil
}

func (s *Store) freshStock(productID string) (int, bool) {
	recs, err := s.stock.StockFor([]string{productID})
	if err != nil {
		s.err = "could not verify stock, please try again"
		return 0, false
	}
	qty, ok := recs[productID]
	if !ok {
		s.err = "product not found"
		return 0, false
	}
	return qty, true
}

// Add puts one unit of the product in the cart after a fresh stock read.
// Returns false with the error slot set if the lookup fails, the product is
// out of stock, or the existing line is already at the refreshed ceiling.
func (s *Store) Add(p domain.Product) bool {
	avail, ok := s.freshStock(p.ID)
	if !ok {
		return false
	}
	if avail == 0 {
		s.err = "this product is no longer available"
		return false
	}

	if line := s.find(p.ID); line != nil {
		if line.Quantity >= avail {
			s.err = fmt.Sprintf("maximum stock reached (%d units)", avail)
			return false
		}
		line.Quantity++
		line.StockCeiling = avail
	} else {
		s.lines = append(s.lines, domain.CartLine{
			ProductID:    p.ID,
			Name:         p.Name,
			UnitPrice:    p.Price,
			ImageURL:     p.ImageURL,
			Quantity:     1,
			StockCeiling: avail,
		})
	}
	s.err = ""
	return s.save()
}

// Increment adds one unit to an existing line, with the same fresh-read
// discipline as Add.
func (s *Store) Increment(productID string) bool {
	line := s.find(productID)
	if line == nil {
		s.err = "product not found"
		return false
	}
	avail, ok := s.freshStock(productID)
	if !ok {
		return false
	}
	if line.Quantity >= avail {
		s.err = fmt.Sprintf("maximum stock reached (%d units)", avail)
		return false
	}
	line.Quantity++
	line.StockCeiling = avail
	s.err = ""
	return s.save()
}

// Decrement removes one unit, dropping the line at zero. Reducing demand
// needs no stock check and never fails, even on an out-of-stock line.
func (s *Store) Decrement(productID string) {
	for i := range s.lines {
		if s.lines[i].ProductID != productID {
			continue
		}
		s.lines[i].Quantity--
		if s.lines[i].Quantity <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		}
		_ = s.persist.Save(s.key, s.lines)
		return
	}
}

func (s *Store) Remove(productID string) {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			_ = s.persist.Save(s.key, s.lines)
			return
		}
	}
}

func (s *Store) Clear() {
	s.lines = nil
	s.err = ""
	_ = s.persist.Save(s.key, nil)
}

// Reconcile bulk-refreshes every line against live stock: ceilings take the
// fresh value, quantities clamp down to them, zero-ceiling lines are dropped.
// Lines with no stock record in the response are left untouched. Destructive;
// callers surface the result to the shopper before checkout.
func (s *Store) Reconcile() error {
	if len(s.lines) == 0 {
		return nil
	}
	ids := make([]string, 0, len(s.lines))
	for _, l := range s.lines {
		ids = append(ids, l.ProductID)
	}
	recs, err := s.stock.StockFor(ids)
	if err != nil {
		return err
	}

	kept := s.lines[:0]
	for _, l := range s.lines {
		avail, ok := recs[l.ProductID]
		if ok {
			l.StockCeiling = avail
			if l.Quantity > avail {
				l.Quantity = avail
			}
		}
		if l.StockCeiling > 0 && l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	if err := s.persist.Save(s.key, s.lines); err != nil {
		return err
	}
	return nil
}

// Lines returns a copy of the current snapshot in cart order.
func (s *Store) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) Line(productID string) (domain.CartLine, bool) {
	if l := s.find(productID); l != nil {
		return *l, true
	}
	return domain.CartLine{}, false
}

func (s *Store) TotalPrice() int64 {
	var total int64
	for _, l := range s.lines {
		total += l.Subtotal()
	}
	return total
}

// TotalItems sums quantities across lines.
func (s *Store) TotalItems() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// TotalPriceWithVAT is the 20%-inclusive figure the cart page displays. It is
// never persisted; the order total is VAT-free. The two are surfaced side by
// side at order placement so the discrepancy stays visible.
func (s *Store) TotalPriceWithVAT() int64 {
	total := s.TotalPrice()
	return total + int64(float64(total)*domain.DisplayVATRate)
}

func (s *Store) save() bool {
	if err := s.persist.Save(s.key, s.lines); err != nil {
		s.err = "could not save cart, please try again"
		return false
	}
	return true
}
