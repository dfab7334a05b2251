package services

import (
	"database/sql"

	"kinshop/internal/domain"
	"kinshop/internal/repos"
)

// InventoryService is the read-only inventory query gateway: current stock by
// product id set, plus the availability classification the storefront shows.
type InventoryService struct {
	Prods *repos.ProductRepo
}

func NewInventoryService(prods *repos.ProductRepo) *InventoryService {
	return &InventoryService{Prods: prods}
}

// StockFor satisfies cart.StockReader.
func (s *InventoryService) StockFor(ids []string) (map[string]int, error) {
	return s.Prods.StockFor(ids)
}

// CheckAvailability classifies a product's stock against its low-stock
// threshold. An unknown product reads as out of stock.
func (s *InventoryService) CheckAvailability(productID string) (domain.Availability, error) {
	p, err := s.Prods.Get(productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case p.StockQuantity > p.StockThreshold:
		status = "IN_STOCK"
	case p.StockQuantity > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: p.StockQuantity}, nil
}
