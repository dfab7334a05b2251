package services

import (
	"kinshop/internal/cart"
	"kinshop/internal/repos"
)

// CartService opens per-session cart stores over the shared persistence and
// stock gateway. Each request works on its own rehydrated Store.
type CartService struct {
	Stock   cart.StockReader
	Storage cart.Persister
	Prods   *repos.ProductRepo
}

func NewCartService(stock cart.StockReader, storage cart.Persister, prods *repos.ProductRepo) *CartService {
	return &CartService{Stock: stock, Storage: storage, Prods: prods}
}

// Open rehydrates the cart persisted under the session id.
func (s *CartService) Open(sid string) (*cart.Store, error) {
	st := cart.NewStore(sid, s.Stock, s.Storage)
	if err := st.Load(); err != nil {
		return nil, err
	}
	return st, nil
}

// Add loads the product and puts one unit in the session's cart. The boolean
// mirrors the store contract: false means the store's error slot explains why.
func (s *CartService) Add(sid, productID string) (*cart.Store, bool, error) {
	st, err := s.Open(sid)
	if err != nil {
		return nil, false, err
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		return nil, false, err
	}
	return st, st.Add(p), nil
}
