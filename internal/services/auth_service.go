package services

import (
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"kinshop/internal/domain"
	"kinshop/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

// AuthService owns session auth and buyer identity resolution for checkout.
type AuthService struct {
	Customers *repos.CustomerRepo
	Addresses *repos.AddressRepo
}

func NewAuthService(customers *repos.CustomerRepo, addresses *repos.AddressRepo) *AuthService {
	return &AuthService{Customers: customers, Addresses: addresses}
}

func (s *AuthService) Login(sid, email, password string) (*domain.Customer, error) {
	c, err := s.Customers.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	// Guest records carry no hash and can never log in.
	if c.IsGuest || c.PasswordHash == "" {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Customers.BindSession(sid, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Customers.UnbindSession(sid)
}

func (s *AuthService) Current(sid string) (*domain.Customer, error) {
	return s.Customers.SessionCustomer(sid)
}

// BuyerProfile is the prefill payload for an authenticated checkout: stored
// contact fields and saved addresses, default-marked first.
type BuyerProfile struct {
	Customer  domain.Customer  `json:"customer"`
	Addresses []domain.Address `json:"addresses"`
}

// CheckoutProfile resolves the session into a buyer profile. A missing or
// unbound session is not an error: nil means treat the shopper as a guest.
func (s *AuthService) CheckoutProfile(sid string) (*BuyerProfile, error) {
	if sid == "" {
		return nil, nil
	}
	c, err := s.Customers.SessionCustomer(sid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	addrs, err := s.Addresses.ListByCustomer(c.ID)
	if err != nil {
		return nil, err
	}
	return &BuyerProfile{Customer: *c, Addresses: addrs}, nil
}
