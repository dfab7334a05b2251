package repos

import (
	"github.com/jmoiron/sqlx"

	"kinshop/internal/domain"
)

type AddressRepo struct{ db *sqlx.DB }

func NewAddressRepo(db *sqlx.DB) *AddressRepo { return &AddressRepo{db: db} }

func (r *AddressRepo) Insert(a domain.Address) error {
	_, err := r.db.Exec(`
		INSERT INTO addresses(id,customer_id,city,district,neighborhood,street,
		  parcel_number,landmark,preferred_delivery_day,is_default)
		VALUES(?,?,?,?,?,?,?,?,?,?)
	`, a.ID, a.CustomerID, a.City, a.District, a.Neighborhood, a.Street,
		a.ParcelNumber, a.Landmark, a.PreferredDeliveryDay, a.IsDefault)
	return err
}

// ListByCustomer returns saved addresses, default-marked first.
func (r *AddressRepo) ListByCustomer(customerID string) ([]domain.Address, error) {
	var out []domain.Address
	err := r.db.Select(&out, `
	  SELECT id, customer_id, city, district, neighborhood, street,
	         parcel_number, landmark, preferred_delivery_day, is_default
	  FROM addresses
	  WHERE customer_id = ?
	  ORDER BY is_default DESC, created_at DESC
	`, customerID)
	return out, err
}

func (r *AddressRepo) Get(id string) (domain.Address, error) {
	var a domain.Address
	err := r.db.Get(&a, `
	  SELECT id, customer_id, city, district, neighborhood, street,
	         parcel_number, landmark, preferred_delivery_day, is_default
	  FROM addresses WHERE id = ?
	`, id)
	return a, err
}

// Delete removes an address created during a failed checkout.
func (r *AddressRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM addresses WHERE id=?`, id)
	return err
}
