package repos

import (
	"github.com/jmoiron/sqlx"

	"kinshop/internal/domain"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerCols = `id, email, name, phone, is_guest, password_hash`

func (r *CustomerRepo) ByEmail(email string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.Get(&c, `SELECT `+customerCols+` FROM customers WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepo) ByID(id string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.Get(&c, `SELECT `+customerCols+` FROM customers WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepo) Insert(c domain.Customer) error {
	_, err := r.db.Exec(`
		INSERT INTO customers(id,email,name,phone,is_guest,password_hash)
		VALUES(?,?,?,?,?,?)
	`, c.ID, c.Email, c.Name, c.Phone, c.IsGuest, c.PasswordHash)
	return err
}

// UpdateContact refreshes name/phone for a returning guest email.
func (r *CustomerRepo) UpdateContact(id, name, phone string) error {
	_, err := r.db.Exec(`
		UPDATE customers SET name=?, phone=?, updated_at=CURRENT_TIMESTAMP WHERE id=?
	`, name, phone, id)
	return err
}

// Delete removes a customer created during a failed checkout.
func (r *CustomerRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM customers WHERE id=?`, id)
	return err
}

// ---------- Sessions ----------

func (r *CustomerRepo) BindSession(sid, customerID string) error {
	_, err := r.db.Exec(`
		INSERT INTO sessions(id,customer_id,last_seen)
		VALUES(?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET customer_id=excluded.customer_id, last_seen=CURRENT_TIMESTAMP
	`, sid, customerID)
	return err
}

func (r *CustomerRepo) UnbindSession(sid string) error {
	_, err := r.db.Exec(`UPDATE sessions SET customer_id=NULL, last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

func (r *CustomerRepo) SessionCustomer(sid string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.Get(&c, `
	  SELECT c.id, c.email, c.name, c.phone, c.is_guest, c.password_hash
	  FROM sessions s
	  JOIN customers c ON c.id = s.customer_id
	  WHERE s.id = ?
	`, sid)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
