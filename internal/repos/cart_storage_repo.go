package repos

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"kinshop/internal/domain"
)

// CartStorageRepo persists cart snapshots as JSON payloads keyed by a storage
// id (the session id). It is the serialize/deserialize boundary behind the
// cart store; only lines are persisted, never the error slot.
type CartStorageRepo struct{ db *sqlx.DB }

func NewCartStorageRepo(db *sqlx.DB) *CartStorageRepo { return &CartStorageRepo{db: db} }

func (r *CartStorageRepo) Save(key string, lines []domain.CartLine) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT INTO cart_storage(id, payload, updated_at)
		VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET payload=excluded.payload, updated_at=CURRENT_TIMESTAMP
	`, key, string(payload))
	return err
}

// Load returns the persisted lines for key; a missing row is an empty cart.
func (r *CartStorageRepo) Load(key string) ([]domain.CartLine, error) {
	var payload string
	if err := r.db.Get(&payload, `SELECT payload FROM cart_storage WHERE id = ?`, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(payload), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *CartStorageRepo) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM cart_storage WHERE id = ?`, key)
	return err
}
