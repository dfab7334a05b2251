package domain

type Customer struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	Phone        string `db:"phone"`
	IsGuest      bool   `db:"is_guest"`
	PasswordHash string `db:"password_hash"`
}

type Address struct {
	ID                   string `db:"id" json:"id"`
	CustomerID           string `db:"customer_id" json:"-"`
	City                 string `db:"city" json:"city"`
	District             string `db:"district" json:"district,omitempty"`
	Neighborhood         string `db:"neighborhood" json:"neighborhood"`
	Street               string `db:"street" json:"street"`
	ParcelNumber         string `db:"parcel_number" json:"parcelNumber,omitempty"`
	Landmark             string `db:"landmark" json:"landmark,omitempty"`
	PreferredDeliveryDay string `db:"preferred_delivery_day" json:"preferredDeliveryDay,omitempty"`
	IsDefault            bool   `db:"is_default" json:"isDefault"`
}

// AddressInput carries inline new-address fields from a checkout submission.
type AddressInput struct {
	City                 string `json:"city"`
	District             string `json:"district"`
	Neighborhood         string `json:"neighborhood"`
	Street               string `json:"street"`
	ParcelNumber         string `json:"parcelNumber"`
	Landmark             string `json:"landmark"`
	PreferredDeliveryDay string `json:"preferredDeliveryDay"`
}

// GuestContact identifies a buyer with no authenticated session.
type GuestContact struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	CreateAccount bool   `json:"createAccount"`
	Password      string `json:"password,omitempty"`
}

// BuyerIdentity is either an authenticated customer id or a guest contact.
// Exactly one side is set; resolved per checkout attempt and never persisted.
type BuyerIdentity struct {
	CustomerID string
	Guest      *GuestContact
}

func (b BuyerIdentity) Authenticated() bool { return b.CustomerID != "" && b.Guest == nil }
