// Package models defines the core data structures for users and lots.
package models

import "time"

// User represents a registered marketplace user. The JSON tags describe
// the record as it appears in the users backing file, where the
// username is the map key rather than a record field.
type User struct {
	// Username is the unique login name, immutable after registration.
	Username string `json:"-"`
	// PasswordHash is the bcrypt hash of the user's password. Raw
	// secrets are never stored.
	PasswordHash string `json:"password_credential"`
	// Email is unique across all users.
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// PhoneNumber is the composed country code plus local number.
	PhoneNumber string `json:"phone_number"`
}

// Profile carries the optional profile fields supplied at registration.
type Profile struct {
	FirstName        string
	LastName         string
	PhoneCountryCode string
	PhoneNumber      string
}

// Lot is a sellable listing record.
type Lot struct {
	// ID is the store-generated unique identifier, stable for the
	// record's lifetime.
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	StartPrice  float64 `json:"start_price"`
	// CreatedAt is set once at creation and never mutated.
	CreatedAt time.Time `json:"created_at"`
	// Owner names the user who created the lot; never reassigned.
	Owner string `json:"owner"`
	// ImageRefs holds the lot's image references in display order.
	ImageRefs []string `json:"image_refs"`
	// OriginIP records the address the lot was created from;
	// informational only.
	OriginIP string `json:"origin_ip,omitempty"`
}

// LotDraft carries the caller-supplied fields for a new lot.
type LotDraft struct {
	Name        string
	Description string
	StartPrice  float64
	OriginIP    string
}

// LotPatch describes a partial update to a lot. Nil field pointers
// leave the stored value untouched. ClearImages drops the stored image
// references before AddImageRefs, if any, are appended.
type LotPatch struct {
	Name         *string
	Description  *string
	StartPrice   *float64
	ClearImages  bool
	AddImageRefs []string
}
