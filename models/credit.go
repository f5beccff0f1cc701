package models

import "time"

// CreditPackage is a batch of prepaid credits granted to a user.
type CreditPackage struct {
	ID               string     `bson:"id" json:"id"`
	UserID           string     `bson:"user_id" json:"user_id"`
	Name             string     `bson:"name" json:"name"`
	Credits          int        `bson:"credits" json:"credits"`
	CreditsRemaining int        `bson:"credits_remaining" json:"credits_remaining"`
	PriceCents       int64      `bson:"price_cents" json:"price_cents"`
	Currency         string     `bson:"currency" json:"currency"`
	ExpiresAt        *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	// ExpiresSort mirrors ExpiresAt with a far-future value for packages that never expire,
	// so an ascending sort puts them last.
	ExpiresSort time.Time `bson:"expires_sort" json:"-"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// NeverExpires is the ExpiresSort value for packages without an expiry.
var NeverExpires = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
