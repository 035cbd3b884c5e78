package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem associates a user with a product and a quantity. A cart holds at
// most one row per (user, product) pair; re-adding increments the quantity.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Product carries the current catalog snapshot when the cart is listed.
	// Cart pricing is live; only order lines freeze prices.
	Product *Product `json:"product,omitempty" db:"-"`
}
