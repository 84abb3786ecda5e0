package models

import (
	"time"
)

// CartItem is one selected catalog item in a buyer's cart. Quantity is
// always >= 1; an item driven to zero is removed from the cart entirely.
type CartItem struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	CanteenID string  `json:"canteen_id"`
	Image     string  `json:"image,omitempty"`
}

// CartSnapshot is the durable form of a cart, written to the persistence
// port on every mutation and replayed after a restart.
type CartSnapshot struct {
	BuyerID    string     `json:"buyer_id"`
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"total_price"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
