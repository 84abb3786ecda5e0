package models

import (
	"time"
)

// OrderItem is a purchase-time snapshot. Name and price are copied from
// the cart at submission so later catalog edits never change an order.
type OrderItem struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	OrderID string `gorm:"size:36;index;not null" json:"order_id"`
	// Omitting Order field from JSON to avoid recursive nesting
	Order           Order     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ItemID          string    `gorm:"size:36;not null" json:"item_id"`
	NameAtPurchase  string    `gorm:"size:100;not null" json:"name_at_purchase"`
	PriceAtPurchase float64   `gorm:"type:decimal(10,2);not null" json:"price_at_purchase"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}
