package models

import (
	"time"
)

// Order statuses. Transitions between them are owned by
// services.StatusMachine; nothing else writes Order.Status.
const (
	OrderStatusPaymentPending = "payment_pending"
	OrderStatusPlaced         = "placed"
	OrderStatusPreparing      = "preparing"
	OrderStatusReady          = "ready"
	OrderStatusCompleted      = "completed"
	OrderStatusCancelled      = "cancelled"
)

// Payment methods
const (
	PaymentMethodCOD  = "cod"
	PaymentMethodUPI  = "upi"
	PaymentMethodCard = "card"
)

// Payment states
const (
	PaymentStatePending     = "pending"
	PaymentStatePaid        = "paid"
	PaymentStatePayOnPickup = "pay_on_pickup"
	PaymentStateExpired     = "expired"
)

type Order struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	CanteenID     string      `gorm:"size:36;index;not null" json:"canteen_id"`
	BuyerID       string      `gorm:"size:36;index;not null" json:"buyer_id"`
	Status        string      `gorm:"type:varchar(20);not null;default:'payment_pending'" json:"status"`
	Version       uint        `gorm:"not null;default:1" json:"version"`
	PickupTime    time.Time   `gorm:"not null" json:"pickup_time"`
	Note          string      `gorm:"type:text" json:"note"`
	Subtotal      float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"subtotal"`
	Discount      float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"discount"`
	Total         float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	PaymentMethod string      `gorm:"type:varchar(10)" json:"payment_method"`
	PaymentState  string      `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_state"`
	GatewayRef    string      `gorm:"size:64" json:"gateway_ref,omitempty"`
	CreatedAt     time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// Terminal reports whether the order can accept no further transitions.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}
