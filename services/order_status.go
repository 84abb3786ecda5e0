package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/canteen-app/channel"
	"github.com/yeremiapane/canteen-app/models"
)

// MinPickupLead is the minimum preparation lead time a vendor gets.
// Pickup times closer than this are rejected at submission.
const MinPickupLead = 10 * time.Minute

var (
	// ErrInvalidTransition - the requested target is not reachable from
	// the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrTransitionConflict - a concurrent transition won; the order moved
	// out of the observed status before this one was applied.
	ErrTransitionConflict = errors.New("order status changed concurrently")
)

// transitions encodes the server-authoritative state diagram. Clients
// only request transitions; anything not listed here is rejected.
var transitions = map[string][]string{
	models.OrderStatusPaymentPending: {models.OrderStatusPlaced, models.OrderStatusCancelled},
	models.OrderStatusPlaced:         {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing:      {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:          {models.OrderStatusCompleted},
	models.OrderStatusCompleted:      {},
	models.OrderStatusCancelled:      {},
}

func canTransition(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// StatusMachine is the single writer of Order.Status. Every accepted
// transition bumps Version, is persisted, then broadcast to the order's
// canteen room.
type StatusMachine struct {
	db  *gorm.DB
	hub *channel.Hub
}

func NewStatusMachine(db *gorm.DB, hub *channel.Hub) *StatusMachine {
	return &StatusMachine{db: db, hub: hub}
}

// Transition moves an order to target if the state diagram allows it.
// The update is a compare-and-set on the observed status, so of two
// conflicting concurrent requests exactly one succeeds; the loser gets
// ErrTransitionConflict.
func (sm *StatusMachine) Transition(orderID, target string) (*models.Order, error) {
	var order models.Order
	if err := sm.db.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}

	if !canTransition(order.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
	}

	return sm.apply(order.ID, order.Status, target, nil)
}

// ConfirmPayment moves a payment_pending order to placed, recording how
// it was paid. Used by the COD confirmation and by gateway verification.
func (sm *StatusMachine) ConfirmPayment(orderID, method, paymentState string) (*models.Order, error) {
	var order models.Order
	if err := sm.db.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusPaymentPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, models.OrderStatusPlaced)
	}

	return sm.apply(order.ID, order.Status, models.OrderStatusPlaced, map[string]interface{}{
		"payment_method": method,
		"payment_state":  paymentState,
	})
}

// Expire cancels an abandoned payment_pending order and marks its
// payment expired. Driven by the payment expiry monitor.
func (sm *StatusMachine) Expire(orderID string) (*models.Order, error) {
	var order models.Order
	if err := sm.db.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusPaymentPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, models.OrderStatusCancelled)
	}

	return sm.apply(order.ID, order.Status, models.OrderStatusCancelled, map[string]interface{}{
		"payment_state": models.PaymentStateExpired,
	})
}

// apply performs the guarded update and broadcasts the result. The WHERE
// clause on the observed status is what serializes concurrent writers.
func (sm *StatusMachine) apply(orderID, observed, target string, extra map[string]interface{}) (*models.Order, error) {
	updates := map[string]interface{}{
		"status":     target,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := sm.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, observed).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTransitionConflict
	}

	var order models.Order
	if err := sm.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}

	if sm.hub != nil {
		if target == models.OrderStatusPlaced {
			// Entering placed is when the vendor first needs to see the order.
			sm.hub.BroadcastNewOrder(order)
		} else {
			sm.hub.BroadcastOrderUpdate(order)
		}
	}

	return &order, nil
}
