package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/canteen-app/models"
	"github.com/yeremiapane/canteen-app/utils"
)

// PaymentMonitor cancels gateway orders abandoned in payment_pending.
// The buyer can walk away from the payment widget at any point; without
// this sweep such orders would sit in payment_pending forever.
type PaymentMonitor struct {
	db       *gorm.DB
	machine  *StatusMachine
	expiry   time.Duration
	Interval time.Duration
	stop     chan struct{}
}

func NewPaymentMonitor(db *gorm.DB, machine *StatusMachine, expiry time.Duration) *PaymentMonitor {
	return &PaymentMonitor{
		db:       db,
		machine:  machine,
		expiry:   expiry,
		Interval: time.Minute,
		stop:     make(chan struct{}),
	}
}

func (pm *PaymentMonitor) Start() {
	go pm.run()
	utils.InfoLogger.Printf("Payment expiry monitor started (expiry %v)", pm.expiry)
}

func (pm *PaymentMonitor) Stop() {
	close(pm.stop)
}

func (pm *PaymentMonitor) run() {
	ticker := time.NewTicker(pm.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pm.CheckExpiredPayments()
		case <-pm.stop:
			return
		}
	}
}

// CheckExpiredPayments sweeps payment_pending orders older than the
// expiry window through the state machine, so the cancellation is
// versioned and broadcast like any vendor-issued transition.
func (pm *PaymentMonitor) CheckExpiredPayments() {
	cutoff := time.Now().Add(-pm.expiry)

	var orders []models.Order
	err := pm.db.
		Where("status = ? AND created_at < ?", models.OrderStatusPaymentPending, cutoff).
		Find(&orders).Error
	if err != nil {
		utils.ErrorLogger.Printf("Error checking expired payments: %v", err)
		return
	}

	for _, order := range orders {
		if _, err := pm.machine.Expire(order.ID); err != nil {
			// A concurrent verification may have placed the order meanwhile.
			if errors.Is(err, ErrTransitionConflict) || errors.Is(err, ErrInvalidTransition) {
				continue
			}
			utils.ErrorLogger.Printf("Error expiring order %s: %v", order.ID, err)
			continue
		}
		utils.InfoLogger.Printf("Order %s cancelled: payment abandoned past %v", order.ID, pm.expiry)
	}
}
