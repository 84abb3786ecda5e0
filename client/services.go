// Package client holds the buyer- and vendor-side half of the order
// lifecycle: the checkout pipeline and payment handshake, channel
// membership, and the vendor order console. Network collaborators are
// consumed through small interfaces so tests can swap them out.
package client

import (
	"context"
	"errors"
	"time"

	"github.com/yeremiapane/canteen-app/models"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrMixedCanteens = errors.New("cart contains items from more than one canteen")
	ErrPickupTooSoon = errors.New("pickup time must be at least 10 minutes from now")
	// ErrPaymentVerification - the gateway rejected the signed payment
	// result. Distinct from transport errors so the buyer can tell that
	// payment itself did not complete.
	ErrPaymentVerification = errors.New("payment verification failed")
	ErrNotConnected        = errors.New("channel not connected")
)

type CreateOrderRequest struct {
	CanteenID  string            `json:"canteen_id"`
	BuyerID    string            `json:"buyer_id"`
	Items      []models.CartItem `json:"items"`
	PickupTime time.Time         `json:"pickup_time"`
	Note       string            `json:"note"`
	PromoCode  string            `json:"promo_code"`
}

// GatewayOrder is the gateway-side reference handed to the payment widget.
type GatewayOrder struct {
	GatewayRef string  `json:"gateway_ref"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

// GatewayResult is the signed response the widget returns after
// collecting the payment instrument.
type GatewayResult struct {
	OrderID     string `json:"order_id"`
	GatewayRef  string `json:"gateway_ref"`
	StatusCode  string `json:"status_code"`
	GrossAmount string `json:"gross_amount"`
	Signature   string `json:"signature"`
}

// OrderService is the external order service consumed by the checkout
// pipeline and the vendor console.
type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (string, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOpenOrders(ctx context.Context, canteenID string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error)
}

// PaymentService is the external payment surface of the order service.
type PaymentService interface {
	CreateCODPayment(ctx context.Context, orderID string) error
	CreateGatewayOrder(ctx context.Context, orderID, method string) (*GatewayOrder, error)
	VerifyGatewayPayment(ctx context.Context, result GatewayResult) error
}
