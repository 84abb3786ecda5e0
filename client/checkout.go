package client

import (
	"context"
	"time"

	"github.com/yeremiapane/canteen-app/cart"
	"github.com/yeremiapane/canteen-app/services"
)

// Checkout drives a cart through submission and payment. The cart is
// cleared only once a payment path completes, so any failure before that
// leaves the cart intact for a retry.
type Checkout struct {
	cartStore  *cart.Store
	orders     OrderService
	payments   PaymentService
	membership *Membership
	buyerID    string

	// Now is swappable in tests.
	Now func() time.Time
}

func NewCheckout(buyerID string, cartStore *cart.Store, orders OrderService, payments PaymentService, membership *Membership) *Checkout {
	return &Checkout{
		cartStore:  cartStore,
		orders:     orders,
		payments:   payments,
		membership: membership,
		buyerID:    buyerID,
		Now:        time.Now,
	}
}

// Submit validates the cart and pickup constraints, then creates the
// order. Validation short-circuits before any network call. The returned
// order starts in payment_pending; the cart is not touched.
func (co *Checkout) Submit(ctx context.Context, pickupTime time.Time, note, promoCode string) (string, error) {
	items := co.cartStore.Items()
	if len(items) == 0 {
		return "", ErrEmptyCart
	}

	canteenID := items[0].CanteenID
	subtotal := 0.0
	for _, item := range items {
		if item.CanteenID != canteenID {
			return "", ErrMixedCanteens
		}
		subtotal += item.UnitPrice * float64(item.Quantity)
	}

	if pickupTime.Before(co.Now().Add(services.MinPickupLead)) {
		return "", ErrPickupTooSoon
	}

	if _, err := services.EvaluatePromo(promoCode, subtotal); err != nil {
		return "", err
	}

	return co.orders.CreateOrder(ctx, CreateOrderRequest{
		CanteenID:  canteenID,
		BuyerID:    co.buyerID,
		Items:      items,
		PickupTime: pickupTime,
		Note:       note,
		PromoCode:  promoCode,
	})
}

// PayOnPickup confirms a pay-on-pickup order. One request; on success
// the order is placed and the cart and channel membership are released.
func (co *Checkout) PayOnPickup(ctx context.Context, orderID string) error {
	if err := co.payments.CreateCODPayment(ctx, orderID); err != nil {
		return err
	}
	return co.finishPayment(ctx)
}

// PaymentWidget collects the payment instrument out-of-process and
// returns the gateway's signed result.
type PaymentWidget func(order GatewayOrder) (GatewayResult, error)

// PayViaGateway runs the three-step gateway handshake: create the
// gateway order, hand its reference to the widget, then verify the
// signed result. A widget abort or failed verification leaves the order
// in payment_pending and the cart untouched.
func (co *Checkout) PayViaGateway(ctx context.Context, orderID, method string, widget PaymentWidget) error {
	gatewayOrder, err := co.payments.CreateGatewayOrder(ctx, orderID, method)
	if err != nil {
		return err
	}

	result, err := widget(*gatewayOrder)
	if err != nil {
		return err
	}

	if err := co.payments.VerifyGatewayPayment(ctx, result); err != nil {
		return err
	}

	return co.finishPayment(ctx)
}

// finishPayment clears the cart and tears down the canteen channel
// membership; the buyer no longer needs push updates tied to an empty
// cart.
func (co *Checkout) finishPayment(ctx context.Context) error {
	if err := co.cartStore.Clear(ctx); err != nil {
		return err
	}
	if co.membership != nil {
		return co.membership.Disconnect()
	}
	return nil
}
