package client

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/yeremiapane/canteen-app/channel"
	"github.com/yeremiapane/canteen-app/models"
)

// Console is the vendor's authoritative in-memory view of one canteen's
// orders. It is seeded by a full fetch and then kept current purely by
// pushed events. Redelivered or reordered events are safe: upserts are
// keyed by order ID and a stale version never overwrites a newer one.
type Console struct {
	mu         sync.Mutex
	canteenID  string
	orders     map[string]models.Order
	svc        OrderService
	membership *Membership
}

func NewConsole(canteenID string, svc OrderService, membership *Membership) *Console {
	return &Console{
		canteenID:  canteenID,
		orders:     make(map[string]models.Order),
		svc:        svc,
		membership: membership,
	}
}

// Start connects, joins the canteen's room and seeds the list. After a
// reconnect the console refetches before resuming incremental updates,
// covering events lost while disconnected.
func (c *Console) Start(ctx context.Context) error {
	c.membership.SetHandler(c.handleEvent)
	c.membership.SetOnReconnect(func() {
		if err := c.Refresh(context.Background()); err != nil {
			// Next event or reconnect gets another chance.
			return
		}
	})

	if err := c.membership.Connect(); err != nil {
		return err
	}
	if err := c.membership.Join(c.canteenID); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Console) Stop() error {
	return c.membership.Disconnect()
}

// Refresh replaces the view with the server's authoritative open-order
// list, applied through the same stale-version guard as pushed events.
func (c *Console) Refresh(ctx context.Context) error {
	orders, err := c.svc.ListOpenOrders(ctx, c.canteenID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, order := range orders {
		c.upsertLocked(order)
	}
	return nil
}

// RequestTransition asks the server to advance an order. The local view
// is never mutated optimistically; it changes when the pushed
// order_update (or the response snapshot applied here) lands.
func (c *Console) RequestTransition(ctx context.Context, orderID, status string) error {
	order, err := c.svc.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(*order)
	return nil
}

func (c *Console) handleEvent(event string, data json.RawMessage) {
	if event != channel.EventNewOrder && event != channel.EventOrderUpdate {
		return
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return
	}
	if order.CanteenID != c.canteenID {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(order)
}

// upsertLocked applies an order snapshot idempotently: same or older
// versions of an already-known order are dropped, so at-least-once,
// unordered delivery cannot duplicate an entry or move it backward.
func (c *Console) upsertLocked(order models.Order) {
	if existing, ok := c.orders[order.ID]; ok && existing.Version >= order.Version {
		return
	}
	c.orders[order.ID] = order
}

// Orders returns copies of the full list, oldest first.
func (c *Console) Orders() []models.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortedLocked(func(models.Order) bool { return true })
}

// Filter is a pure projection by status; it never mutates the records.
func (c *Console) Filter(status string) []models.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortedLocked(func(o models.Order) bool { return o.Status == status })
}

func (c *Console) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.orders)
}

func (c *Console) sortedLocked(keep func(models.Order) bool) []models.Order {
	orders := make([]models.Order, 0, len(c.orders))
	for _, order := range c.orders {
		if keep(order) {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders
}
