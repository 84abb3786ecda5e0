package client

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/canteen-app/config"
	"github.com/yeremiapane/canteen-app/models"
)

func TestNewBuyerSessionRequiresRedis(t *testing.T) {
	cfg := config.Load()
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := NewBuyerSession(context.Background(), cfg, "buyer-1")
	assert.Error(t, err)
}

func TestNewBuyerSessionWiresRedisBackedCart(t *testing.T) {
	ctx := context.Background()
	cfg := config.Load()
	buyerID := "test-buyer-" + uuid.NewString()

	session, err := NewBuyerSession(ctx, cfg, buyerID)
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	assert.NoError(t, session.Cart.AddItem(ctx, models.CartItem{
		ItemID: "dosa", Name: "Masala Dosa", UnitPrice: 50, CanteenID: "C1",
	}))
	assert.Equal(t, 1, session.Cart.Count())
	assert.Equal(t, 50.0, session.Cart.TotalPrice())

	// A second session for the same buyer resumes the persisted cart.
	resumed, err := NewBuyerSession(ctx, cfg, buyerID)
	assert.NoError(t, err)
	assert.Equal(t, 1, resumed.Cart.Count())

	assert.NoError(t, session.Cart.Clear(ctx))
	assert.False(t, session.Membership.Connected())
}

func TestNewVendorConsoleStartsEmpty(t *testing.T) {
	cfg := config.Load()

	console, err := NewVendorConsole(cfg, "C1", "vendor-session-1")
	assert.NoError(t, err)
	assert.Equal(t, 0, console.Len())
	assert.Empty(t, console.Orders())
}
