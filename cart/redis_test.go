package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/canteen-app/models"
)

// redisTestPersistence connects to a local redis, skipping the test when
// none is reachable.
func redisTestPersistence(t *testing.T) *RedisPersistence {
	t.Helper()
	client, err := NewRedisClient("redis://localhost:6379")
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewRedisPersistence(client, time.Minute)
}

func TestRedisPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	port := redisTestPersistence(t)
	buyerID := "test-buyer-" + uuid.NewString()
	t.Cleanup(func() { port.Delete(ctx, buyerID) })

	// Unknown buyer loads as no snapshot, not an error.
	snapshot, err := port.Load(ctx, buyerID)
	assert.NoError(t, err)
	assert.Nil(t, snapshot)

	saved := &models.CartSnapshot{
		BuyerID: buyerID,
		Items: []models.CartItem{
			{ItemID: "dosa", Name: "Masala Dosa", UnitPrice: 50, Quantity: 2, CanteenID: "C1"},
			{ItemID: "chai", Name: "Chai", UnitPrice: 30, Quantity: 1, CanteenID: "C1"},
		},
		TotalPrice: 130,
		UpdatedAt:  time.Now(),
	}
	assert.NoError(t, port.Save(ctx, saved))

	loaded, err := port.Load(ctx, buyerID)
	assert.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Equal(t, saved.Items, loaded.Items)
	assert.Equal(t, 130.0, loaded.TotalPrice)

	// The snapshot carries the configured TTL.
	ttl := port.client.TTL(ctx, port.key(buyerID)).Val()
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	assert.NoError(t, port.Delete(ctx, buyerID))
	gone, err := port.Load(ctx, buyerID)
	assert.NoError(t, err)
	assert.Nil(t, gone)
}

func TestStoreSnapshotReplayOverRedis(t *testing.T) {
	ctx := context.Background()
	port := redisTestPersistence(t)
	buyerID := "test-buyer-" + uuid.NewString()
	t.Cleanup(func() { port.Delete(ctx, buyerID) })

	store := NewStore(buyerID, port)
	assert.NoError(t, store.AddItem(ctx, models.CartItem{ItemID: "dosa", Name: "Masala Dosa", UnitPrice: 50, CanteenID: "C1"}))
	assert.NoError(t, store.AddItem(ctx, models.CartItem{ItemID: "dosa", Name: "Masala Dosa", UnitPrice: 50, CanteenID: "C1"}))
	assert.NoError(t, store.AddItem(ctx, models.CartItem{ItemID: "chai", Name: "Chai", UnitPrice: 30, CanteenID: "C1"}))

	// A fresh store over the same redis key resumes the cart.
	reloaded := NewStore(buyerID, port)
	assert.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 2, reloaded.Count())
	assert.Equal(t, 130.0, reloaded.TotalPrice())

	assert.NoError(t, reloaded.Clear(ctx))
	snapshot, err := port.Load(ctx, buyerID)
	assert.NoError(t, err)
	assert.Nil(t, snapshot)
}
