package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yeremiapane/canteen-app/models"
)

// RedisPersistence stores cart snapshots as JSON under cart:buyer:<id>
// with a TTL, so an untouched cart eventually evaporates on its own.
type RedisPersistence struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPersistence(client *redis.Client, ttl time.Duration) *RedisPersistence {
	return &RedisPersistence{client: client, ttl: ttl}
}

// NewRedisClient connects to redis from a URL and verifies the connection.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (r *RedisPersistence) key(buyerID string) string {
	return fmt.Sprintf("cart:buyer:%s", buyerID)
}

func (r *RedisPersistence) Load(ctx context.Context, buyerID string) (*models.CartSnapshot, error) {
	data, err := r.client.Get(ctx, r.key(buyerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot models.CartSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *RedisPersistence) Save(ctx context.Context, snapshot *models.CartSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(snapshot.BuyerID), data, r.ttl).Err()
}

func (r *RedisPersistence) Delete(ctx context.Context, buyerID string) error {
	return r.client.Del(ctx, r.key(buyerID)).Err()
}
