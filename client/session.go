package client

import (
	"context"

	"github.com/yeremiapane/canteen-app/cart"
	"github.com/yeremiapane/canteen-app/config"
	"github.com/yeremiapane/canteen-app/utils"
)

// BuyerSession bundles one buyer's collaborators: a redis-backed cart
// replayed from its last snapshot, the order service API client and the
// push-channel membership.
type BuyerSession struct {
	Cart       *cart.Store
	Checkout   *Checkout
	Membership *Membership
}

// NewBuyerSession wires a buyer session from config. The cart persists
// to redis under the buyer's ID, so an interrupted session resumes with
// the same contents on the next start.
func NewBuyerSession(ctx context.Context, cfg config.Config, buyerID string) (*BuyerSession, error) {
	redisClient, err := cart.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	store := cart.NewStore(buyerID, cart.NewRedisPersistence(redisClient, cfg.CartTTL))
	if err := store.Load(ctx); err != nil {
		return nil, err
	}

	token, err := utils.GenerateChannelToken(buyerID, "buyer")
	if err != nil {
		return nil, err
	}

	membership := NewMembership(cfg.ChannelAddr, token)
	api := NewAPIClient(cfg.APIAddr)

	return &BuyerSession{
		Cart:       store,
		Checkout:   NewCheckout(buyerID, store, api, api, membership),
		Membership: membership,
	}, nil
}

// NewVendorConsole wires a vendor's order console for one canteen.
func NewVendorConsole(cfg config.Config, canteenID, sessionID string) (*Console, error) {
	token, err := utils.GenerateChannelToken(sessionID, "vendor")
	if err != nil {
		return nil, err
	}

	api := NewAPIClient(cfg.APIAddr)
	return NewConsole(canteenID, api, NewMembership(cfg.ChannelAddr, token)), nil
}
