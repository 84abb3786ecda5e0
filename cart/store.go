package cart

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yeremiapane/canteen-app/models"
)

// Persistence is the durable-snapshot port behind the cart store. Every
// mutation writes through it so a process restart loses nothing.
type Persistence interface {
	Load(ctx context.Context, buyerID string) (*models.CartSnapshot, error)
	Save(ctx context.Context, snapshot *models.CartSnapshot) error
	Delete(ctx context.Context, buyerID string) error
}

// Store holds one buyer's in-progress selection before checkout.
// Entries never carry quantity <= 0: a decrement or SetQuantity that
// reaches zero removes the entry, and the total is recomputed on every
// mutation. Callers inject the store; there is no package-level cart.
type Store struct {
	mu      sync.Mutex
	buyerID string
	items   map[string]models.CartItem
	total   float64
	port    Persistence
}

func NewStore(buyerID string, port Persistence) *Store {
	return &Store{
		buyerID: buyerID,
		items:   make(map[string]models.CartItem),
		port:    port,
	}
}

// Load replays the persisted snapshot, if any. Called once after startup.
func (s *Store) Load(ctx context.Context) error {
	snapshot, err := s.port.Load(ctx, s.buyerID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]models.CartItem)
	if snapshot != nil {
		for _, item := range snapshot.Items {
			if item.Quantity > 0 {
				s.items[item.ItemID] = item
			}
		}
	}
	s.recompute()
	return nil
}

// AddItem inserts the item with quantity 1, or bumps the quantity by 1
// if it is already in the cart. No upper bound is enforced here.
func (s *Store) AddItem(ctx context.Context, item models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[item.ItemID]; ok {
		existing.Quantity++
		s.items[item.ItemID] = existing
	} else {
		item.Quantity = 1
		s.items[item.ItemID] = item
	}
	return s.commit(ctx)
}

func (s *Store) RemoveItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, itemID)
	return s.commit(ctx)
}

// SetQuantity sets an entry's quantity; n <= 0 removes the entry.
func (s *Store) SetQuantity(ctx context.Context, itemID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		delete(s.items, itemID)
		return s.commit(ctx)
	}
	item, ok := s.items[itemID]
	if !ok {
		return s.commit(ctx)
	}
	item.Quantity = n
	s.items[itemID] = item
	return s.commit(ctx)
}

func (s *Store) Increment(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return s.commit(ctx)
	}
	item.Quantity++
	s.items[itemID] = item
	return s.commit(ctx)
}

// Decrement lowers an entry's quantity by 1, removing it at zero.
func (s *Store) Decrement(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return s.commit(ctx)
	}
	item.Quantity--
	if item.Quantity <= 0 {
		delete(s.items, itemID)
	} else {
		s.items[itemID] = item
	}
	return s.commit(ctx)
}

// Clear empties the cart and drops the persisted snapshot.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]models.CartItem)
	s.total = 0
	return s.port.Delete(ctx, s.buyerID)
}

// Items returns the cart entries sorted by item ID.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedItems()
}

func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// CanteenID returns the canteen the cart's items belong to, or "" for an
// empty cart. Mixed-canteen carts (possible at add time, rejected at
// submission) report the first canteen found.
func (s *Store) CanteenID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.sortedItems() {
		return item.CanteenID
	}
	return ""
}

// Snapshot returns a copy of the current cart contents.
func (s *Store) Snapshot() models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CartSnapshot{
		BuyerID:    s.buyerID,
		Items:      s.sortedItems(),
		TotalPrice: s.total,
		UpdatedAt:  time.Now(),
	}
}

func (s *Store) sortedItems() []models.CartItem {
	items := make([]models.CartItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items
}

func (s *Store) recompute() {
	total := 0.0
	for _, item := range s.items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	s.total = total
}

// commit recomputes the total and persists the snapshot. Callers hold s.mu.
func (s *Store) commit(ctx context.Context) error {
	s.recompute()
	return s.port.Save(ctx, &models.CartSnapshot{
		BuyerID:    s.buyerID,
		Items:      s.sortedItems(),
		TotalPrice: s.total,
		UpdatedAt:  time.Now(),
	})
}
