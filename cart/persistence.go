package cart

import (
	"context"
	"sync"

	"github.com/yeremiapane/canteen-app/models"
)

// MemoryPersistence keeps snapshots in process memory. Used in tests and
// wherever durability across restarts is not needed.
type MemoryPersistence struct {
	mu        sync.Mutex
	snapshots map[string]models.CartSnapshot
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{snapshots: make(map[string]models.CartSnapshot)}
}

func (m *MemoryPersistence) Load(_ context.Context, buyerID string) (*models.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.snapshots[buyerID]
	if !ok {
		return nil, nil
	}
	copied := snapshot
	copied.Items = append([]models.CartItem(nil), snapshot.Items...)
	return &copied, nil
}

func (m *MemoryPersistence) Save(_ context.Context, snapshot *models.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *snapshot
	copied.Items = append([]models.CartItem(nil), snapshot.Items...)
	m.snapshots[snapshot.BuyerID] = copied
	return nil
}

func (m *MemoryPersistence) Delete(_ context.Context, buyerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.snapshots, buyerID)
	return nil
}
