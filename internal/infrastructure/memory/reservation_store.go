package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/application/inventory"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// ReservationStore holds soft reservations in memory. Expiry is checked on
// read; there is no background sweeper.
type ReservationStore struct {
	mu    sync.Mutex
	holds map[string]entity.Reservation
	now   func() time.Time
}

var _ inventory.ReservationStore = (*ReservationStore)(nil)

// NewReservationStore builds an empty store.
func NewReservationStore() *ReservationStore {
	return &ReservationStore{
		holds: make(map[string]entity.Reservation),
		now:   time.Now,
	}
}

// Put stores a reservation. The TTL is already baked into ExpiresAt.
func (s *ReservationStore) Put(_ context.Context, r entity.Reservation, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[r.ID] = r
	return nil
}

// Release drops a reservation; unknown ids are a no-op.
func (s *ReservationStore) Release(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holds, id)
	return nil
}

// ActiveQuantity sums unexpired holds for one (product, warehouse) key.
func (s *ReservationStore) ActiveQuantity(_ context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	now := s.now()
	for id, r := range s.holds {
		if r.Expired(now) {
			delete(s.holds, id)
			continue
		}
		if r.ProductID == productID && r.WarehouseID == warehouseID {
			total = total.Add(r.Quantity)
		}
	}
	return total, nil
}

// ActiveByProduct sums unexpired holds for a product across warehouses.
func (s *ReservationStore) ActiveByProduct(_ context.Context, productID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	now := s.now()
	for id, r := range s.holds {
		if r.Expired(now) {
			delete(s.holds, id)
			continue
		}
		if r.ProductID == productID {
			total = total.Add(r.Quantity)
		}
	}
	return total, nil
}
