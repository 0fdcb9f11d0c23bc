package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

// TxRunner executes a function inside one database transaction, handing it
// repositories bound to that transaction. Guarantees all-or-nothing posting:
// commit when fn returns nil, rollback otherwise. Implementations must
// serialize concurrent access per (product, warehouse) key (row locks or an
// equivalent keyed mutex) and surface domain.ErrLockTimeout instead of
// blocking without bound.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		docs repository.StockDocumentRepository,
		lots repository.StockLotRepository,
		snaps repository.SnapshotRepository,
		orders repository.ProductionOrderRepository,
	) error) error
}

// ReservationStore holds advisory soft holds with a TTL. Holds never mutate
// the ledger; expiry is the store's job (redis TTL, or sweep in memory).
type ReservationStore interface {
	Put(ctx context.Context, r entity.Reservation, ttl time.Duration) error
	Release(ctx context.Context, id string) error
	// ActiveQuantity sums unexpired holds for a key.
	ActiveQuantity(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error)
	// ActiveByProduct sums unexpired holds for a product across warehouses.
	ActiveByProduct(ctx context.Context, productID string) (decimal.Decimal, error)
}
