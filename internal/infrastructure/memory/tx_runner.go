package memory

import (
	"context"

	"github.com/sixteenfood/qlsx/internal/application/inventory"
	"github.com/sixteenfood/qlsx/internal/application/planning"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

// TxRunner runs functions against the store with transactional semantics:
// the store semaphore is held for the whole call and the mutable state is
// restored from a deep copy when fn fails.
type TxRunner struct {
	store *Store
}

// NewTxRunner builds a runner over the store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ planning.TxRunner  = (*TxRunner)(nil)
)

// Run implements the inventory transaction port.
func (t *TxRunner) Run(ctx context.Context, fn func(
	docs repository.StockDocumentRepository,
	lots repository.StockLotRepository,
	snaps repository.SnapshotRepository,
	orders repository.ProductionOrderRepository,
) error) error {
	return t.inTx(ctx, func() error {
		return fn(
			&documentRepository{base{store: t.store, locked: true}},
			&lotRepository{base{store: t.store, locked: true}},
			&snapshotRepository{base{store: t.store, locked: true}},
			&orderRepository{base{store: t.store, locked: true}},
		)
	})
}

// RunPlanning implements the planning transaction port.
func (t *TxRunner) RunPlanning(ctx context.Context, fn func(
	plans repository.PlanDayRepository,
	orders repository.ProductionOrderRepository,
) error) error {
	return t.inTx(ctx, func() error {
		return fn(
			&planDayRepository{base{store: t.store, locked: true}},
			&orderRepository{base{store: t.store, locked: true}},
		)
	})
}

func (t *TxRunner) inTx(ctx context.Context, fn func() error) error {
	if err := t.store.acquire(ctx); err != nil {
		return err
	}
	defer t.store.release()

	before := t.store.snapshotState()
	if err := fn(); err != nil {
		t.store.restoreState(before)
		return err
	}
	return nil
}
