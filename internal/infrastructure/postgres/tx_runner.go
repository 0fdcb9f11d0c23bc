package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sixteenfood/qlsx/internal/application/inventory"
	"github.com/sixteenfood/qlsx/internal/application/planning"
	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

// Ensure TxRunner implements the application transaction ports.
var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ planning.TxRunner  = (*TxRunner)(nil)
)

// TxRunner executes callbacks inside a PostgreSQL transaction. Row locks taken
// via SELECT ... FOR UPDATE serialize concurrent work per key; a lock_timeout
// is set per transaction so blocked work fails fast with ErrLockTimeout
// instead of queueing without bound.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner builds the runner over the pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run starts a transaction, executes fn with tx-bound ledger repositories and
// commits or rolls back.
func (r *TxRunner) Run(ctx context.Context, fn func(
	docs repository.StockDocumentRepository,
	lots repository.StockLotRepository,
	snaps repository.SnapshotRepository,
	orders repository.ProductionOrderRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(
			NewStockDocumentRepository(q),
			NewStockLotRepository(q),
			NewSnapshotRepository(q),
			NewProductionOrderRepository(q),
		)
	})
}

// RunPlanning starts a transaction with plan-day and order repositories.
func (r *TxRunner) RunPlanning(ctx context.Context, fn func(
	plans repository.PlanDayRepository,
	orders repository.ProductionOrderRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(
			NewPlanDayRepository(q),
			NewProductionOrderRepository(q),
		)
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SET LOCAL lock_timeout = '3s'"); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}

	if err := fn(tx); err != nil {
		if isLockNotAvailable(err) {
			return domain.ErrLockTimeout
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
