package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo implements SnapshotRepository over PostgreSQL (pool or tx).
// A missing row reads as a zero balance, never as an error.
type SnapshotRepo struct {
	q Querier
}

// NewSnapshotRepository builds the adapter. Pass pool or tx (Querier).
func NewSnapshotRepository(q Querier) *SnapshotRepo {
	return &SnapshotRepo{q: q}
}

const snapshotColumns = `
	product_id, warehouse_id, total_in, total_out, current_qty, inventory_value, updated_at`

func (r *SnapshotRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.InventorySnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM inventory_snapshots WHERE product_id = $1 AND warehouse_id = $2`
	return r.get(ctx, query, productID, warehouseID)
}

// GetForUpdate locks the snapshot row for the surrounding transaction. A
// missing key still returns a zero-value snapshot; Upsert creates the row and
// the primary key turns a concurrent double insert into a conflict.
func (r *SnapshotRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.InventorySnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM inventory_snapshots WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	return r.get(ctx, query, productID, warehouseID)
}

func (r *SnapshotRepo) get(ctx context.Context, query, productID, warehouseID string) (*entity.InventorySnapshot, error) {
	var s entity.InventorySnapshot
	err := r.q.QueryRow(ctx, query, productID, warehouseID).Scan(
		&s.ProductID, &s.WarehouseID, &s.TotalIn, &s.TotalOut,
		&s.CurrentQty, &s.InventoryValue, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.InventorySnapshot{ProductID: productID, WarehouseID: warehouseID}, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &s, nil
}

func (r *SnapshotRepo) Upsert(ctx context.Context, s *entity.InventorySnapshot) error {
	query := `
		INSERT INTO inventory_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET total_in = EXCLUDED.total_in,
		              total_out = EXCLUDED.total_out,
		              current_qty = EXCLUDED.current_qty,
		              inventory_value = EXCLUDED.inventory_value,
		              updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.ProductID, s.WarehouseID, s.TotalIn, s.TotalOut,
		s.CurrentQty, s.InventoryValue, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) SumByWarehouseType(ctx context.Context, productID, warehouseType string) (decimal.Decimal, error) {
	query := `
		SELECT coalesce(sum(s.current_qty), 0)
		FROM inventory_snapshots s
		JOIN warehouses w ON w.id = s.warehouse_id
		WHERE s.product_id = $1 AND w.wh_type = $2`
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, productID, warehouseType).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum snapshots: %w", err)
	}
	return total, nil
}
