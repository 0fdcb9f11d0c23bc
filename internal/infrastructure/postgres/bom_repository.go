package postgres

import (
	"context"
	"fmt"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo implements BOMRepository over PostgreSQL (pool or tx). A unique
// index on (parent_id, component_id, effective_date) with NULL coalesced to a
// sentinel date enforces the one-entry-per-effective-date invariant.
type BOMRepo struct {
	q Querier
}

// NewBOMRepository builds the adapter. Pass pool or tx (Querier).
func NewBOMRepository(q Querier) *BOMRepo {
	return &BOMRepo{q: q}
}

func (r *BOMRepo) AddEntry(ctx context.Context, e *entity.BOMEntry) error {
	query := `
		INSERT INTO bom_entries (id, parent_id, component_id, quantity, uom, cost, effective_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, e.ID, e.ParentID, e.ComponentID, e.Quantity, e.UOM, e.Cost, e.EffectiveDate)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: BOM entry %s -> %s at same effective date",
				domain.ErrDuplicate, e.ParentID, e.ComponentID)
		}
		return fmt.Errorf("add BOM entry: %w", err)
	}
	return nil
}

func (r *BOMRepo) AddLabor(ctx context.Context, l *entity.LaborEntry) error {
	query := `
		INSERT INTO labor_entries (id, product_id, equipment, labor_type, quantity, duration_minutes, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, l.ID, l.ProductID, l.Equipment, l.LaborType, l.Quantity, l.DurationMinutes, l.UnitCost)
	if err != nil {
		return fmt.Errorf("add labor entry: %w", err)
	}
	return nil
}

func (r *BOMRepo) EntriesByParent(ctx context.Context, parentID string) ([]entity.BOMEntry, error) {
	query := `
		SELECT id, parent_id, component_id, quantity, uom, cost, effective_date
		FROM bom_entries WHERE parent_id = $1
		ORDER BY component_id, effective_date NULLS FIRST`
	rows, err := r.q.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list BOM entries: %w", err)
	}
	defer rows.Close()
	var out []entity.BOMEntry
	for rows.Next() {
		var e entity.BOMEntry
		if err := rows.Scan(&e.ID, &e.ParentID, &e.ComponentID, &e.Quantity, &e.UOM, &e.Cost, &e.EffectiveDate); err != nil {
			return nil, fmt.Errorf("scan BOM entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *BOMRepo) LaborByProduct(ctx context.Context, productID string) ([]entity.LaborEntry, error) {
	query := `
		SELECT id, product_id, equipment, labor_type, quantity, duration_minutes, unit_cost
		FROM labor_entries WHERE product_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list labor entries: %w", err)
	}
	defer rows.Close()
	var out []entity.LaborEntry
	for rows.Next() {
		var l entity.LaborEntry
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Equipment, &l.LaborType, &l.Quantity, &l.DurationMinutes, &l.UnitCost); err != nil {
			return nil, fmt.Errorf("scan labor entry: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
