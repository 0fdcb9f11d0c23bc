package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

var _ repository.PlanDayRepository = (*PlanDayRepo)(nil)

// PlanDayRepo implements PlanDayRepository over PostgreSQL (pool or tx).
type PlanDayRepo struct {
	q Querier
}

// NewPlanDayRepository builds the adapter. Pass pool or tx (Querier).
func NewPlanDayRepository(q Querier) *PlanDayRepo {
	return &PlanDayRepo{q: q}
}

// GetForUpdate locks the plan row for the surrounding transaction. A missing
// row returns nil, nil; the caller creates and upserts it under the same
// serialization (the unique index turns a double insert into a conflict).
func (r *PlanDayRepo) GetForUpdate(ctx context.Context, productID string, date time.Time) (*entity.ProductionPlanDay, error) {
	query := `
		SELECT id, production_date, product_id, planned_qty, committed_qty, capacity_max
		FROM production_plan_days
		WHERE product_id = $1 AND production_date = $2
		FOR UPDATE`
	var p entity.ProductionPlanDay
	err := r.q.QueryRow(ctx, query, productID, date).Scan(
		&p.ID, &p.ProductionDate, &p.ProductID, &p.PlannedQty, &p.CommittedQty, &p.CapacityMax,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan day: %w", err)
	}
	return &p, nil
}

func (r *PlanDayRepo) Upsert(ctx context.Context, p *entity.ProductionPlanDay) error {
	query := `
		INSERT INTO production_plan_days
			(id, production_date, product_id, planned_qty, committed_qty, capacity_max)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, production_date)
		DO UPDATE SET planned_qty = EXCLUDED.planned_qty,
		              committed_qty = EXCLUDED.committed_qty,
		              capacity_max = EXCLUDED.capacity_max`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.ProductionDate, p.ProductID, p.PlannedQty, p.CommittedQty, p.CapacityMax,
	)
	if err != nil {
		return fmt.Errorf("upsert plan day: %w", err)
	}
	return nil
}
