package repository

import (
	"context"
	"time"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// SalesLineRepository reads confirmed demand supplied by the order subsystem.
type SalesLineRepository interface {
	DueInRange(ctx context.Context, from, to time.Time) ([]entity.SalesLine, error)
}

// ProductionOrderRepository persists production orders with their lines.
type ProductionOrderRepository interface {
	Create(ctx context.Context, o *entity.ProductionOrder) error
	Update(ctx context.Context, o *entity.ProductionOrder) error
	GetByID(ctx context.Context, id string) (*entity.ProductionOrder, error)
	ListByDate(ctx context.Context, date time.Time) ([]entity.ProductionOrder, error)
	CountByDate(ctx context.Context, date time.Time) (int, error)
}

// PlanDayRepository persists per-(date, product) plan rows. GetForUpdate
// locks the row for the duration of the surrounding transaction so that
// concurrent generation for the same key never sees a stale remaining value.
type PlanDayRepository interface {
	GetForUpdate(ctx context.Context, productID string, date time.Time) (*entity.ProductionPlanDay, error)
	Upsert(ctx context.Context, p *entity.ProductionPlanDay) error
}
