package planning

import (
	"context"

	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

// TxRunner executes plan-day and order writes for one (date, product) key
// inside a single transaction. GetForUpdate on the plan row serializes
// concurrent generation for the key: a second generator blocks on the row
// lock and re-evaluates remaining capacity once the first commits, or times
// out with domain.ErrLockTimeout.
type TxRunner interface {
	RunPlanning(ctx context.Context, fn func(
		plans repository.PlanDayRepository,
		orders repository.ProductionOrderRepository,
	) error) error
}
