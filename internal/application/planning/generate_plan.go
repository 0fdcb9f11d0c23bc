package planning

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/application/inventory"
	"github.com/sixteenfood/qlsx/internal/domain/bom"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/event"
	"github.com/sixteenfood/qlsx/internal/domain/planning"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
	"github.com/sixteenfood/qlsx/pkg/logger"
)

// UnfulfilledDemand is demand that found no capacity inside the roll-forward
// window. Reported, never silently dropped.
type UnfulfilledDemand struct {
	ProductID      string
	ProductionDate time.Time
	Quantity       decimal.Decimal
}

// Result of one planning run.
type Result struct {
	Orders      []entity.ProductionOrder
	Unfulfilled []UnfulfilledDemand
}

// GeneratePlanUseCase turns confirmed sales demand into capacity-bounded
// production orders: aggregation, netting against current stock, per-day
// allocation with order splitting, and synchronous BOM explosion into order
// lines.
type GeneratePlanUseCase struct {
	sales        repository.SalesLineRepository
	products     repository.ProductRepository
	snapshots    repository.SnapshotRepository
	reservations inventory.ReservationStore
	registry     *bom.Registry
	txRunner     TxRunner
	dispatcher   event.Dispatcher
	log          *logger.Logger
	policy       planning.Policy
}

// NewGeneratePlanUseCase builds the use case.
func NewGeneratePlanUseCase(
	sales repository.SalesLineRepository,
	products repository.ProductRepository,
	snapshots repository.SnapshotRepository,
	reservations inventory.ReservationStore,
	registry *bom.Registry,
	txRunner TxRunner,
	dispatcher event.Dispatcher,
	log *logger.Logger,
	policy planning.Policy,
) *GeneratePlanUseCase {
	if policy.DefaultCapacityMax.IsZero() {
		policy.DefaultCapacityMax = planning.DefaultPolicy().DefaultCapacityMax
	}
	return &GeneratePlanUseCase{
		sales:        sales,
		products:     products,
		snapshots:    snapshots,
		reservations: reservations,
		registry:     registry,
		txRunner:     txRunner,
		dispatcher:   dispatcher,
		log:          log,
		policy:       policy,
	}
}

// Generate runs planning for the date range. Idempotent per (date, product):
// re-running against unchanged demand creates no duplicate orders, because
// allocation is bounded by what the plan row has not yet committed.
func (uc *GeneratePlanUseCase) Generate(ctx context.Context, from, to time.Time) (*Result, error) {
	from = planning.Day(from)
	to = planning.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid date range: %s after %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	lines, err := uc.sales.DueInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load sales lines: %w", err)
	}
	gross := planning.AggregateDemand(lines, from, uc.policy)

	netByKey, err := uc.netDemand(ctx, gross)
	if err != nil {
		return nil, err
	}

	// demand[date][product] with rolled demand folded in as dates advance.
	demand := make(map[time.Time]map[string]decimal.Decimal)
	for key, qty := range netByKey {
		if demand[key.date] == nil {
			demand[key.date] = make(map[string]decimal.Decimal)
		}
		demand[key.date][key.productID] = qty
	}

	horizon := to.AddDate(0, 0, uc.policy.RollForwardDays)
	result := &Result{}
	for date := from; !date.After(horizon); date = date.AddDate(0, 0, 1) {
		byProduct := demand[date]
		if len(byProduct) == 0 {
			continue
		}
		for _, productID := range productsByDemandDesc(byProduct) {
			qty := byProduct[productID]
			if qty.LessThanOrEqual(decimal.Zero) {
				continue
			}
			leftover, orders, err := uc.allocate(ctx, productID, date, qty)
			if err != nil {
				return nil, err
			}
			result.Orders = append(result.Orders, orders...)

			if leftover.IsPositive() {
				next := date.AddDate(0, 0, 1)
				if next.After(horizon) {
					result.Unfulfilled = append(result.Unfulfilled, UnfulfilledDemand{
						ProductID:      productID,
						ProductionDate: date,
						Quantity:       leftover,
					})
					continue
				}
				if demand[next] == nil {
					demand[next] = make(map[string]decimal.Decimal)
				}
				demand[next][productID] = demand[next][productID].Add(leftover)
			}
		}
	}

	for i := range result.Orders {
		uc.dispatcher.Dispatch(ctx, event.Event{
			Type:       event.TypeOrderCreated,
			OccurredAt: result.Orders[i].CreatedAt,
			OrderID:    result.Orders[i].ID,
			ProductID:  result.Orders[i].ProductID,
			Quantity:   result.Orders[i].PlannedQty,
			Message:    fmt.Sprintf("production order %s created", result.Orders[i].BusinessID),
		})
	}

	uc.log.Info().
		Time("from", from).
		Time("to", to).
		Int("orders", len(result.Orders)).
		Int("unfulfilled", len(result.Unfulfilled)).
		Msg("production plan generated")
	return result, nil
}

type demandKey struct {
	productID string
	date      time.Time
}

// netDemand reduces gross demand by available produced stock of the product's
// tier minus unexpired reservations, consuming the available quantity across
// dates in ascending order.
func (uc *GeneratePlanUseCase) netDemand(ctx context.Context, gross []entity.DemandLine) (map[demandKey]decimal.Decimal, error) {
	available := make(map[string]decimal.Decimal)
	out := make(map[demandKey]decimal.Decimal, len(gross))

	for _, line := range gross { // already sorted by date, then product
		avail, ok := available[line.ProductID]
		if !ok {
			product, err := uc.products.GetByID(ctx, line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
			}
			avail, err = uc.snapshots.SumByWarehouseType(ctx, line.ProductID, entity.WarehouseTypeFor(product.Group))
			if err != nil {
				return nil, fmt.Errorf("sum stock of %s: %w", line.ProductID, err)
			}
			reserved, err := uc.reservations.ActiveByProduct(ctx, line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("sum reservations of %s: %w", line.ProductID, err)
			}
			avail = avail.Sub(reserved)
		}
		net := planning.NetDemand(line.Quantity, avail)
		avail = avail.Sub(line.Quantity)
		if avail.IsNegative() {
			avail = decimal.Zero
		}
		available[line.ProductID] = avail
		if net.IsPositive() {
			out[demandKey{productID: line.ProductID, date: line.ProductionDate}] = net
		}
	}
	return out, nil
}

// allocate creates orders for one (product, date) key inside one transaction,
// bounded by the plan row's remaining capacity. Returns the demand left over
// for roll-forward.
func (uc *GeneratePlanUseCase) allocate(
	ctx context.Context,
	productID string,
	date time.Time,
	netDemand decimal.Decimal,
) (decimal.Decimal, []entity.ProductionOrder, error) {
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, nil, err
	}

	leftover := decimal.Zero
	var created []entity.ProductionOrder
	err = uc.txRunner.RunPlanning(ctx, func(
		plans repository.PlanDayRepository,
		orders repository.ProductionOrderRepository,
	) error {
		plan, err := plans.GetForUpdate(ctx, productID, date)
		if err != nil {
			return err
		}
		if plan == nil {
			plan = &entity.ProductionPlanDay{
				ID:             uuid.New().String(),
				ProductionDate: date,
				ProductID:      productID,
				CapacityMax:    uc.policy.DefaultCapacityMax,
			}
		}

		outstanding := netDemand.Sub(plan.CommittedQty)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}
		allocatable := decimal.Min(outstanding, plan.Remaining())
		leftover = outstanding.Sub(allocatable)
		if allocatable.LessThanOrEqual(decimal.Zero) {
			return nil
		}

		chunks := planning.SplitQuantities(allocatable, outstanding, plan.CapacityMax)
		splitGroup := ""
		if len(chunks) > 1 {
			splitGroup = uuid.New().String()
		}

		seq, err := orders.CountByDate(ctx, date)
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			seq++
			order, err := uc.buildOrder(ctx, product, date, chunk, seq, splitGroup)
			if err != nil {
				return err
			}
			if err := orders.Create(ctx, order); err != nil {
				return err
			}
			created = append(created, *order)
		}

		if netDemand.GreaterThan(plan.PlannedQty) {
			plan.PlannedQty = netDemand
		}
		plan.CommittedQty = plan.CommittedQty.Add(allocatable)
		return plans.Upsert(ctx, plan)
	})
	if err != nil {
		return decimal.Zero, nil, err
	}
	return leftover, created, nil
}

// buildOrder assembles one production order with its component lines from a
// synchronous BOM explosion at the production date.
func (uc *GeneratePlanUseCase) buildOrder(
	ctx context.Context,
	product *entity.Product,
	date time.Time,
	qty decimal.Decimal,
	seq int,
	splitGroup string,
) (*entity.ProductionOrder, error) {
	kind := entity.OrderKindFinished
	if product.Group == entity.GroupSemiProduct {
		kind = entity.OrderKindSemi
	}
	now := time.Now()
	order := &entity.ProductionOrder{
		ID:             uuid.New().String(),
		BusinessID:     entity.OrderCode(date, seq),
		ProductionDate: date,
		Kind:           kind,
		ProductID:      product.ID,
		ProductName:    product.Name,
		PlannedQty:     qty,
		Status:         entity.OrderNew,
		SplitGroup:     splitGroup,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	requirements, err := uc.registry.Explode(ctx, product.ID, qty, date)
	if err != nil {
		return nil, fmt.Errorf("explode BOM of %s: %w", product.Code, err)
	}
	for _, req := range requirements {
		component, err := uc.products.GetByID(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, entity.ProductionOrderLine{
			ID:          uuid.New().String(),
			OrderID:     order.ID,
			ProductID:   req.ProductID,
			ProductName: req.ProductName,
			BatchSpec:   component.BatchSpec,
			BatchCount:  component.BatchCount(req.Quantity),
			UOM:         req.UOM,
			PlannedQty:  req.Quantity,
		})
	}
	return order, nil
}

func productsByDemandDesc(byProduct map[string]decimal.Decimal) []string {
	ids := make([]string, 0, len(byProduct))
	for id := range byProduct {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := byProduct[ids[i]], byProduct[ids[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return ids[i] < ids[j]
	})
	return ids
}
