package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/application/costing"
	"github.com/sixteenfood/qlsx/internal/application/inventory"
	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/bom"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/planning"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
	"github.com/sixteenfood/qlsx/pkg/logger"
)

// ExecutionUseCase drives a production order through its lifecycle: progress
// reporting, completion, the material issue for a production date, and the
// receipt that stocks the finished quantity.
type ExecutionUseCase struct {
	orders     repository.ProductionOrderRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	registry   *bom.Registry
	ledger     *inventory.Ledger
	costs      *costing.Service
	txRunner   TxRunner
	log        *logger.Logger
}

// NewExecutionUseCase builds the use case.
func NewExecutionUseCase(
	orders repository.ProductionOrderRepository,
	products repository.ProductRepository,
	warehouses repository.WarehouseRepository,
	registry *bom.Registry,
	ledger *inventory.Ledger,
	costs *costing.Service,
	txRunner TxRunner,
	log *logger.Logger,
) *ExecutionUseCase {
	return &ExecutionUseCase{
		orders:     orders,
		products:   products,
		warehouses: warehouses,
		registry:   registry,
		ledger:     ledger,
		costs:      costs,
		txRunner:   txRunner,
		log:        log,
	}
}

// RecordProgress reports a produced quantity against an order, moving it into
// production on the first report.
func (uc *ExecutionUseCase) RecordProgress(ctx context.Context, orderID string, qty decimal.Decimal) (*entity.ProductionOrder, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: progress quantity must be positive", domain.ErrValidation)
	}
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.RecordProgress(qty); err != nil {
		return nil, err
	}
	order.UpdatedAt = time.Now()
	if err := uc.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// LineActual reports consumed component quantities at completion.
type LineActual struct {
	ProductID  string
	ActualQty  decimal.Decimal
	ActualLoss decimal.Decimal
}

// Complete finalizes an order with its produced quantity and optional actual
// component consumption. Under/over-production is recorded as variance.
func (uc *ExecutionUseCase) Complete(ctx context.Context, orderID string, completedQty decimal.Decimal, actuals []LineActual) (*entity.ProductionOrder, error) {
	if completedQty.IsNegative() {
		return nil, fmt.Errorf("%w: completed quantity must not be negative", domain.ErrValidation)
	}
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Finalize(completedQty); err != nil {
		return nil, err
	}

	byProduct := make(map[string]LineActual, len(actuals))
	for _, a := range actuals {
		byProduct[a.ProductID] = a
	}
	for i := range order.Lines {
		if a, ok := byProduct[order.Lines[i].ProductID]; ok {
			order.Lines[i].ActualQty = a.ActualQty
			order.Lines[i].ActualLoss = a.ActualLoss
		}
	}

	order.UpdatedAt = time.Now()
	if err := uc.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("order", order.BusinessID).
		Str("completed_qty", order.CompletedQty.String()).
		Str("diff_qty", order.ExpectedDiffQty.String()).
		Msg("production order completed")
	return order, nil
}

// CreateManual creates an order outside the planner, for example a rush job.
// It still consumes the day's plan row so the committed quantity stays true,
// but it is not bounded by remaining capacity.
func (uc *ExecutionUseCase) CreateManual(ctx context.Context, productID string, date time.Time, qty decimal.Decimal, note string) (*entity.ProductionOrder, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: order quantity must be positive", domain.ErrValidation)
	}
	date = planning.Day(date)
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Group != entity.GroupFinished && product.Group != entity.GroupSemiProduct {
		return nil, fmt.Errorf("%w: cannot produce a %s product", domain.ErrValidation, product.Group)
	}

	var order *entity.ProductionOrder
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
				CapacityMax:    decimal.Zero,
			}
		}

		seq, err := orders.CountByDate(ctx, date)
		if err != nil {
			return err
		}
		kind := entity.OrderKindFinished
		if product.Group == entity.GroupSemiProduct {
			kind = entity.OrderKindSemi
		}
		now := time.Now()
		order = &entity.ProductionOrder{
			ID:             uuid.New().String(),
			BusinessID:     entity.OrderCode(date, seq+1),
			ProductionDate: date,
			Kind:           kind,
			ProductID:      product.ID,
			ProductName:    product.Name,
			PlannedQty:     qty,
			Status:         entity.OrderNew,
			Note:           note,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		requirements, err := uc.registry.Explode(ctx, productID, qty, date)
		if err != nil {
			return err
		}
		for _, req := range requirements {
			component, err := uc.products.GetByID(ctx, req.ProductID)
			if err != nil {
				return err
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
		if err := orders.Create(ctx, order); err != nil {
			return err
		}

		plan.CommittedQty = plan.CommittedQty.Add(qty)
		if plan.CommittedQty.GreaterThan(plan.PlannedQty) {
			plan.PlannedQty = plan.CommittedQty
		}
		return plans.Upsert(ctx, plan)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("order", order.BusinessID).Msg("manual production order created")
	return order, nil
}

// IssueMaterials posts the PX document that issues component materials for a
// production date from the given raw-material warehouse. Orders still in the
// new state are included: materials move before production starts.
func (uc *ExecutionUseCase) IssueMaterials(ctx context.Context, date time.Time, warehouseID string) (*entity.StockDocument, error) {
	if warehouseID == "" {
		return nil, fmt.Errorf("%w: warehouse required", domain.ErrValidation)
	}
	date = planning.Day(date)
	orders, err := uc.orders.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	type need struct {
		name string
		spec string
		uom  string
		qty  decimal.Decimal
	}
	needs := make(map[string]*need)
	for i := range orders {
		for _, line := range orders[i].Lines {
			qty := line.PlannedQty
			if line.ActualQty.IsPositive() {
				qty = line.ActualQty
			}
			if n, ok := needs[line.ProductID]; ok {
				n.qty = n.qty.Add(qty)
				continue
			}
			needs[line.ProductID] = &need{name: line.ProductName, spec: line.BatchSpec, uom: line.UOM, qty: qty}
		}
	}
	if len(needs) == 0 {
		return nil, fmt.Errorf("%w: no orders on %s", domain.ErrNotFound, date.Format("2006-01-02"))
	}

	in := inventory.PostInput{
		Kind:        entity.DocIssue,
		WarehouseID: warehouseID,
		PostingDate: date,
		Description: fmt.Sprintf("materials for production %s", date.Format("2006-01-02")),
	}
	for productID, n := range needs {
		in.Lines = append(in.Lines, inventory.PostLine{
			ProductID:   productID,
			ProductName: n.name,
			BatchSpec:   n.spec,
			UOM:         n.uom,
			Quantity:    n.qty,
		})
	}
	return uc.ledger.Post(ctx, in)
}

// StockFinished posts the PN receipt that stocks a completed order's produced
// quantity into the warehouse matching the product tier, valued at the
// standard BOM cost. Posting the receipt marks the order stocked; a second
// call therefore fails on the state transition instead of double-counting.
func (uc *ExecutionUseCase) StockFinished(ctx context.Context, orderID, warehouseID string) (*entity.StockDocument, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderCompleted {
		return nil, &domain.InvalidStateTransitionError{Entity: "production order", From: order.Status, To: entity.OrderStocked}
	}
	if order.CompletedQty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: order %s completed nothing", domain.ErrValidation, order.BusinessID)
	}
	product, err := uc.products.GetByID(ctx, order.ProductID)
	if err != nil {
		return nil, err
	}

	if warehouseID == "" {
		wanted := entity.WarehouseTypeFor(product.Group)
		candidates, err := uc.warehouses.ListByType(ctx, wanted)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: no %s warehouse configured", domain.ErrNotFound, wanted)
		}
		warehouseID = candidates[0].ID
	}

	unitCost := product.CostPrice
	if breakdown, err := uc.costs.UnitCost(ctx, order.ProductID, order.ProductionDate); err == nil && breakdown.TotalCost.IsPositive() {
		unitCost = breakdown.TotalCost
	}

	mfg := order.ProductionDate
	doc, err := uc.ledger.Post(ctx, inventory.PostInput{
		Kind:        entity.DocReceipt,
		WarehouseID: warehouseID,
		PostingDate: order.ProductionDate,
		OrderID:     order.ID,
		Description: fmt.Sprintf("finished goods from %s", order.BusinessID),
		Lines: []inventory.PostLine{{
			ProductID:   order.ProductID,
			ProductName: order.ProductName,
			BatchSpec:   product.BatchSpec,
			UOM:         product.MainUOM,
			Quantity:    order.CompletedQty,
			UnitCost:    unitCost,
			MfgDate:     &mfg,
			ExpDate:     product.ExpiryDate(mfg),
		}},
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("order", order.BusinessID).
		Str("document", doc.Code).
		Msg("finished goods stocked")
	return doc, nil
}
