package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain"
)

// Production order kinds.
const (
	OrderKindFinished = "SP"  // finished product
	OrderKindSemi     = "BTP" // semi-product
)

// Production order lifecycle. Forward-only:
// new -> in_production -> completed -> stocked.
const (
	OrderNew          = "new"
	OrderInProduction = "in_production"
	OrderCompleted    = "completed"
	OrderStocked      = "stocked"
)

var orderRank = map[string]int{
	OrderNew:          0,
	OrderInProduction: 1,
	OrderCompleted:    2,
	OrderStocked:      3,
}

// ProductionPlanDay is the persisted per-(date, product) plan row.
// Invariant: CommittedQty <= CapacityMax; Remaining() is clamped at zero.
type ProductionPlanDay struct {
	ID             string
	ProductionDate time.Time
	ProductID      string
	PlannedQty     decimal.Decimal
	CommittedQty   decimal.Decimal // already turned into orders
	CapacityMax    decimal.Decimal
}

// Remaining returns the capacity still open for orders on this day.
func (p *ProductionPlanDay) Remaining() decimal.Decimal {
	rem := p.CapacityMax.Sub(p.CommittedQty)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// ProductionOrder (LSX) instructs production of one product on one date.
// BusinessID follows LSX-yyyymmdd-NNN; SplitGroup links orders produced by
// splitting one day's demand.
type ProductionOrder struct {
	ID              string
	BusinessID      string
	ProductionDate  time.Time
	Kind            string // SP, BTP
	ProductID       string
	ProductName     string
	PlannedQty      decimal.Decimal
	CompletedQty    decimal.Decimal
	ExpectedDiffQty decimal.Decimal
	Status          string
	SplitGroup      string // empty when the order was not split
	Note            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Lines           []ProductionOrderLine
}

// RecordProgress moves a new order into production and accumulates the
// reported quantity. Reporting progress on a completed or stocked order is a
// backward transition.
func (o *ProductionOrder) RecordProgress(qty decimal.Decimal) error {
	switch o.Status {
	case OrderNew:
		o.Status = OrderInProduction
	case OrderInProduction:
	default:
		return &domain.InvalidStateTransitionError{Entity: "production order", From: o.Status, To: OrderInProduction}
	}
	o.CompletedQty = o.CompletedQty.Add(qty)
	return nil
}

// Finalize fixes the completed quantity and moves the order to completed.
// Under/over-production is allowed; the difference to plan is recorded as
// variance, never inferred from equality.
func (o *ProductionOrder) Finalize(completedQty decimal.Decimal) error {
	if o.Status != OrderNew && o.Status != OrderInProduction {
		return &domain.InvalidStateTransitionError{Entity: "production order", From: o.Status, To: OrderCompleted}
	}
	o.CompletedQty = completedQty
	o.ExpectedDiffQty = completedQty.Sub(o.PlannedQty)
	o.Status = OrderCompleted
	return nil
}

// MarkStocked records that a receipt document referencing the order posted.
func (o *ProductionOrder) MarkStocked() error {
	if o.Status != OrderCompleted {
		return &domain.InvalidStateTransitionError{Entity: "production order", From: o.Status, To: OrderStocked}
	}
	o.Status = OrderStocked
	return nil
}

// CanTransition reports whether moving to the target status is forward-only.
func (o *ProductionOrder) CanTransition(to string) bool {
	toRank, ok := orderRank[to]
	return ok && toRank > orderRank[o.Status]
}

// ProductionOrderLine is one component requirement of an order, populated by
// BOM explosion against the order's planned quantity.
type ProductionOrderLine struct {
	ID           string
	OrderID      string
	ProductID    string
	ProductName  string
	BatchSpec    string
	BatchCount   decimal.Decimal
	UOM          string
	PlannedQty   decimal.Decimal
	ActualQty    decimal.Decimal
	ExpectedLoss decimal.Decimal
	ActualLoss   decimal.Decimal
}
