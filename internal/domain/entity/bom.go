package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMEntry is one component line of a product's bill of materials. The
// component may be a raw material or a semi-product; multiple entries may
// exist per (parent, component) pair at different effective dates, and the
// one with the latest EffectiveDate <= the query date wins. A nil
// EffectiveDate means the entry is always applicable (it loses ties to any
// dated entry).
type BOMEntry struct {
	ID            string
	ParentID      string
	ComponentID   string
	Quantity      decimal.Decimal // per unit of parent
	UOM           string
	Cost          *decimal.Decimal // optional negotiated component cost
	EffectiveDate *time.Time
}

// EffectiveAsOf reports whether the entry applies at the given date.
func (e *BOMEntry) EffectiveAsOf(asOf time.Time) bool {
	return e.EffectiveDate == nil || !e.EffectiveDate.After(asOf)
}

// LaborEntry is a labor/equipment line of a BOM. Not part of component
// explosion; consumed when costing an order.
type LaborEntry struct {
	ID              string
	ProductID       string
	Equipment       string
	LaborType       string
	Quantity        decimal.Decimal
	DurationMinutes int
	UnitCost        decimal.Decimal
}

// Cost returns the labor cost for one unit of the parent: duration-based when
// a duration is declared (minutes at an hourly rate), quantity-based otherwise.
func (l *LaborEntry) Cost() decimal.Decimal {
	if l.UnitCost.IsZero() {
		return decimal.Zero
	}
	if l.DurationMinutes > 0 {
		return decimal.NewFromInt(int64(l.DurationMinutes)).
			Div(decimal.NewFromInt(60)).
			Mul(l.UnitCost)
	}
	return l.Quantity.Mul(l.UnitCost)
}
