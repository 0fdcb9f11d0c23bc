package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventorySnapshot is the materialized balance of one (product, warehouse)
// key: CurrentQty = TotalIn - TotalOut, InventoryValue costed by FIFO. It is
// a cache derived from the document log and must be reconstructible by
// replaying it; never the sole source of truth.
type InventorySnapshot struct {
	ProductID      string
	WarehouseID    string
	TotalIn        decimal.Decimal
	TotalOut       decimal.Decimal
	CurrentQty     decimal.Decimal
	InventoryValue decimal.Decimal
	UpdatedAt      time.Time
}

// Apply folds one signed line quantity and its value delta into the snapshot.
func (s *InventorySnapshot) Apply(signedQty, valueDelta decimal.Decimal, at time.Time) {
	if signedQty.IsNegative() {
		s.TotalOut = s.TotalOut.Add(signedQty.Neg())
	} else {
		s.TotalIn = s.TotalIn.Add(signedQty)
	}
	s.CurrentQty = s.TotalIn.Sub(s.TotalOut)
	s.InventoryValue = s.InventoryValue.Add(valueDelta)
	s.UpdatedAt = at
}

// Reservation is an advisory soft hold against available quantity. It never
// mutates the ledger and expires after its TTL.
type Reservation struct {
	ID          string
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	ExpiresAt   time.Time
}

// Expired reports whether the hold has lapsed at the given instant.
func (r *Reservation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
