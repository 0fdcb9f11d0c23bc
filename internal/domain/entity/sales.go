package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesLine is a confirmed sales-order line as supplied by the order
// subsystem. BusinessRef identifies the line across retransmissions; lines
// sharing a BusinessRef are the same line and must be counted once.
type SalesLine struct {
	ProductID    string
	Quantity     decimal.Decimal
	DueDate      time.Time
	BusinessRef  string
}

// DemandLine is net per-product, per-production-day demand. Ephemeral:
// recomputed each planning run, never persisted as authoritative.
type DemandLine struct {
	ProductID      string
	ProductionDate time.Time
	Quantity       decimal.Decimal
}
