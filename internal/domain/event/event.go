package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event types the core emits. Delivery (Telegram, email) lives outside the
// core behind the Dispatcher port.
const (
	TypeOrderCreated     = "OrderCreated"
	TypeLowStock         = "LowStock"
	TypeAdjustmentPosted = "AdjustmentPosted"
)

// Event is one domain occurrence. Payload fields are filled per type.
type Event struct {
	Type        string
	OccurredAt  time.Time
	ProductID   string
	WarehouseID string
	OrderID     string
	DocumentID  string
	Quantity    decimal.Decimal
	Message     string
}

// Dispatcher forwards events to the outside world. Implementations must not
// block the emitting operation; failures are the dispatcher's problem, never
// surfaced as core errors.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event)
}

// NopDispatcher drops every event.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(context.Context, Event) {}
