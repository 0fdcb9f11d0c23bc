package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document kinds. Direction is a tagged variant plus a signed quantity on the
// line, not a subclass per direction.
const (
	DocReceipt = "N" // nhập (receipt)
	DocIssue   = "X" // xuất (issue)
)

// StockDocument is one ledger entry (phiếu nhập/xuất). Immutable once posted;
// corrections are new documents. Code follows PNyyyymmdd-NNN / PXyyyymmdd-NNN.
type StockDocument struct {
	ID            string
	Code          string
	Kind          string // N, X
	WarehouseID   string
	PostingDate   time.Time
	OrderID       string // production order that produced/consumed the goods, if any
	StocktakingID string // stocktaking that generated the adjustment, if any
	Storekeeper   string
	Description   string
	CreatedAt     time.Time
	Lines         []StockDocumentLine
}

// StockDocumentLine carries one product of a document. Quantity is always
// non-negative; SignedQty is positive for receipts and negative for issues.
type StockDocumentLine struct {
	ID         string
	DocumentID string
	ProductID  string
	ProductName string
	BatchSpec  string
	MfgDate    *time.Time
	ExpDate    *time.Time
	UOM        string
	Quantity   decimal.Decimal
	SignedQty  decimal.Decimal
	UnitCost   decimal.Decimal // required on receipt lines; costed by FIFO on issues
}

// StockLot is an unconsumed (or partially consumed) receipt, the unit FIFO
// costing operates on. Issues consume lots oldest posting date first, ties
// broken by creation sequence.
type StockLot struct {
	ID           string
	ProductID    string
	WarehouseID  string
	DocumentID   string
	PostingDate  time.Time
	Seq          int64 // document creation order within a posting date
	UnitCost     decimal.Decimal
	ReceivedQty  decimal.Decimal
	RemainingQty decimal.Decimal
	ExpDate      *time.Time
}

// LotConsumption is the slice of a lot taken by one issue line.
type LotConsumption struct {
	LotID    string
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// Cost returns the value of the consumed slice.
func (c LotConsumption) Cost() decimal.Decimal {
	return c.Quantity.Mul(c.UnitCost)
}
