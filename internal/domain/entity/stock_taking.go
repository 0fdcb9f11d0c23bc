package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain"
)

// Stocktaking lifecycle: draft -> locked. Locked stocktakings are immutable;
// corrections require a new stocktaking.
const (
	StocktakingDraft  = "draft"
	StocktakingLocked = "locked"
)

// StockTaking is one physical count event for a warehouse. Code follows
// KKyyyymmdd-NNN.
type StockTaking struct {
	ID          string
	Code        string
	WarehouseID string
	CountDate   time.Time
	Status      string
	CreatedAt   time.Time
	Lines       []StockTakingLine
}

// RecordCount sets the counted quantity for a product, capturing the book
// quantity at count time. At most one line exists per product.
func (st *StockTaking) RecordCount(productID string, bookQty, countedQty decimal.Decimal) error {
	if st.Status != StocktakingDraft {
		return domain.ErrStocktakingLocked
	}
	for i := range st.Lines {
		if st.Lines[i].ProductID == productID {
			if st.Lines[i].AdjustmentCreated {
				return domain.ErrDuplicate
			}
			st.Lines[i].BookQty = bookQty
			st.Lines[i].CountedQty = countedQty
			st.Lines[i].DifferenceQty = countedQty.Sub(bookQty)
			return nil
		}
	}
	st.Lines = append(st.Lines, StockTakingLine{
		StocktakingID: st.ID,
		ProductID:     productID,
		BookQty:       bookQty,
		CountedQty:    countedQty,
		DifferenceQty: countedQty.Sub(bookQty),
	})
	return nil
}

// Lock freezes the stocktaking. Locking twice is a backward transition.
func (st *StockTaking) Lock() error {
	if st.Status != StocktakingDraft {
		return &domain.InvalidStateTransitionError{Entity: "stocktaking", From: st.Status, To: StocktakingLocked}
	}
	st.Status = StocktakingLocked
	return nil
}

// StockTakingLine is the count result for one product: book quantity at count
// time, counted quantity, their difference, and whether an adjustment
// document has already been generated for the line.
type StockTakingLine struct {
	ID                string
	StocktakingID     string
	ProductID         string
	BookQty           decimal.Decimal
	CountedQty        decimal.Decimal
	DifferenceQty     decimal.Decimal
	AdjustmentCreated bool
}
