package entity

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Product groups (NVL = raw material, BTP = semi-product, TP = finished
// product, PL = auxiliary material).
const (
	GroupRawMaterial = "NVL"
	GroupSemiProduct = "BTP"
	GroupFinished    = "TP"
	GroupAuxiliary   = "PL"
)

// Product statuses.
const (
	ProductActive   = "active"
	ProductInactive = "inactive"
)

// Product is a catalog item: raw material, semi-product, finished product or
// auxiliary. Code is the immutable business identity; Group changes are
// discouraged but not forbidden.
type Product struct {
	ID             string
	Code           string
	Name           string
	Group          string // NVL, BTP, TP, PL
	Specification  string
	MainUOM        string
	SecondaryUOM   string
	ConversionRate *decimal.Decimal // units of MainUOM per SecondaryUOM; nil = undefined
	BatchSpec      string           // e.g. "20kg/batch" or plain "20"
	ShelfLifeDays  int              // 0 = no expiry tracking
	CostPrice      decimal.Decimal
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

var batchSpecRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// BatchSize extracts the numeric batch size from BatchSpec ("20kg/batch" -> 20).
// Returns zero when no batch size is declared.
func (p *Product) BatchSize() decimal.Decimal {
	m := batchSpecRe.FindString(p.BatchSpec)
	if m == "" {
		return decimal.Zero
	}
	size, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	return size
}

// BatchCount returns the number of batches needed to produce qty, rounded up.
// Falls back to one batch when no batch size is declared.
func (p *Product) BatchCount(qty decimal.Decimal) decimal.Decimal {
	size := p.BatchSize()
	if size.IsZero() || qty.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	return qty.Div(size).Ceil()
}

// ExpiryDate derives the expiry date from a manufacturing date and the
// product's shelf life. Returns nil when the product has no shelf life.
func (p *Product) ExpiryDate(mfg time.Time) *time.Time {
	if p.ShelfLifeDays <= 0 {
		return nil
	}
	exp := mfg.AddDate(0, 0, p.ShelfLifeDays)
	return &exp
}
