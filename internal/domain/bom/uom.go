package bom

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// Declared precision (decimal places) per unit of measure. Quantities are
// stored as Numeric(18,3); count-like units round to whole pieces.
var uomPrecision = map[string]int32{
	"kg":    3,
	"g":     0,
	"l":     3,
	"ml":    0,
	"cai":   0, // cái (piece)
	"goi":   0, // gói (pack)
	"thung": 0, // thùng (box)
	"me":    0, // mẻ (batch)
}

const defaultPrecision = 3

// Precision returns the declared rounding precision for a unit.
func Precision(uom string) int32 {
	if p, ok := uomPrecision[strings.ToLower(uom)]; ok {
		return p
	}
	return defaultPrecision
}

// RoundQty rounds a final aggregated quantity to the unit's precision, half
// up. Intermediate explosion math stays unrounded; only the edge of the
// computation rounds.
func RoundQty(qty decimal.Decimal, uom string) decimal.Decimal {
	return qty.Round(Precision(uom))
}

// Convert expresses qty given in fromUOM in the product's toUOM using the
// product's declared conversion factor (MainUOM per SecondaryUOM). Identical
// units pass through; differing units without a factor fail.
func Convert(p *entity.Product, qty decimal.Decimal, fromUOM, toUOM string) (decimal.Decimal, error) {
	from := strings.ToLower(strings.TrimSpace(fromUOM))
	to := strings.ToLower(strings.TrimSpace(toUOM))
	if from == to || from == "" || to == "" {
		return qty, nil
	}
	if p.ConversionRate == nil || p.ConversionRate.IsZero() {
		return decimal.Zero, &domain.UnitConversionError{ProductCode: p.Code, From: fromUOM, To: toUOM}
	}
	main := strings.ToLower(p.MainUOM)
	secondary := strings.ToLower(p.SecondaryUOM)
	switch {
	case from == secondary && to == main:
		return qty.Mul(*p.ConversionRate), nil
	case from == main && to == secondary:
		return qty.Div(*p.ConversionRate), nil
	}
	return decimal.Zero, &domain.UnitConversionError{ProductCode: p.Code, From: fromUOM, To: toUOM}
}
