package entity

import (
	"fmt"
	"time"
)

// Business document codes are per-day sequences, matching the paper trail the
// factory already uses (LSX = production order, PN/PX = stock receipt/issue,
// KK = stocktaking).

// OrderCode formats LSX-yyyymmdd-NNN.
func OrderCode(date time.Time, seq int) string {
	return fmt.Sprintf("LSX-%s-%03d", date.Format("20060102"), seq)
}

// DocumentCode formats PNyyyymmdd-NNN for receipts, PXyyyymmdd-NNN for issues.
func DocumentCode(kind string, date time.Time, seq int) string {
	prefix := "PN"
	if kind == DocIssue {
		prefix = "PX"
	}
	return fmt.Sprintf("%s%s-%03d", prefix, date.Format("20060102"), seq)
}

// StocktakingCode formats KKyyyymmdd-NNN.
func StocktakingCode(date time.Time, seq int) string {
	return fmt.Sprintf("KK%s-%03d", date.Format("20060102"), seq)
}
