package planning

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// Policy holds the planning knobs. Zero value: produce on the delivery date,
// roll unplaceable demand forward one day.
type Policy struct {
	LeadTimeDays       int // production date = due date - lead time
	RollForwardDays    int // how far unplaced demand may move to later dates
	DefaultCapacityMax decimal.Decimal
}

// DefaultPolicy mirrors the factory's current operating rules.
func DefaultPolicy() Policy {
	return Policy{
		LeadTimeDays:       0,
		RollForwardDays:    1,
		DefaultCapacityMax: decimal.NewFromInt(1000),
	}
}

// AggregateDemand collapses confirmed sales lines into gross per-(product,
// production date) demand. Lines sharing a business reference are
// retransmissions of the same line and count once. The result is a pure
// grouped sum: identical input sets yield identical output regardless of
// processing order.
func AggregateDemand(lines []entity.SalesLine, rangeStart time.Time, policy Policy) []entity.DemandLine {
	type key struct {
		productID string
		date      time.Time
	}

	seen := make(map[string]struct{}, len(lines))
	grouped := make(map[key]decimal.Decimal)
	for _, line := range lines {
		if line.BusinessRef != "" {
			if _, dup := seen[line.BusinessRef]; dup {
				continue
			}
			seen[line.BusinessRef] = struct{}{}
		}
		prodDate := line.DueDate.AddDate(0, 0, -policy.LeadTimeDays)
		if prodDate.Before(rangeStart) {
			prodDate = rangeStart
		}
		k := key{productID: line.ProductID, date: day(prodDate)}
		grouped[k] = grouped[k].Add(line.Quantity)
	}

	out := make([]entity.DemandLine, 0, len(grouped))
	for k, qty := range grouped {
		out = append(out, entity.DemandLine{
			ProductID:      k.productID,
			ProductionDate: k.date,
			Quantity:       qty,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ProductionDate.Equal(out[j].ProductionDate) {
			return out[i].ProductionDate.Before(out[j].ProductionDate)
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// NetDemand reduces gross demand by available stock: max(0, gross - available).
func NetDemand(gross, available decimal.Decimal) decimal.Decimal {
	net := gross.Sub(available)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// SplitQuantities divides an allocated quantity into order-sized chunks. The
// number of chunks is driven by the full demand against the day capacity
// (ceil(demand/capacity)); each chunk stays at or under capacityMax and the
// chunks sum exactly to allocated.
func SplitQuantities(allocated, demand, capacityMax decimal.Decimal) []decimal.Decimal {
	if allocated.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	if capacityMax.LessThanOrEqual(decimal.Zero) || demand.LessThanOrEqual(capacityMax) {
		return []decimal.Decimal{allocated}
	}
	n := demand.Div(capacityMax).Ceil().IntPart()
	if n < 2 {
		return []decimal.Decimal{allocated}
	}
	chunk := allocated.DivRound(decimal.NewFromInt(n), 3)
	out := make([]decimal.Decimal, 0, n)
	rest := allocated
	for i := int64(0); i < n-1; i++ {
		out = append(out, chunk)
		rest = rest.Sub(chunk)
	}
	out = append(out, rest)
	return out
}

// day truncates a timestamp to its calendar date (UTC).
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Day is the canonical calendar-date form used across plan keys.
func Day(t time.Time) time.Time { return day(t) }
