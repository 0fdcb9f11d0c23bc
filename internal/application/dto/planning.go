package dto

import (
	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// GeneratePlanRequest body for POST /api/planning/generate.
type GeneratePlanRequest struct {
	FromDate string `json:"from_date"` // YYYY-MM-DD
	ToDate   string `json:"to_date"`   // YYYY-MM-DD
}

// ProductionOrderLineDTO one component requirement of an order.
type ProductionOrderLineDTO struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	BatchSpec   string          `json:"batch_spec,omitempty"`
	BatchCount  decimal.Decimal `json:"batch_count"`
	UOM         string          `json:"uom"`
	PlannedQty  decimal.Decimal `json:"planned_qty"`
	ActualQty   decimal.Decimal `json:"actual_qty"`
}

// ProductionOrderDTO production order in responses.
type ProductionOrderDTO struct {
	ID              string                   `json:"id"`
	BusinessID      string                   `json:"business_id"`
	ProductionDate  string                   `json:"production_date"`
	Kind            string                   `json:"kind"`
	ProductID       string                   `json:"product_id"`
	ProductName     string                   `json:"product_name"`
	PlannedQty      decimal.Decimal          `json:"planned_qty"`
	CompletedQty    decimal.Decimal          `json:"completed_qty"`
	ExpectedDiffQty decimal.Decimal          `json:"expected_diff_qty"`
	Status          string                   `json:"status"`
	SplitGroup      string                   `json:"split_group,omitempty"`
	Note            string                   `json:"note,omitempty"`
	Lines           []ProductionOrderLineDTO `json:"lines,omitempty"`
}

// UnfulfilledDTO demand with no capacity inside the roll-forward window.
type UnfulfilledDTO struct {
	ProductID      string          `json:"product_id"`
	ProductionDate string          `json:"production_date"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// GeneratePlanResponse result of a planning run.
type GeneratePlanResponse struct {
	Orders      []ProductionOrderDTO `json:"orders"`
	Unfulfilled []UnfulfilledDTO     `json:"unfulfilled"`
}

// ProgressRequest body for POST /api/production-orders/:id/progress.
type ProgressRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// CompleteLineRequest actual component consumption at completion.
type CompleteLineRequest struct {
	ProductID  string          `json:"product_id"`
	ActualQty  decimal.Decimal `json:"actual_qty"`
	ActualLoss decimal.Decimal `json:"actual_loss"`
}

// CompleteRequest body for POST /api/production-orders/:id/complete.
type CompleteRequest struct {
	CompletedQty decimal.Decimal       `json:"completed_qty"`
	Lines        []CompleteLineRequest `json:"lines,omitempty"`
}

// ManualOrderRequest body for POST /api/production-orders.
type ManualOrderRequest struct {
	ProductID      string          `json:"product_id"`
	ProductionDate string          `json:"production_date"` // YYYY-MM-DD
	Quantity       decimal.Decimal `json:"quantity"`
	Note           string          `json:"note,omitempty"`
}

// StockOrderRequest body for POST /api/production-orders/:id/stock.
// WarehouseID empty = pick the first warehouse of the product's tier.
type StockOrderRequest struct {
	WarehouseID string `json:"warehouse_id,omitempty"`
}

// IssueMaterialsRequest body for POST /api/inventory/material-issues.
type IssueMaterialsRequest struct {
	ProductionDate string `json:"production_date"` // YYYY-MM-DD
	WarehouseID    string `json:"warehouse_id"`
}

// CostBreakdownDTO response for GET /api/products/:id/cost.
type CostBreakdownDTO struct {
	ProductID    string          `json:"product_id"`
	ProductCode  string          `json:"product_code"`
	MaterialCost decimal.Decimal `json:"material_cost"`
	LaborCost    decimal.Decimal `json:"labor_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// FromOrder maps a production order to its DTO.
func FromOrder(o *entity.ProductionOrder) ProductionOrderDTO {
	out := ProductionOrderDTO{
		ID:              o.ID,
		BusinessID:      o.BusinessID,
		ProductionDate:  o.ProductionDate.Format("2006-01-02"),
		Kind:            o.Kind,
		ProductID:       o.ProductID,
		ProductName:     o.ProductName,
		PlannedQty:      o.PlannedQty,
		CompletedQty:    o.CompletedQty,
		ExpectedDiffQty: o.ExpectedDiffQty,
		Status:          o.Status,
		SplitGroup:      o.SplitGroup,
		Note:            o.Note,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, ProductionOrderLineDTO{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			BatchSpec:   l.BatchSpec,
			BatchCount:  l.BatchCount,
			UOM:         l.UOM,
			PlannedQty:  l.PlannedQty,
			ActualQty:   l.ActualQty,
		})
	}
	return out
}
