package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// DocumentLineRequest one product movement of a document.
type DocumentLineRequest struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	BatchSpec   string          `json:"batch_spec,omitempty"`
	UOM         string          `json:"uom"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost,omitempty"` // receipts only
	MfgDate     *time.Time      `json:"mfg_date,omitempty"`
	ExpDate     *time.Time      `json:"exp_date,omitempty"`
}

// PostDocumentRequest body for POST /api/inventory/documents.
type PostDocumentRequest struct {
	Kind        string                `json:"kind"` // N = receipt, X = issue
	WarehouseID string                `json:"warehouse_id"`
	PostingDate string                `json:"posting_date"` // YYYY-MM-DD
	Description string                `json:"description,omitempty"`
	Lines       []DocumentLineRequest `json:"lines"`
}

// DocumentLineDTO posted line in responses.
type DocumentLineDTO struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	UOM         string          `json:"uom"`
	Quantity    decimal.Decimal `json:"quantity"`
	SignedQty   decimal.Decimal `json:"signed_qty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	MfgDate     *time.Time      `json:"mfg_date,omitempty"`
	ExpDate     *time.Time      `json:"exp_date,omitempty"`
}

// DocumentDTO stock document in responses.
type DocumentDTO struct {
	ID            string            `json:"id"`
	Code          string            `json:"code"`
	Kind          string            `json:"kind"`
	WarehouseID   string            `json:"warehouse_id"`
	PostingDate   string            `json:"posting_date"`
	OrderID       string            `json:"order_id,omitempty"`
	StocktakingID string            `json:"stocktaking_id,omitempty"`
	Description   string            `json:"description,omitempty"`
	Lines         []DocumentLineDTO `json:"lines"`
}

// StockDTO response for GET /api/inventory/stock/:product/:warehouse.
type StockDTO struct {
	ProductID      string          `json:"product_id"`
	WarehouseID    string          `json:"warehouse_id"`
	TotalIn        decimal.Decimal `json:"total_in"`
	TotalOut       decimal.Decimal `json:"total_out"`
	CurrentQty     decimal.Decimal `json:"current_qty"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	AvailableQty   decimal.Decimal `json:"available_qty"` // current minus active reservations
}

// CreateReservationRequest body for POST /api/inventory/reservations.
type CreateReservationRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// ReservationDTO reservation in responses.
type ReservationDTO struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// CreateStocktakingRequest body for POST /api/stocktakings.
type CreateStocktakingRequest struct {
	WarehouseID string `json:"warehouse_id"`
	CountDate   string `json:"count_date"` // YYYY-MM-DD
}

// RecordCountRequest body for POST /api/stocktakings/:id/counts.
type RecordCountRequest struct {
	ProductID  string          `json:"product_id"`
	CountedQty decimal.Decimal `json:"counted_qty"`
}

// StocktakingLineDTO count result for one product.
type StocktakingLineDTO struct {
	ProductID         string          `json:"product_id"`
	BookQty           decimal.Decimal `json:"book_qty"`
	CountedQty        decimal.Decimal `json:"counted_qty"`
	DifferenceQty     decimal.Decimal `json:"difference_qty"`
	AdjustmentCreated bool            `json:"adjustment_created"`
}

// StocktakingDTO stocktaking in responses.
type StocktakingDTO struct {
	ID          string               `json:"id"`
	Code        string               `json:"code"`
	WarehouseID string               `json:"warehouse_id"`
	CountDate   string               `json:"count_date"`
	Status      string               `json:"status"`
	Lines       []StocktakingLineDTO `json:"lines"`
}

// ReconcileResponse adjustment documents of one reconciliation run.
type ReconcileResponse struct {
	Stocktaking StocktakingDTO `json:"stocktaking"`
	Receipts    []DocumentDTO  `json:"receipts"`
	Issues      []DocumentDTO  `json:"issues"`
}

// FromDocument maps a stock document to its DTO.
func FromDocument(d *entity.StockDocument) DocumentDTO {
	out := DocumentDTO{
		ID:            d.ID,
		Code:          d.Code,
		Kind:          d.Kind,
		WarehouseID:   d.WarehouseID,
		PostingDate:   d.PostingDate.Format("2006-01-02"),
		OrderID:       d.OrderID,
		StocktakingID: d.StocktakingID,
		Description:   d.Description,
	}
	for _, l := range d.Lines {
		out.Lines = append(out.Lines, DocumentLineDTO{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UOM:         l.UOM,
			Quantity:    l.Quantity,
			SignedQty:   l.SignedQty,
			UnitCost:    l.UnitCost,
			MfgDate:     l.MfgDate,
			ExpDate:     l.ExpDate,
		})
	}
	return out
}

// FromStocktaking maps a stocktaking to its DTO.
func FromStocktaking(st *entity.StockTaking) StocktakingDTO {
	out := StocktakingDTO{
		ID:          st.ID,
		Code:        st.Code,
		WarehouseID: st.WarehouseID,
		CountDate:   st.CountDate.Format("2006-01-02"),
		Status:      st.Status,
	}
	for _, l := range st.Lines {
		out.Lines = append(out.Lines, StocktakingLineDTO{
			ProductID:         l.ProductID,
			BookQty:           l.BookQty,
			CountedQty:        l.CountedQty,
			DifferenceQty:     l.DifferenceQty,
			AdjustmentCreated: l.AdjustmentCreated,
		})
	}
	return out
}
