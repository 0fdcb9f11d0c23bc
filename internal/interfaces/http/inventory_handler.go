package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sixteenfood/qlsx/internal/application/dto"
	"github.com/sixteenfood/qlsx/internal/application/inventory"
	"github.com/sixteenfood/qlsx/internal/application/planning"
)

// InventoryHandler serves document posting, stock queries and reservations.
type InventoryHandler struct {
	ledger    *inventory.Ledger
	execution *planning.ExecutionUseCase
}

// NewInventoryHandler builds the handler.
func NewInventoryHandler(ledger *inventory.Ledger, execution *planning.ExecutionUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, execution: execution}
}

// PostDocument handles POST /api/inventory/documents. Manual documents never
// allow a negative balance; only reconciliation adjustments do.
func (h *InventoryHandler) PostDocument(c *fiber.Ctx) error {
	var in dto.PostDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	postingDate, err := time.Parse("2006-01-02", in.PostingDate)
	if err != nil {
		return invalidDate(c, "posting_date")
	}

	post := inventory.PostInput{
		Kind:        in.Kind,
		WarehouseID: in.WarehouseID,
		PostingDate: postingDate,
		Description: in.Description,
	}
	for _, l := range in.Lines {
		post.Lines = append(post.Lines, inventory.PostLine{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			BatchSpec:   l.BatchSpec,
			UOM:         l.UOM,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
			MfgDate:     l.MfgDate,
			ExpDate:     l.ExpDate,
		})
	}

	doc, err := h.ledger.Post(c.Context(), post)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDocument(doc))
}

// IssueMaterials handles POST /api/inventory/material-issues: one aggregated
// PX document for a production date's component requirements.
func (h *InventoryHandler) IssueMaterials(c *fiber.Ctx) error {
	var in dto.IssueMaterialsRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	date, err := time.Parse("2006-01-02", in.ProductionDate)
	if err != nil {
		return invalidDate(c, "production_date")
	}
	doc, err := h.execution.IssueMaterials(c.Context(), date, in.WarehouseID)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDocument(doc))
}

// GetStock handles GET /api/inventory/stock/:product/:warehouse.
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	productID := c.Params("product")
	warehouseID := c.Params("warehouse")

	snap, err := h.ledger.SnapshotOf(c.Context(), productID, warehouseID)
	if err != nil {
		return domainError(c, err)
	}
	available, err := h.ledger.Available(c.Context(), productID, warehouseID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.StockDTO{
		ProductID:      snap.ProductID,
		WarehouseID:    snap.WarehouseID,
		TotalIn:        snap.TotalIn,
		TotalOut:       snap.TotalOut,
		CurrentQty:     snap.CurrentQty,
		InventoryValue: snap.InventoryValue,
		AvailableQty:   available,
	})
}

// CreateReservation handles POST /api/inventory/reservations.
func (h *InventoryHandler) CreateReservation(c *fiber.Ctx) error {
	var in dto.CreateReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	r, err := h.ledger.Reserve(c.Context(), in.ProductID, in.WarehouseID, in.Quantity)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReservationDTO{
		ID:          r.ID,
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		Quantity:    r.Quantity,
		ExpiresAt:   r.ExpiresAt,
	})
}
