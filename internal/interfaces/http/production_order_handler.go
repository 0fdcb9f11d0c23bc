package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sixteenfood/qlsx/internal/application/dto"
	"github.com/sixteenfood/qlsx/internal/application/planning"
)

// ProductionOrderHandler serves order lifecycle endpoints.
type ProductionOrderHandler struct {
	execution *planning.ExecutionUseCase
}

// NewProductionOrderHandler builds the handler.
func NewProductionOrderHandler(execution *planning.ExecutionUseCase) *ProductionOrderHandler {
	return &ProductionOrderHandler{execution: execution}
}

// CreateManual handles POST /api/production-orders.
func (h *ProductionOrderHandler) CreateManual(c *fiber.Ctx) error {
	var in dto.ManualOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	date, err := time.Parse("2006-01-02", in.ProductionDate)
	if err != nil {
		return invalidDate(c, "production_date")
	}
	order, err := h.execution.CreateManual(c.Context(), in.ProductID, date, in.Quantity, in.Note)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromOrder(order))
}

// Progress handles POST /api/production-orders/:id/progress.
func (h *ProductionOrderHandler) Progress(c *fiber.Ctx) error {
	var in dto.ProgressRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	order, err := h.execution.RecordProgress(c.Context(), c.Params("id"), in.Quantity)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.FromOrder(order))
}

// Complete handles POST /api/production-orders/:id/complete.
func (h *ProductionOrderHandler) Complete(c *fiber.Ctx) error {
	var in dto.CompleteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	actuals := make([]planning.LineActual, 0, len(in.Lines))
	for _, l := range in.Lines {
		actuals = append(actuals, planning.LineActual{
			ProductID:  l.ProductID,
			ActualQty:  l.ActualQty,
			ActualLoss: l.ActualLoss,
		})
	}
	order, err := h.execution.Complete(c.Context(), c.Params("id"), in.CompletedQty, actuals)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.FromOrder(order))
}

// Stock handles POST /api/production-orders/:id/stock: posts the receipt that
// stocks a completed order's produced quantity.
func (h *ProductionOrderHandler) Stock(c *fiber.Ctx) error {
	var in dto.StockOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	doc, err := h.execution.StockFinished(c.Context(), c.Params("id"), in.WarehouseID)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDocument(doc))
}
