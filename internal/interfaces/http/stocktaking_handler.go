package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sixteenfood/qlsx/internal/application/dto"
	"github.com/sixteenfood/qlsx/internal/application/reconcile"
)

// StocktakingHandler serves stocktaking endpoints.
type StocktakingHandler struct {
	uc *reconcile.UseCase
}

// NewStocktakingHandler builds the handler.
func NewStocktakingHandler(uc *reconcile.UseCase) *StocktakingHandler {
	return &StocktakingHandler{uc: uc}
}

// Create handles POST /api/stocktakings.
func (h *StocktakingHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStocktakingRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	countDate, err := time.Parse("2006-01-02", in.CountDate)
	if err != nil {
		return invalidDate(c, "count_date")
	}
	st, err := h.uc.Create(c.Context(), in.WarehouseID, countDate)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromStocktaking(st))
}

// RecordCount handles POST /api/stocktakings/:id/counts.
func (h *StocktakingHandler) RecordCount(c *fiber.Ctx) error {
	var in dto.RecordCountRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	st, err := h.uc.RecordCount(c.Context(), c.Params("id"), in.ProductID, in.CountedQty)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.FromStocktaking(st))
}

// Lock handles POST /api/stocktakings/:id/lock.
func (h *StocktakingHandler) Lock(c *fiber.Ctx) error {
	st, err := h.uc.Lock(c.Context(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.FromStocktaking(st))
}

// Reconcile handles POST /api/stocktakings/:id/reconcile.
func (h *StocktakingHandler) Reconcile(c *fiber.Ctx) error {
	result, err := h.uc.Reconcile(c.Context(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	out := dto.ReconcileResponse{
		Stocktaking: dto.FromStocktaking(result.Stocktaking),
		Receipts:    make([]dto.DocumentDTO, 0, len(result.Receipts)),
		Issues:      make([]dto.DocumentDTO, 0, len(result.Issues)),
	}
	for _, d := range result.Receipts {
		out.Receipts = append(out.Receipts, dto.FromDocument(d))
	}
	for _, d := range result.Issues {
		out.Issues = append(out.Issues, dto.FromDocument(d))
	}
	return c.JSON(out)
}
