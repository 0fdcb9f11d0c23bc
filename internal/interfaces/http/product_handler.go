package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sixteenfood/qlsx/internal/application/costing"
	"github.com/sixteenfood/qlsx/internal/application/dto"
)

// ProductHandler serves product costing.
type ProductHandler struct {
	costs *costing.Service
}

// NewProductHandler builds the handler.
func NewProductHandler(costs *costing.Service) *ProductHandler {
	return &ProductHandler{costs: costs}
}

// GetCost handles GET /api/products/:id/cost. Optional as_of query selects the
// effective BOM date; default today.
func (h *ProductHandler) GetCost(c *fiber.Ctx) error {
	asOf := time.Now()
	if q := c.Query("as_of"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			return invalidDate(c, "as_of")
		}
		asOf = parsed
	}
	breakdown, err := h.costs.UnitCost(c.Context(), c.Params("id"), asOf)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.CostBreakdownDTO{
		ProductID:    breakdown.ProductID,
		ProductCode:  breakdown.ProductCode,
		MaterialCost: breakdown.MaterialCost,
		LaborCost:    breakdown.LaborCost,
		TotalCost:    breakdown.TotalCost,
	})
}
