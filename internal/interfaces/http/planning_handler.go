package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sixteenfood/qlsx/internal/application/dto"
	"github.com/sixteenfood/qlsx/internal/application/planning"
)

// PlanningHandler serves the plan-generation endpoint.
type PlanningHandler struct {
	generate *planning.GeneratePlanUseCase
}

// NewPlanningHandler builds the handler.
func NewPlanningHandler(generate *planning.GeneratePlanUseCase) *PlanningHandler {
	return &PlanningHandler{generate: generate}
}

// Generate handles POST /api/planning/generate.
func (h *PlanningHandler) Generate(c *fiber.Ctx) error {
	var in dto.GeneratePlanRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	from, err := time.Parse("2006-01-02", in.FromDate)
	if err != nil {
		return invalidDate(c, "from_date")
	}
	to, err := time.Parse("2006-01-02", in.ToDate)
	if err != nil {
		return invalidDate(c, "to_date")
	}

	result, err := h.generate.Generate(c.Context(), from, to)
	if err != nil {
		return domainError(c, err)
	}

	out := dto.GeneratePlanResponse{
		Orders:      make([]dto.ProductionOrderDTO, 0, len(result.Orders)),
		Unfulfilled: make([]dto.UnfulfilledDTO, 0, len(result.Unfulfilled)),
	}
	for i := range result.Orders {
		out.Orders = append(out.Orders, dto.FromOrder(&result.Orders[i]))
	}
	for _, u := range result.Unfulfilled {
		out.Unfulfilled = append(out.Unfulfilled, dto.UnfulfilledDTO{
			ProductID:      u.ProductID,
			ProductionDate: u.ProductionDate.Format("2006-01-02"),
			Quantity:       u.Quantity,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
