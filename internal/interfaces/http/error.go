package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sixteenfood/qlsx/internal/application/dto"
	"github.com/sixteenfood/qlsx/internal/domain"
)

// domainError maps domain errors to HTTP status codes and stable error codes.
func domainError(c *fiber.Ctx, err error) error {
	var cyclic *domain.CyclicBOMError
	var conv *domain.UnitConversionError
	var state *domain.InvalidStateTransitionError

	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrLockTimeout):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "LOCK_TIMEOUT", Message: "concurrent operation in progress, retry"})
	case errors.Is(err, domain.ErrStocktakingLocked):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "STOCKTAKING_LOCKED", Message: err.Error()})
	case errors.As(err, &cyclic):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CYCLIC_BOM", Message: cyclic.Error()})
	case errors.As(err, &conv):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "UNIT_CONVERSION", Message: conv.Error()})
	case errors.As(err, &state):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: state.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
}

func invalidDate(c *fiber.Ctx, field string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: field + " must be YYYY-MM-DD"})
}
