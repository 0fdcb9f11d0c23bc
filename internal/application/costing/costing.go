package costing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/bom"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

// Breakdown is the standard cost of one unit of a product at a date.
type Breakdown struct {
	ProductID    string
	ProductCode  string
	MaterialCost decimal.Decimal
	LaborCost    decimal.Decimal // labor across all BOM levels
	TotalCost    decimal.Decimal
}

// Service computes standard product costs from the effective BOM: component
// costs plus labor, recursing through semi-products.
type Service struct {
	registry *bom.Registry
	products repository.ProductRepository
}

// NewService builds the costing service.
func NewService(registry *bom.Registry, products repository.ProductRepository) *Service {
	return &Service{registry: registry, products: products}
}

// UnitCost returns the cost breakdown for one unit of a product as of a date.
// Products without a BOM cost their catalog cost price. The recursion carries
// the active path, so a cyclic BOM fails instead of looping.
func (s *Service) UnitCost(ctx context.Context, productID string, asOf time.Time) (*Breakdown, error) {
	return s.unitCost(ctx, productID, asOf, map[string]struct{}{}, []string{})
}

func (s *Service) unitCost(
	ctx context.Context,
	productID string,
	asOf time.Time,
	pathIDs map[string]struct{},
	path []string,
) (*Breakdown, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, onPath := pathIDs[productID]; onPath {
		return nil, &domain.CyclicBOMError{Path: append(append([]string{}, path...), product.Code)}
	}
	pathIDs[productID] = struct{}{}
	path = append(path, product.Code)
	defer delete(pathIDs, productID)

	resolved, err := s.registry.Resolve(ctx, productID, asOf)
	if err != nil {
		return nil, err
	}

	out := &Breakdown{ProductID: productID, ProductCode: product.Code}
	if resolved.Empty() {
		out.MaterialCost = product.CostPrice
		out.TotalCost = product.CostPrice
		return out, nil
	}

	for _, e := range resolved.Materials {
		unitCost := decimal.Zero
		if e.Cost != nil {
			unitCost = *e.Cost
		} else {
			component, err := s.products.GetByID(ctx, e.ComponentID)
			if err != nil {
				return nil, err
			}
			unitCost = component.CostPrice
		}
		out.MaterialCost = out.MaterialCost.Add(e.Quantity.Mul(unitCost))
	}

	for _, e := range resolved.SemiComponents {
		sub, err := s.unitCost(ctx, e.ComponentID, asOf, pathIDs, path)
		if err != nil {
			return nil, err
		}
		out.MaterialCost = out.MaterialCost.Add(e.Quantity.Mul(sub.MaterialCost))
		out.LaborCost = out.LaborCost.Add(e.Quantity.Mul(sub.LaborCost))
	}

	for i := range resolved.Labor {
		out.LaborCost = out.LaborCost.Add(resolved.Labor[i].Cost())
	}

	out.TotalCost = out.MaterialCost.Add(out.LaborCost)
	return out, nil
}

// OrderCost values a production order at its planned quantity.
func (s *Service) OrderCost(ctx context.Context, order *entity.ProductionOrder, asOf time.Time) (decimal.Decimal, error) {
	unit, err := s.UnitCost(ctx, order.ProductID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return order.PlannedQty.Mul(unit.TotalCost), nil
}
