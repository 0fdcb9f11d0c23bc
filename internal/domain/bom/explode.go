package bom

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// Requirement is one leaf (raw-material) line of an exploded BOM.
type Requirement struct {
	ProductID   string
	ProductCode string
	ProductName string
	Quantity    decimal.Decimal
	UOM         string
	UnitCost    decimal.Decimal // from the BOM entry when declared, else product cost price
}

// frame is one node of the explicit traversal stack.
type frame struct {
	productID string
	qty       decimal.Decimal
	path      []string // product codes root..here, the active path
	pathIDs   map[string]struct{}
}

// Explode expands a product's BOM at a date into total leaf-component
// requirements. The BOM graph is a DAG over components, not a tree: the same
// raw material reached via several semi-products accumulates additively.
//
// Traversal is depth-first over an explicit stack carrying the active-path
// set, so cycles are detected deterministically and call depth stays bounded.
// All intermediate multiplications stay unrounded; only the final aggregate
// per leaf rounds, half up, to the unit's declared precision.
func (r *Registry) Explode(ctx context.Context, productID string, qty decimal.Decimal, asOf time.Time) ([]Requirement, error) {
	root, err := r.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	acc := make(map[string]*Requirement)
	stack := []frame{{
		productID: productID,
		qty:       qty,
		path:      []string{root.Code},
		pathIDs:   map[string]struct{}{productID: {}},
	}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		resolved, err := r.Resolve(ctx, top.productID, asOf)
		if err != nil {
			return nil, err
		}

		// A semi-product without a BOM of its own is issued from stock as-is.
		if resolved.Empty() && top.productID != productID {
			component, err := r.productRepo.GetByID(ctx, top.productID)
			if err != nil {
				return nil, err
			}
			addRequirement(acc, component, top.qty, nil)
			continue
		}

		for _, e := range resolved.Components() {
			component, err := r.productRepo.GetByID(ctx, e.ComponentID)
			if err != nil {
				return nil, err
			}
			required := top.qty.Mul(e.Quantity)

			if component.Group == entity.GroupSemiProduct {
				if _, onPath := top.pathIDs[component.ID]; onPath {
					return nil, &domain.CyclicBOMError{Path: append(append([]string{}, top.path...), component.Code)}
				}
				childPath := append(append([]string{}, top.path...), component.Code)
				childIDs := make(map[string]struct{}, len(top.pathIDs)+1)
				for id := range top.pathIDs {
					childIDs[id] = struct{}{}
				}
				childIDs[component.ID] = struct{}{}
				stack = append(stack, frame{
					productID: component.ID,
					qty:       required,
					path:      childPath,
					pathIDs:   childIDs,
				})
				continue
			}

			// Leaf: accumulate across paths.
			addRequirement(acc, component, required, e.Cost)
		}
	}

	out := make([]Requirement, 0, len(acc))
	for _, req := range acc {
		req.Quantity = RoundQty(req.Quantity, req.UOM)
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductCode < out[j].ProductCode })
	return out, nil
}

func addRequirement(acc map[string]*Requirement, component *entity.Product, qty decimal.Decimal, entryCost *decimal.Decimal) {
	if existing, ok := acc[component.ID]; ok {
		existing.Quantity = existing.Quantity.Add(qty)
		return
	}
	unitCost := component.CostPrice
	if entryCost != nil {
		unitCost = *entryCost
	}
	acc[component.ID] = &Requirement{
		ProductID:   component.ID,
		ProductCode: component.Code,
		ProductName: component.Name,
		Quantity:    qty,
		UOM:         component.MainUOM,
		UnitCost:    unitCost,
	}
}
