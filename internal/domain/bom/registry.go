package bom

import (
	"context"
	"fmt"
	"time"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

// ResolvedBOM is a product's effective recipe as of one date: component
// entries split by tier, plus labor lines for costing.
type ResolvedBOM struct {
	Materials      []entity.BOMEntry // components in group NVL/PL
	SemiComponents []entity.BOMEntry // components in group BTP
	Labor          []entity.LaborEntry
}

// Empty reports whether the product has no BOM at the date (raw material or
// unbuilt product; not an error).
func (r *ResolvedBOM) Empty() bool {
	return len(r.Materials) == 0 && len(r.SemiComponents) == 0
}

// Components returns materials and semi-components in one slice.
func (r *ResolvedBOM) Components() []entity.BOMEntry {
	out := make([]entity.BOMEntry, 0, len(r.Materials)+len(r.SemiComponents))
	out = append(out, r.Materials...)
	out = append(out, r.SemiComponents...)
	return out
}

// Registry resolves effective BOMs: for each (parent, component) pair it
// selects the entry with the greatest effective date not exceeding the query
// date. Entries without an effective date apply unconditionally but lose ties
// to any dated entry.
type Registry struct {
	bomRepo     repository.BOMRepository
	productRepo repository.ProductRepository
}

// NewRegistry builds the registry over the BOM and product repositories.
func NewRegistry(bomRepo repository.BOMRepository, productRepo repository.ProductRepository) *Registry {
	return &Registry{bomRepo: bomRepo, productRepo: productRepo}
}

// Resolve returns the effective BOM of a product as of a date. Quantities are
// converted to each component's main unit of measure; a differing unit with
// no declared conversion factor fails with UnitConversionError.
func (r *Registry) Resolve(ctx context.Context, productID string, asOf time.Time) (*ResolvedBOM, error) {
	entries, err := r.bomRepo.EntriesByParent(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load BOM entries: %w", err)
	}

	// Pick the winning entry per component.
	current := make(map[string]entity.BOMEntry)
	for _, e := range entries {
		if !e.EffectiveAsOf(asOf) {
			continue
		}
		prev, ok := current[e.ComponentID]
		if !ok || laterEffective(e, prev) {
			current[e.ComponentID] = e
		}
	}

	resolved := &ResolvedBOM{}
	for _, e := range current {
		component, err := r.productRepo.GetByID(ctx, e.ComponentID)
		if err != nil {
			return nil, fmt.Errorf("load component %s: %w", e.ComponentID, err)
		}
		qty, err := Convert(component, e.Quantity, e.UOM, component.MainUOM)
		if err != nil {
			return nil, err
		}
		e.Quantity = qty
		e.UOM = component.MainUOM
		if component.Group == entity.GroupSemiProduct {
			resolved.SemiComponents = append(resolved.SemiComponents, e)
		} else {
			resolved.Materials = append(resolved.Materials, e)
		}
	}

	labor, err := r.bomRepo.LaborByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load labor entries: %w", err)
	}
	resolved.Labor = labor
	return resolved, nil
}

// laterEffective reports whether a wins over b under the effective-date rule.
func laterEffective(a, b entity.BOMEntry) bool {
	switch {
	case a.EffectiveDate == nil:
		return false
	case b.EffectiveDate == nil:
		return true
	default:
		return a.EffectiveDate.After(*b.EffectiveDate)
	}
}
