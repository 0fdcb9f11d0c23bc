package repository

import (
	"context"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// BOMRepository persists bill-of-material entries and labor lines.
// AddEntry must reject two entries for the same (parent, component) pair with
// the same effective date (domain.ErrDuplicate).
type BOMRepository interface {
	AddEntry(ctx context.Context, e *entity.BOMEntry) error
	AddLabor(ctx context.Context, l *entity.LaborEntry) error
	EntriesByParent(ctx context.Context, parentID string) ([]entity.BOMEntry, error)
	LaborByProduct(ctx context.Context, productID string) ([]entity.LaborEntry, error)
}
