package repository

import (
	"context"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// ProductRepository persists the product catalog.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	Update(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	ListByGroup(ctx context.Context, group string) ([]entity.Product, error)
}

// WarehouseRepository persists warehouses.
type WarehouseRepository interface {
	Create(ctx context.Context, w *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	GetByCode(ctx context.Context, code string) (*entity.Warehouse, error)
	ListByType(ctx context.Context, warehouseType string) ([]entity.Warehouse, error)
}
