package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// StockDocumentRepository is the append-only document log. Documents are
// immutable once created; there is no update or delete.
type StockDocumentRepository interface {
	Create(ctx context.Context, doc *entity.StockDocument) error
	GetByID(ctx context.Context, id string) (*entity.StockDocument, error)
	// ListByKey returns every posted document line for one
	// (product, warehouse) key in posting order, for replay.
	ListByKey(ctx context.Context, productID, warehouseID string) ([]entity.StockDocumentLine, error)
	CountByKindAndDate(ctx context.Context, kind string, postingDate time.Time) (int, error)
	ExistsReceiptForOrder(ctx context.Context, orderID string) (bool, error)
}

// StockLotRepository maintains FIFO lots. AvailableForUpdate returns
// unconsumed lots for a key ordered oldest posting date first (ties by
// creation sequence) and locks them for the surrounding transaction.
type StockLotRepository interface {
	Create(ctx context.Context, lot *entity.StockLot) error
	UpdateRemaining(ctx context.Context, lotID string, remaining decimal.Decimal) error
	AvailableForUpdate(ctx context.Context, productID, warehouseID string) ([]entity.StockLot, error)
}

// SnapshotRepository maintains the materialized (product, warehouse) balance.
type SnapshotRepository interface {
	Get(ctx context.Context, productID, warehouseID string) (*entity.InventorySnapshot, error)
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.InventorySnapshot, error)
	Upsert(ctx context.Context, s *entity.InventorySnapshot) error
	// SumByWarehouseType totals current quantity of a product across all
	// warehouses of one type (planning-time netting).
	SumByWarehouseType(ctx context.Context, productID, warehouseType string) (decimal.Decimal, error)
}

// StockTakingRepository persists count events.
type StockTakingRepository interface {
	Create(ctx context.Context, st *entity.StockTaking) error
	Update(ctx context.Context, st *entity.StockTaking) error
	GetByID(ctx context.Context, id string) (*entity.StockTaking, error)
	CountByDate(ctx context.Context, date time.Time) (int, error)
}
