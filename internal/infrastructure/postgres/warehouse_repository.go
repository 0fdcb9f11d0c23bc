package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo implements WarehouseRepository over PostgreSQL (pool or tx).
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository builds the adapter. Pass pool or tx (Querier).
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (id, code, name, wh_type, location, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`
	_, err := r.q.Exec(ctx, query, w.ID, w.Code, w.Name, w.Type, w.Location)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: warehouse code %s", domain.ErrDuplicate, w.Code)
		}
		return fmt.Errorf("create warehouse: %w", err)
	}
	return nil
}

func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.getBy(ctx, "id", id)
}

func (r *WarehouseRepo) GetByCode(ctx context.Context, code string) (*entity.Warehouse, error) {
	return r.getBy(ctx, "code", code)
}

func (r *WarehouseRepo) getBy(ctx context.Context, column, value string) (*entity.Warehouse, error) {
	query := `SELECT id, code, name, wh_type, location, created_at FROM warehouses WHERE ` + column + ` = $1`
	var w entity.Warehouse
	err := r.q.QueryRow(ctx, query, value).Scan(&w.ID, &w.Code, &w.Name, &w.Type, &w.Location, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: warehouse %s", domain.ErrNotFound, value)
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

func (r *WarehouseRepo) ListByType(ctx context.Context, warehouseType string) ([]entity.Warehouse, error) {
	query := `SELECT id, code, name, wh_type, location, created_at FROM warehouses WHERE wh_type = $1 ORDER BY code`
	rows, err := r.q.Query(ctx, query, warehouseType)
	if err != nil {
		return nil, fmt.Errorf("list warehouses by type: %w", err)
	}
	defer rows.Close()
	var out []entity.Warehouse
	for rows.Next() {
		var w entity.Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.Type, &w.Location, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
