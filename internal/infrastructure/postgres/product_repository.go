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

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implements ProductRepository over PostgreSQL (pool or tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository builds the adapter. Pass pool or tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `
	id, code, name, product_group, specification, main_uom, secondary_uom,
	conversion_rate, batch_spec, shelf_life_days, cost_price, status,
	created_at, updated_at`

func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Code, p.Name, p.Group, p.Specification, p.MainUOM, p.SecondaryUOM,
		p.ConversionRate, p.BatchSpec, p.ShelfLifeDays, p.CostPrice, p.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product code %s", domain.ErrDuplicate, p.Code)
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET
			name = $2, product_group = $3, specification = $4, main_uom = $5,
			secondary_uom = $6, conversion_rate = $7, batch_spec = $8,
			shelf_life_days = $9, cost_price = $10, status = $11, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Group, p.Specification, p.MainUOM, p.SecondaryUOM,
		p.ConversionRate, p.BatchSpec, p.ShelfLifeDays, p.CostPrice, p.Status,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, p.ID)
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getBy(ctx, "id", id)
}

func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	return r.getBy(ctx, "code", code)
}

func (r *ProductRepo) getBy(ctx context.Context, column, value string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE ` + column + ` = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, value).Scan(
		&p.ID, &p.Code, &p.Name, &p.Group, &p.Specification, &p.MainUOM, &p.SecondaryUOM,
		&p.ConversionRate, &p.BatchSpec, &p.ShelfLifeDays, &p.CostPrice, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, value)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) ListByGroup(ctx context.Context, group string) ([]entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE product_group = $1 ORDER BY code`
	rows, err := r.q.Query(ctx, query, group)
	if err != nil {
		return nil, fmt.Errorf("list products by group: %w", err)
	}
	defer rows.Close()
	var out []entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(
			&p.ID, &p.Code, &p.Name, &p.Group, &p.Specification, &p.MainUOM, &p.SecondaryUOM,
			&p.ConversionRate, &p.BatchSpec, &p.ShelfLifeDays, &p.CostPrice, &p.Status,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
