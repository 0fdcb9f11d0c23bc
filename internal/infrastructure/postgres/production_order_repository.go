package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

var _ repository.ProductionOrderRepository = (*ProductionOrderRepo)(nil)

// ProductionOrderRepo implements ProductionOrderRepository over PostgreSQL
// (pool or tx). Lines are stored in production_order_lines and loaded with
// the order.
type ProductionOrderRepo struct {
	q Querier
}

// NewProductionOrderRepository builds the adapter. Pass pool or tx (Querier).
func NewProductionOrderRepository(q Querier) *ProductionOrderRepo {
	return &ProductionOrderRepo{q: q}
}

const orderColumns = `
	id, business_id, production_date, kind, product_id, product_name,
	planned_qty, completed_qty, expected_diff_qty, status, split_group, note,
	created_at, updated_at`

func (r *ProductionOrderRepo) Create(ctx context.Context, o *entity.ProductionOrder) error {
	query := `
		INSERT INTO production_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.BusinessID, o.ProductionDate, o.Kind, o.ProductID, o.ProductName,
		o.PlannedQty, o.CompletedQty, o.ExpectedDiffQty, o.Status, nullable(o.SplitGroup), o.Note,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: production order %s", domain.ErrDuplicate, o.BusinessID)
		}
		return fmt.Errorf("create production order: %w", err)
	}
	for i := range o.Lines {
		if err := r.insertLine(ctx, &o.Lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProductionOrderRepo) insertLine(ctx context.Context, l *entity.ProductionOrderLine) error {
	query := `
		INSERT INTO production_order_lines
			(id, order_id, product_id, product_name, batch_spec, batch_count, uom,
			 planned_qty, actual_qty, expected_loss, actual_loss)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.OrderID, l.ProductID, l.ProductName, l.BatchSpec, l.BatchCount, l.UOM,
		l.PlannedQty, l.ActualQty, l.ExpectedLoss, l.ActualLoss,
	)
	if err != nil {
		return fmt.Errorf("create order line: %w", err)
	}
	return nil
}

func (r *ProductionOrderRepo) Update(ctx context.Context, o *entity.ProductionOrder) error {
	query := `
		UPDATE production_orders SET
			planned_qty = $2, completed_qty = $3, expected_diff_qty = $4,
			status = $5, note = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		o.ID, o.PlannedQty, o.CompletedQty, o.ExpectedDiffQty, o.Status, o.Note, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update production order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: production order %s", domain.ErrNotFound, o.ID)
	}
	lineQuery := `
		UPDATE production_order_lines SET actual_qty = $3, actual_loss = $4
		WHERE order_id = $1 AND product_id = $2`
	for i := range o.Lines {
		l := &o.Lines[i]
		if _, err := r.q.Exec(ctx, lineQuery, o.ID, l.ProductID, l.ActualQty, l.ActualLoss); err != nil {
			return fmt.Errorf("update order line: %w", err)
		}
	}
	return nil
}

func (r *ProductionOrderRepo) GetByID(ctx context.Context, id string) (*entity.ProductionOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM production_orders WHERE id = $1`
	o, err := r.scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: production order %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get production order: %w", err)
	}
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *ProductionOrderRepo) ListByDate(ctx context.Context, date time.Time) ([]entity.ProductionOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM production_orders WHERE production_date = $1 ORDER BY business_id`
	rows, err := r.q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("list production orders: %w", err)
	}
	defer rows.Close()
	var out []entity.ProductionOrder
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan production order: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadLines(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *ProductionOrderRepo) CountByDate(ctx context.Context, date time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM production_orders WHERE production_date = $1`, date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count production orders: %w", err)
	}
	return n, nil
}

func (r *ProductionOrderRepo) scanOrder(row pgx.Row) (*entity.ProductionOrder, error) {
	var o entity.ProductionOrder
	var splitGroup *string
	err := row.Scan(
		&o.ID, &o.BusinessID, &o.ProductionDate, &o.Kind, &o.ProductID, &o.ProductName,
		&o.PlannedQty, &o.CompletedQty, &o.ExpectedDiffQty, &o.Status, &splitGroup, &o.Note,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if splitGroup != nil {
		o.SplitGroup = *splitGroup
	}
	return &o, nil
}

func (r *ProductionOrderRepo) loadLines(ctx context.Context, o *entity.ProductionOrder) error {
	query := `
		SELECT id, order_id, product_id, product_name, batch_spec, batch_count, uom,
		       planned_qty, actual_qty, expected_loss, actual_loss
		FROM production_order_lines WHERE order_id = $1 ORDER BY product_id`
	rows, err := r.q.Query(ctx, query, o.ID)
	if err != nil {
		return fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.ProductionOrderLine
		if err := rows.Scan(
			&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.BatchSpec, &l.BatchCount, &l.UOM,
			&l.PlannedQty, &l.ActualQty, &l.ExpectedLoss, &l.ActualLoss,
		); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	return rows.Err()
}

// nullable maps an empty string to NULL so unique indexes ignore it.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
