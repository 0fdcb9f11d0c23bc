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

var _ repository.StockTakingRepository = (*StockTakingRepo)(nil)

// StockTakingRepo implements StockTakingRepository over PostgreSQL (pool or
// tx). Update upserts lines so counts recorded after creation persist.
type StockTakingRepo struct {
	q Querier
}

// NewStockTakingRepository builds the adapter. Pass pool or tx (Querier).
func NewStockTakingRepository(q Querier) *StockTakingRepo {
	return &StockTakingRepo{q: q}
}

func (r *StockTakingRepo) Create(ctx context.Context, st *entity.StockTaking) error {
	query := `
		INSERT INTO stocktakings (id, code, warehouse_id, count_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, st.ID, st.Code, st.WarehouseID, st.CountDate, st.Status, st.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: stocktaking %s", domain.ErrDuplicate, st.Code)
		}
		return fmt.Errorf("create stocktaking: %w", err)
	}
	return r.upsertLines(ctx, st)
}

func (r *StockTakingRepo) Update(ctx context.Context, st *entity.StockTaking) error {
	tag, err := r.q.Exec(ctx, `UPDATE stocktakings SET status = $2 WHERE id = $1`, st.ID, st.Status)
	if err != nil {
		return fmt.Errorf("update stocktaking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: stocktaking %s", domain.ErrNotFound, st.ID)
	}
	return r.upsertLines(ctx, st)
}

func (r *StockTakingRepo) upsertLines(ctx context.Context, st *entity.StockTaking) error {
	query := `
		INSERT INTO stocktaking_lines
			(id, stocktaking_id, product_id, book_qty, counted_qty, difference_qty, adjustment_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (stocktaking_id, product_id)
		DO UPDATE SET book_qty = EXCLUDED.book_qty,
		              counted_qty = EXCLUDED.counted_qty,
		              difference_qty = EXCLUDED.difference_qty,
		              adjustment_created = EXCLUDED.adjustment_created`
	for i := range st.Lines {
		l := &st.Lines[i]
		if _, err := r.q.Exec(ctx, query,
			l.ID, st.ID, l.ProductID, l.BookQty, l.CountedQty, l.DifferenceQty, l.AdjustmentCreated,
		); err != nil {
			return fmt.Errorf("upsert stocktaking line: %w", err)
		}
	}
	return nil
}

func (r *StockTakingRepo) GetByID(ctx context.Context, id string) (*entity.StockTaking, error) {
	query := `
		SELECT id, code, warehouse_id, count_date, status, created_at
		FROM stocktakings WHERE id = $1`
	var st entity.StockTaking
	err := r.q.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.Code, &st.WarehouseID, &st.CountDate, &st.Status, &st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: stocktaking %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get stocktaking: %w", err)
	}

	lineQuery := `
		SELECT id, stocktaking_id, product_id, book_qty, counted_qty, difference_qty, adjustment_created
		FROM stocktaking_lines WHERE stocktaking_id = $1 ORDER BY product_id`
	rows, err := r.q.Query(ctx, lineQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list stocktaking lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.StockTakingLine
		if err := rows.Scan(
			&l.ID, &l.StocktakingID, &l.ProductID, &l.BookQty, &l.CountedQty, &l.DifferenceQty, &l.AdjustmentCreated,
		); err != nil {
			return nil, fmt.Errorf("scan stocktaking line: %w", err)
		}
		st.Lines = append(st.Lines, l)
	}
	return &st, rows.Err()
}

func (r *StockTakingRepo) CountByDate(ctx context.Context, date time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM stocktakings WHERE count_date = $1`, date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count stocktakings: %w", err)
	}
	return n, nil
}
