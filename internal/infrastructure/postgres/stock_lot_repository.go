package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

var _ repository.StockLotRepository = (*StockLotRepo)(nil)

// StockLotRepo implements StockLotRepository over PostgreSQL (pool or tx).
type StockLotRepo struct {
	q Querier
}

// NewStockLotRepository builds the adapter. Pass pool or tx (Querier).
func NewStockLotRepository(q Querier) *StockLotRepo {
	return &StockLotRepo{q: q}
}

func (r *StockLotRepo) Create(ctx context.Context, lot *entity.StockLot) error {
	query := `
		INSERT INTO stock_lots
			(id, product_id, warehouse_id, document_id, posting_date, seq,
			 unit_cost, received_qty, remaining_qty, exp_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.ProductID, lot.WarehouseID, lot.DocumentID, lot.PostingDate, lot.Seq,
		lot.UnitCost, lot.ReceivedQty, lot.RemainingQty, lot.ExpDate,
	)
	if err != nil {
		return fmt.Errorf("create stock lot: %w", err)
	}
	return nil
}

func (r *StockLotRepo) UpdateRemaining(ctx context.Context, lotID string, remaining decimal.Decimal) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE stock_lots SET remaining_qty = $2 WHERE id = $1`,
		lotID, remaining,
	)
	if err != nil {
		return fmt.Errorf("update stock lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: stock lot %s", domain.ErrNotFound, lotID)
	}
	return nil
}

// AvailableForUpdate locks the unconsumed lots of one key in consumption
// order for the surrounding transaction.
func (r *StockLotRepo) AvailableForUpdate(ctx context.Context, productID, warehouseID string) ([]entity.StockLot, error) {
	query := `
		SELECT id, product_id, warehouse_id, document_id, posting_date, seq,
		       unit_cost, received_qty, remaining_qty, exp_date
		FROM stock_lots
		WHERE product_id = $1 AND warehouse_id = $2 AND remaining_qty > 0
		ORDER BY posting_date, seq
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list stock lots: %w", err)
	}
	defer rows.Close()
	var out []entity.StockLot
	for rows.Next() {
		var lot entity.StockLot
		if err := rows.Scan(
			&lot.ID, &lot.ProductID, &lot.WarehouseID, &lot.DocumentID, &lot.PostingDate, &lot.Seq,
			&lot.UnitCost, &lot.ReceivedQty, &lot.RemainingQty, &lot.ExpDate,
		); err != nil {
			return nil, fmt.Errorf("scan stock lot: %w", err)
		}
		out = append(out, lot)
	}
	return out, rows.Err()
}
