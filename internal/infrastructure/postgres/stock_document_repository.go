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

var _ repository.StockDocumentRepository = (*StockDocumentRepo)(nil)

// StockDocumentRepo implements the append-only document log over PostgreSQL
// (pool or tx). No update or delete statements exist on purpose.
type StockDocumentRepo struct {
	q Querier
}

// NewStockDocumentRepository builds the adapter. Pass pool or tx (Querier).
func NewStockDocumentRepository(q Querier) *StockDocumentRepo {
	return &StockDocumentRepo{q: q}
}

func (r *StockDocumentRepo) Create(ctx context.Context, doc *entity.StockDocument) error {
	query := `
		INSERT INTO stock_documents
			(id, code, kind, warehouse_id, posting_date, order_id, stocktaking_id,
			 storekeeper, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.Code, doc.Kind, doc.WarehouseID, doc.PostingDate,
		nullable(doc.OrderID), nullable(doc.StocktakingID),
		doc.Storekeeper, doc.Description, doc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: document code %s", domain.ErrDuplicate, doc.Code)
		}
		return fmt.Errorf("create stock document: %w", err)
	}

	lineQuery := `
		INSERT INTO stock_document_lines
			(id, document_id, line_no, product_id, product_name, batch_spec,
			 mfg_date, exp_date, uom, quantity, signed_qty, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	for i := range doc.Lines {
		l := &doc.Lines[i]
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, doc.ID, i+1, l.ProductID, l.ProductName, l.BatchSpec,
			l.MfgDate, l.ExpDate, l.UOM, l.Quantity, l.SignedQty, l.UnitCost,
		); err != nil {
			return fmt.Errorf("create document line: %w", err)
		}
	}
	return nil
}

func (r *StockDocumentRepo) GetByID(ctx context.Context, id string) (*entity.StockDocument, error) {
	query := `
		SELECT id, code, kind, warehouse_id, posting_date,
		       coalesce(order_id, ''), coalesce(stocktaking_id, ''),
		       storekeeper, description, created_at
		FROM stock_documents WHERE id = $1`
	var doc entity.StockDocument
	err := r.q.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.Code, &doc.Kind, &doc.WarehouseID, &doc.PostingDate,
		&doc.OrderID, &doc.StocktakingID, &doc.Storekeeper, &doc.Description, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: stock document %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get stock document: %w", err)
	}

	lineQuery := `
		SELECT id, document_id, product_id, product_name, batch_spec,
		       mfg_date, exp_date, uom, quantity, signed_qty, unit_cost
		FROM stock_document_lines WHERE document_id = $1 ORDER BY line_no`
	rows, err := r.q.Query(ctx, lineQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list document lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.StockDocumentLine
		if err := rows.Scan(
			&l.ID, &l.DocumentID, &l.ProductID, &l.ProductName, &l.BatchSpec,
			&l.MfgDate, &l.ExpDate, &l.UOM, &l.Quantity, &l.SignedQty, &l.UnitCost,
		); err != nil {
			return nil, fmt.Errorf("scan document line: %w", err)
		}
		doc.Lines = append(doc.Lines, l)
	}
	return &doc, rows.Err()
}

// ListByKey returns every posted line for one (product, warehouse) key in
// posting order, the replay input.
func (r *StockDocumentRepo) ListByKey(ctx context.Context, productID, warehouseID string) ([]entity.StockDocumentLine, error) {
	query := `
		SELECT l.id, l.document_id, l.product_id, l.product_name, l.batch_spec,
		       l.mfg_date, l.exp_date, l.uom, l.quantity, l.signed_qty, l.unit_cost
		FROM stock_document_lines l
		JOIN stock_documents d ON d.id = l.document_id
		WHERE l.product_id = $1 AND d.warehouse_id = $2
		ORDER BY d.created_at, l.line_no`
	rows, err := r.q.Query(ctx, query, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list document lines by key: %w", err)
	}
	defer rows.Close()
	var out []entity.StockDocumentLine
	for rows.Next() {
		var l entity.StockDocumentLine
		if err := rows.Scan(
			&l.ID, &l.DocumentID, &l.ProductID, &l.ProductName, &l.BatchSpec,
			&l.MfgDate, &l.ExpDate, &l.UOM, &l.Quantity, &l.SignedQty, &l.UnitCost,
		); err != nil {
			return nil, fmt.Errorf("scan document line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *StockDocumentRepo) CountByKindAndDate(ctx context.Context, kind string, postingDate time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM stock_documents WHERE kind = $1 AND posting_date = $2`,
		kind, postingDate,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count stock documents: %w", err)
	}
	return n, nil
}

func (r *StockDocumentRepo) ExistsReceiptForOrder(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stock_documents WHERE kind = $1 AND order_id = $2)`,
		entity.DocReceipt, orderID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check receipt for order: %w", err)
	}
	return exists, nil
}
