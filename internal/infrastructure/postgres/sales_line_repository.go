package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

var _ repository.SalesLineRepository = (*SalesLineRepo)(nil)

// SalesLineRepo reads confirmed demand rows replicated from the order
// subsystem.
type SalesLineRepo struct {
	q Querier
}

// NewSalesLineRepository builds the adapter. Pass pool or tx (Querier).
func NewSalesLineRepository(q Querier) *SalesLineRepo {
	return &SalesLineRepo{q: q}
}

func (r *SalesLineRepo) DueInRange(ctx context.Context, from, to time.Time) ([]entity.SalesLine, error) {
	query := `
		SELECT product_id, quantity, due_date, business_ref
		FROM sales_lines
		WHERE due_date >= $1 AND due_date <= $2
		ORDER BY due_date, product_id`
	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sales lines: %w", err)
	}
	defer rows.Close()
	var out []entity.SalesLine
	for rows.Next() {
		var l entity.SalesLine
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.DueDate, &l.BusinessRef); err != nil {
			return nil, fmt.Errorf("scan sales line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
