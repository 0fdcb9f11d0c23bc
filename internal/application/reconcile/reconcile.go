package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/application/inventory"
	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/event"
	"github.com/sixteenfood/qlsx/internal/domain/planning"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
	"github.com/sixteenfood/qlsx/pkg/logger"
)

// UseCase runs stocktakings: record physical counts against book quantities,
// lock the count, and post the adjustment documents that bring the ledger in
// line with what was counted.
type UseCase struct {
	stocktakings repository.StockTakingRepository
	snapshots    repository.SnapshotRepository
	products     repository.ProductRepository
	ledger       *inventory.Ledger
	dispatcher   event.Dispatcher
	log          *logger.Logger
}

// NewUseCase builds the reconciliation use case.
func NewUseCase(
	stocktakings repository.StockTakingRepository,
	snapshots repository.SnapshotRepository,
	products repository.ProductRepository,
	ledger *inventory.Ledger,
	dispatcher event.Dispatcher,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		stocktakings: stocktakings,
		snapshots:    snapshots,
		products:     products,
		ledger:       ledger,
		dispatcher:   dispatcher,
		log:          log,
	}
}

// Create opens a draft stocktaking for a warehouse on a date with a KK code.
func (uc *UseCase) Create(ctx context.Context, warehouseID string, countDate time.Time) (*entity.StockTaking, error) {
	if warehouseID == "" {
		return nil, fmt.Errorf("%w: warehouse required", domain.ErrValidation)
	}
	countDate = planning.Day(countDate)
	seq, err := uc.stocktakings.CountByDate(ctx, countDate)
	if err != nil {
		return nil, err
	}
	st := &entity.StockTaking{
		ID:          uuid.New().String(),
		Code:        entity.StocktakingCode(countDate, seq+1),
		WarehouseID: warehouseID,
		CountDate:   countDate,
		Status:      entity.StocktakingDraft,
		CreatedAt:   time.Now(),
	}
	if err := uc.stocktakings.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// RecordCount captures the counted quantity for one product. The book quantity
// is read from the live snapshot at recording time, so the difference reflects
// the ledger as of the count.
func (uc *UseCase) RecordCount(ctx context.Context, stocktakingID, productID string, countedQty decimal.Decimal) (*entity.StockTaking, error) {
	if countedQty.IsNegative() {
		return nil, fmt.Errorf("%w: counted quantity must not be negative", domain.ErrValidation)
	}
	st, err := uc.stocktakings.GetByID(ctx, stocktakingID)
	if err != nil {
		return nil, err
	}
	snap, err := uc.snapshots.Get(ctx, productID, st.WarehouseID)
	if err != nil {
		return nil, err
	}
	if err := st.RecordCount(productID, snap.CurrentQty, countedQty); err != nil {
		return nil, err
	}
	if err := uc.stocktakings.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Lock freezes the stocktaking. Only locked stocktakings may be reconciled.
func (uc *UseCase) Lock(ctx context.Context, stocktakingID string) (*entity.StockTaking, error) {
	st, err := uc.stocktakings.GetByID(ctx, stocktakingID)
	if err != nil {
		return nil, err
	}
	if err := st.Lock(); err != nil {
		return nil, err
	}
	if err := uc.stocktakings.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Result of one reconciliation run.
type Result struct {
	Stocktaking *entity.StockTaking
	Receipts    []*entity.StockDocument
	Issues      []*entity.StockDocument
}

// Reconcile posts adjustment documents for every counted difference of a
// locked stocktaking: a receipt where the count exceeds the book, an issue
// where the book exceeds the count. Issues allow a negative balance since the
// physical count, not the ledger, is the authority. Lines already adjusted are
// skipped, so a rerun after a partial failure never double-posts.
func (uc *UseCase) Reconcile(ctx context.Context, stocktakingID string) (*Result, error) {
	st, err := uc.stocktakings.GetByID(ctx, stocktakingID)
	if err != nil {
		return nil, err
	}
	if st.Status != entity.StocktakingLocked {
		return nil, fmt.Errorf("%w: stocktaking %s must be locked before reconciling", domain.ErrValidation, st.Code)
	}

	var surplus, shortage []inventory.PostLine
	var adjusted []int
	for i := range st.Lines {
		line := &st.Lines[i]
		if line.AdjustmentCreated || line.DifferenceQty.IsZero() {
			continue
		}
		product, err := uc.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		pl := inventory.PostLine{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			UOM:         product.MainUOM,
			Quantity:    line.DifferenceQty.Abs(),
		}
		if line.DifferenceQty.IsPositive() {
			// Found more than booked. Valued at the catalog cost price since no
			// purchase document backs the surplus.
			pl.UnitCost = product.CostPrice
			surplus = append(surplus, pl)
		} else {
			shortage = append(shortage, pl)
		}
		adjusted = append(adjusted, i)
	}

	result := &Result{Stocktaking: st}
	if len(surplus) == 0 && len(shortage) == 0 {
		return result, nil
	}

	if len(surplus) > 0 {
		doc, err := uc.ledger.Post(ctx, inventory.PostInput{
			Kind:          entity.DocReceipt,
			WarehouseID:   st.WarehouseID,
			PostingDate:   st.CountDate,
			StocktakingID: st.ID,
			Description:   fmt.Sprintf("stocktaking surplus %s", st.Code),
			Lines:         surplus,
		})
		if err != nil {
			return nil, err
		}
		result.Receipts = append(result.Receipts, doc)
	}
	if len(shortage) > 0 {
		doc, err := uc.ledger.Post(ctx, inventory.PostInput{
			Kind:          entity.DocIssue,
			WarehouseID:   st.WarehouseID,
			PostingDate:   st.CountDate,
			StocktakingID: st.ID,
			Description:   fmt.Sprintf("stocktaking shortage %s", st.Code),
			Lines:         shortage,
			AllowNegative: true,
		})
		if err != nil {
			return nil, err
		}
		result.Issues = append(result.Issues, doc)
	}

	for _, i := range adjusted {
		st.Lines[i].AdjustmentCreated = true
	}
	if err := uc.stocktakings.Update(ctx, st); err != nil {
		return nil, err
	}

	for _, i := range adjusted {
		line := st.Lines[i]
		uc.dispatcher.Dispatch(ctx, event.Event{
			Type:        event.TypeAdjustmentPosted,
			OccurredAt:  time.Now(),
			ProductID:   line.ProductID,
			WarehouseID: st.WarehouseID,
			Quantity:    line.DifferenceQty,
			Message:     fmt.Sprintf("stocktaking %s adjusted %s by %s", st.Code, line.ProductID, line.DifferenceQty),
		})
	}

	uc.log.Info().
		Str("stocktaking", st.Code).
		Int("receipts", len(result.Receipts)).
		Int("issues", len(result.Issues)).
		Msg("stocktaking reconciled")
	return result, nil
}
