package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/event"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
	"github.com/sixteenfood/qlsx/pkg/logger"
)

// Ledger is the system of record for stock movement: an append-only document
// log, FIFO lots, and a materialized per-(product, warehouse) snapshot kept
// consistent inside one transaction per posted document.
type Ledger struct {
	txRunner     TxRunner
	snapshots    repository.SnapshotRepository
	documents    repository.StockDocumentRepository
	reservations ReservationStore
	dispatcher   event.Dispatcher
	log          *logger.Logger

	lowStockThreshold decimal.Decimal
	reservationTTL    time.Duration
}

// Config for ledger policy knobs.
type Config struct {
	LowStockThreshold decimal.Decimal
	ReservationTTL    time.Duration
}

// NewLedger builds the ledger use case.
func NewLedger(
	txRunner TxRunner,
	snapshots repository.SnapshotRepository,
	documents repository.StockDocumentRepository,
	reservations ReservationStore,
	dispatcher event.Dispatcher,
	log *logger.Logger,
	cfg Config,
) *Ledger {
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = 15 * time.Minute
	}
	return &Ledger{
		txRunner:          txRunner,
		snapshots:         snapshots,
		documents:         documents,
		reservations:      reservations,
		dispatcher:        dispatcher,
		log:               log,
		lowStockThreshold: cfg.LowStockThreshold,
		reservationTTL:    cfg.ReservationTTL,
	}
}

// PostInput describes one document to post.
type PostInput struct {
	Kind          string // entity.DocReceipt or entity.DocIssue
	WarehouseID   string
	PostingDate   time.Time
	OrderID       string
	StocktakingID string
	Description   string
	Lines         []PostLine
	// AllowNegative lets an issue drive the balance below zero. Used only by
	// reconciliation adjustments, where book records may legitimately be wrong.
	AllowNegative bool
}

// PostLine is one product movement of a document. Quantity is non-negative;
// direction comes from the document kind.
type PostLine struct {
	ProductID   string
	ProductName string
	BatchSpec   string
	UOM         string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal // receipts only
	MfgDate     *time.Time
	ExpDate     *time.Time
}

// Post appends a stock document and updates snapshots and FIFO lots, all or
// nothing. Issues without AllowNegative fail with ErrInsufficientStock when a
// line would drive the balance negative.
func (l *Ledger) Post(ctx context.Context, in PostInput) (*entity.StockDocument, error) {
	if err := validatePost(in); err != nil {
		return nil, err
	}

	// Deterministic lock order across lines of one document.
	lines := append([]PostLine(nil), in.Lines...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	postingDate := entityDay(in.PostingDate)
	now := time.Now()
	doc := &entity.StockDocument{
		ID:            uuid.New().String(),
		Kind:          in.Kind,
		WarehouseID:   in.WarehouseID,
		PostingDate:   postingDate,
		OrderID:       in.OrderID,
		StocktakingID: in.StocktakingID,
		Description:   in.Description,
		CreatedAt:     now,
	}

	var lowStock []event.Event
	err := l.txRunner.Run(ctx, func(
		docs repository.StockDocumentRepository,
		lots repository.StockLotRepository,
		snaps repository.SnapshotRepository,
		orders repository.ProductionOrderRepository,
	) error {
		seq, err := docs.CountByKindAndDate(ctx, in.Kind, postingDate)
		if err != nil {
			return err
		}
		doc.Code = entity.DocumentCode(in.Kind, postingDate, seq+1)

		for _, line := range lines {
			applied, err := l.applyLine(ctx, doc, line, in, lots, snaps)
			if err != nil {
				return err
			}
			doc.Lines = append(doc.Lines, *applied.line)
			if applied.lowStock != nil {
				lowStock = append(lowStock, *applied.lowStock)
			}
		}

		if err := docs.Create(ctx, doc); err != nil {
			return err
		}

		// A receipt referencing a production order moves it to stocked.
		if in.OrderID != "" && in.Kind == entity.DocReceipt {
			order, err := orders.GetByID(ctx, in.OrderID)
			if err != nil {
				return err
			}
			if err := order.MarkStocked(); err != nil {
				return err
			}
			if err := orders.Update(ctx, order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info().
		Str("document", doc.Code).
		Str("kind", doc.Kind).
		Int("lines", len(doc.Lines)).
		Msg("stock document posted")

	for _, e := range lowStock {
		l.dispatcher.Dispatch(ctx, e)
	}
	return doc, nil
}

type appliedLine struct {
	line     *entity.StockDocumentLine
	lowStock *event.Event
}

// applyLine updates the snapshot and FIFO lots for one line under the row
// lock taken by GetForUpdate.
func (l *Ledger) applyLine(
	ctx context.Context,
	doc *entity.StockDocument,
	line PostLine,
	in PostInput,
	lots repository.StockLotRepository,
	snaps repository.SnapshotRepository,
) (appliedLine, error) {
	snap, err := snaps.GetForUpdate(ctx, line.ProductID, in.WarehouseID)
	if err != nil {
		return appliedLine{}, err
	}

	docLine := &entity.StockDocumentLine{
		ID:          uuid.New().String(),
		DocumentID:  doc.ID,
		ProductID:   line.ProductID,
		ProductName: line.ProductName,
		BatchSpec:   line.BatchSpec,
		MfgDate:     line.MfgDate,
		ExpDate:     line.ExpDate,
		UOM:         line.UOM,
		Quantity:    line.Quantity,
	}

	var valueDelta decimal.Decimal
	switch in.Kind {
	case entity.DocReceipt:
		docLine.SignedQty = line.Quantity
		docLine.UnitCost = line.UnitCost
		valueDelta = line.Quantity.Mul(line.UnitCost)
		lot := &entity.StockLot{
			ID:           uuid.New().String(),
			ProductID:    line.ProductID,
			WarehouseID:  in.WarehouseID,
			DocumentID:   doc.ID,
			PostingDate:  doc.PostingDate,
			Seq:          doc.CreatedAt.UnixNano(),
			UnitCost:     line.UnitCost,
			ReceivedQty:  line.Quantity,
			RemainingQty: line.Quantity,
			ExpDate:      line.ExpDate,
		}
		if err := lots.Create(ctx, lot); err != nil {
			return appliedLine{}, err
		}

	case entity.DocIssue:
		if snap.CurrentQty.LessThan(line.Quantity) && !in.AllowNegative {
			return appliedLine{}, fmt.Errorf("%w: %s has %s, need %s",
				domain.ErrInsufficientStock, line.ProductID, snap.CurrentQty, line.Quantity)
		}
		cost, err := consumeFIFO(ctx, lots, line.ProductID, in.WarehouseID, line.Quantity)
		if err != nil {
			return appliedLine{}, err
		}
		docLine.SignedQty = line.Quantity.Neg()
		if line.Quantity.IsPositive() {
			docLine.UnitCost = cost.Div(line.Quantity)
		}
		valueDelta = cost.Neg()
	}

	snap.Apply(docLine.SignedQty, valueDelta, doc.CreatedAt)
	if err := snaps.Upsert(ctx, snap); err != nil {
		return appliedLine{}, err
	}

	out := appliedLine{line: docLine}
	if in.Kind == entity.DocIssue &&
		l.lowStockThreshold.IsPositive() &&
		snap.CurrentQty.LessThan(l.lowStockThreshold) {
		out.lowStock = &event.Event{
			Type:        event.TypeLowStock,
			OccurredAt:  doc.CreatedAt,
			ProductID:   line.ProductID,
			WarehouseID: in.WarehouseID,
			Quantity:    snap.CurrentQty,
			Message:     fmt.Sprintf("stock of %s below threshold: %s", line.ProductName, snap.CurrentQty),
		}
	}
	return out, nil
}

// consumeFIFO takes qty from the oldest lots first and returns the total
// cost of the consumed slices. A shortfall beyond the available lots
// (possible only with AllowNegative) carries zero cost: no lot backs it.
func consumeFIFO(
	ctx context.Context,
	lots repository.StockLotRepository,
	productID, warehouseID string,
	qty decimal.Decimal,
) (decimal.Decimal, error) {
	available, err := lots.AvailableForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	remaining := qty
	for _, lot := range available {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		take := decimal.Min(remaining, lot.RemainingQty)
		if take.LessThanOrEqual(decimal.Zero) {
			continue
		}
		c := entity.LotConsumption{LotID: lot.ID, Quantity: take, UnitCost: lot.UnitCost}
		total = total.Add(c.Cost())
		if err := lots.UpdateRemaining(ctx, lot.ID, lot.RemainingQty.Sub(take)); err != nil {
			return decimal.Zero, err
		}
		remaining = remaining.Sub(take)
	}
	return total, nil
}

// SnapshotOf returns the current materialized balance for a key.
func (l *Ledger) SnapshotOf(ctx context.Context, productID, warehouseID string) (*entity.InventorySnapshot, error) {
	return l.snapshots.Get(ctx, productID, warehouseID)
}

// Available returns the quantity free for planning: current balance minus
// unexpired reservations.
func (l *Ledger) Available(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	snap, err := l.snapshots.Get(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	reserved, err := l.reservations.ActiveQuantity(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.CurrentQty.Sub(reserved), nil
}

// Reserve places an advisory soft hold against available quantity. It never
// mutates the ledger and expires after the configured TTL.
func (l *Ledger) Reserve(ctx context.Context, productID, warehouseID string, qty decimal.Decimal) (*entity.Reservation, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrValidation
	}
	available, err := l.Available(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if available.LessThan(qty) {
		return nil, domain.ErrInsufficientStock
	}
	r := entity.Reservation{
		ID:          uuid.New().String(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    qty,
		ExpiresAt:   time.Now().Add(l.reservationTTL),
	}
	if err := l.reservations.Put(ctx, r, l.reservationTTL); err != nil {
		return nil, err
	}
	return &r, nil
}

// Replay reconstructs the snapshot of one key from the document log alone,
// re-running FIFO consumption over the posted lines in posting order. It is
// the correctness oracle for the materialized snapshot.
func (l *Ledger) Replay(ctx context.Context, productID, warehouseID string) (*entity.InventorySnapshot, error) {
	lines, err := l.documents.ListByKey(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	type replayLot struct {
		remaining decimal.Decimal
		unitCost  decimal.Decimal
	}
	var open []replayLot
	snap := &entity.InventorySnapshot{ProductID: productID, WarehouseID: warehouseID}
	for _, line := range lines {
		if line.SignedQty.IsNegative() {
			qty := line.SignedQty.Neg()
			cost := decimal.Zero
			for i := range open {
				if qty.LessThanOrEqual(decimal.Zero) {
					break
				}
				take := decimal.Min(qty, open[i].remaining)
				cost = cost.Add(take.Mul(open[i].unitCost))
				open[i].remaining = open[i].remaining.Sub(take)
				qty = qty.Sub(take)
			}
			snap.Apply(line.SignedQty, cost.Neg(), snap.UpdatedAt)
			continue
		}
		open = append(open, replayLot{remaining: line.SignedQty, unitCost: line.UnitCost})
		snap.Apply(line.SignedQty, line.SignedQty.Mul(line.UnitCost), snap.UpdatedAt)
	}
	return snap, nil
}

func validatePost(in PostInput) error {
	if in.Kind != entity.DocReceipt && in.Kind != entity.DocIssue {
		return fmt.Errorf("%w: unknown document kind %q", domain.ErrValidation, in.Kind)
	}
	if in.WarehouseID == "" || len(in.Lines) == 0 {
		return domain.ErrValidation
	}
	for _, line := range in.Lines {
		if line.ProductID == "" || line.Quantity.LessThanOrEqual(decimal.Zero) {
			return domain.ErrValidation
		}
		if in.Kind == entity.DocReceipt && line.UnitCost.IsNegative() {
			return domain.ErrValidation
		}
	}
	return nil
}

func entityDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
