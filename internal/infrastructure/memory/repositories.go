package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

// Interface compliance.
var (
	_ repository.ProductRepository         = (*productRepository)(nil)
	_ repository.WarehouseRepository       = (*warehouseRepository)(nil)
	_ repository.BOMRepository             = (*bomRepository)(nil)
	_ repository.SalesLineRepository       = (*salesLineRepository)(nil)
	_ repository.ProductionOrderRepository = (*orderRepository)(nil)
	_ repository.PlanDayRepository         = (*planDayRepository)(nil)
	_ repository.StockDocumentRepository   = (*documentRepository)(nil)
	_ repository.StockLotRepository        = (*lotRepository)(nil)
	_ repository.SnapshotRepository        = (*snapshotRepository)(nil)
	_ repository.StockTakingRepository     = (*stocktakingRepository)(nil)
)

type base struct {
	store  *Store
	locked bool
}

// masterBase guards master data with its own RWMutex so reads keep working
// inside a transaction that holds the store semaphore.
type masterBase struct {
	store *Store
}

func (b *masterBase) read() func() {
	b.store.mu.RLock()
	return b.store.mu.RUnlock
}

func (b *masterBase) write() func() {
	b.store.mu.Lock()
	return b.store.mu.Unlock
}

// enter serializes the operation unless a surrounding transaction already
// holds the semaphore.
func (b *base) enter(ctx context.Context) (func(), error) {
	if b.locked {
		return func() {}, nil
	}
	if err := b.store.acquire(ctx); err != nil {
		return nil, err
	}
	return b.store.release, nil
}

// ── Products ────────────────────────────────────────────────────────────────

type productRepository struct{ masterBase }

func (r *productRepository) Create(ctx context.Context, p *entity.Product) error {
	defer r.write()()
	if _, exists := r.store.productCodes[p.Code]; exists {
		return fmt.Errorf("%w: product code %s", domain.ErrDuplicate, p.Code)
	}
	cp := *p
	r.store.products[p.ID] = &cp
	r.store.productCodes[p.Code] = p.ID
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *entity.Product) error {
	defer r.write()()
	if _, ok := r.store.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.store.products[p.ID] = &cp
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	defer r.read()()
	p, ok := r.store.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (r *productRepository) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	defer r.read()()
	id, ok := r.store.productCodes[code]
	if !ok {
		return nil, fmt.Errorf("%w: product code %s", domain.ErrNotFound, code)
	}
	cp := *r.store.products[id]
	return &cp, nil
}

func (r *productRepository) ListByGroup(ctx context.Context, group string) ([]entity.Product, error) {
	defer r.read()()
	var out []entity.Product
	for _, p := range r.store.products {
		if p.Group == group {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// ── Warehouses ──────────────────────────────────────────────────────────────

type warehouseRepository struct{ masterBase }

func (r *warehouseRepository) Create(ctx context.Context, w *entity.Warehouse) error {
	defer r.write()()
	for _, existing := range r.store.warehouses {
		if existing.Code == w.Code {
			return fmt.Errorf("%w: warehouse code %s", domain.ErrDuplicate, w.Code)
		}
	}
	cp := *w
	r.store.warehouses[w.ID] = &cp
	return nil
}

func (r *warehouseRepository) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	defer r.read()()
	w, ok := r.store.warehouses[id]
	if !ok {
		return nil, fmt.Errorf("%w: warehouse %s", domain.ErrNotFound, id)
	}
	cp := *w
	return &cp, nil
}

func (r *warehouseRepository) GetByCode(ctx context.Context, code string) (*entity.Warehouse, error) {
	defer r.read()()
	for _, w := range r.store.warehouses {
		if w.Code == code {
			cp := *w
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: warehouse code %s", domain.ErrNotFound, code)
}

func (r *warehouseRepository) ListByType(ctx context.Context, warehouseType string) ([]entity.Warehouse, error) {
	defer r.read()()
	var out []entity.Warehouse
	for _, w := range r.store.warehouses {
		if w.Type == warehouseType {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// ── BOM ─────────────────────────────────────────────────────────────────────

type bomRepository struct{ masterBase }

func (r *bomRepository) AddEntry(ctx context.Context, e *entity.BOMEntry) error {
	defer r.write()()
	for _, existing := range r.store.bomEntries[e.ParentID] {
		if existing.ComponentID != e.ComponentID {
			continue
		}
		if sameEffectiveDate(existing.EffectiveDate, e.EffectiveDate) {
			return fmt.Errorf("%w: BOM entry %s -> %s at same effective date",
				domain.ErrDuplicate, e.ParentID, e.ComponentID)
		}
	}
	r.store.bomEntries[e.ParentID] = append(r.store.bomEntries[e.ParentID], *e)
	return nil
}

func (r *bomRepository) AddLabor(ctx context.Context, l *entity.LaborEntry) error {
	defer r.write()()
	r.store.laborEntries[l.ProductID] = append(r.store.laborEntries[l.ProductID], *l)
	return nil
}

func (r *bomRepository) EntriesByParent(ctx context.Context, parentID string) ([]entity.BOMEntry, error) {
	defer r.read()()
	return append([]entity.BOMEntry(nil), r.store.bomEntries[parentID]...), nil
}

func (r *bomRepository) LaborByProduct(ctx context.Context, productID string) ([]entity.LaborEntry, error) {
	defer r.read()()
	return append([]entity.LaborEntry(nil), r.store.laborEntries[productID]...), nil
}

func sameEffectiveDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ── Sales lines ─────────────────────────────────────────────────────────────

type salesLineRepository struct{ masterBase }

func (r *salesLineRepository) DueInRange(ctx context.Context, from, to time.Time) ([]entity.SalesLine, error) {
	defer r.read()()
	var out []entity.SalesLine
	for _, line := range r.store.salesLines {
		if line.DueDate.Before(from) || line.DueDate.After(to) {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

// ── Production orders ───────────────────────────────────────────────────────

type orderRepository struct{ base }

func (r *orderRepository) Create(ctx context.Context, o *entity.ProductionOrder) error {
	done, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, exists := r.store.orders[o.ID]; exists {
		return domain.ErrDuplicate
	}
	r.store.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *orderRepository) Update(ctx context.Context, o *entity.ProductionOrder) error {
	done, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := r.store.orders[o.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*entity.ProductionOrder, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: production order %s", domain.ErrNotFound, id)
	}
	return cloneOrder(o), nil
}

func (r *orderRepository) ListByDate(ctx context.Context, date time.Time) ([]entity.ProductionOrder, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	var out []entity.ProductionOrder
	for _, o := range r.store.orders {
		if o.ProductionDate.Equal(date) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessID < out[j].BusinessID })
	return out, nil
}

func (r *orderRepository) CountByDate(ctx context.Context, date time.Time) (int, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return 0, err
	}
	defer done()
	n := 0
	for _, o := range r.store.orders {
		if o.ProductionDate.Equal(date) {
			n++
		}
	}
	return n, nil
}

// ── Plan days ───────────────────────────────────────────────────────────────

type planDayRepository struct{ base }

func (r *planDayRepository) GetForUpdate(ctx context.Context, productID string, date time.Time) (*entity.ProductionPlanDay, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	p, ok := r.store.planDays[planKey(productID, date)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *planDayRepository) Upsert(ctx context.Context, p *entity.ProductionPlanDay) error {
	done, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer done()
	cp := *p
	r.store.planDays[planKey(p.ProductID, p.ProductionDate)] = &cp
	return nil
}

// ── Stock documents ─────────────────────────────────────────────────────────

type documentRepository struct{ base }

func (r *documentRepository) Create(ctx context.Context, doc *entity.StockDocument) error {
	done, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, exists := r.store.documents[doc.ID]; exists {
		return domain.ErrDuplicate
	}
	r.store.documents[doc.ID] = cloneDocument(doc)
	r.store.docOrder = append(r.store.docOrder, doc.ID)
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*entity.StockDocument, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	doc, ok := r.store.documents[id]
	if !ok {
		return nil, fmt.Errorf("%w: stock document %s", domain.ErrNotFound, id)
	}
	return cloneDocument(doc), nil
}

func (r *documentRepository) ListByKey(ctx context.Context, productID, warehouseID string) ([]entity.StockDocumentLine, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	var out []entity.StockDocumentLine
	for _, id := range r.store.docOrder {
		doc := r.store.documents[id]
		if doc.WarehouseID != warehouseID {
			continue
		}
		for _, line := range doc.Lines {
			if line.ProductID == productID {
				out = append(out, line)
			}
		}
	}
	return out, nil
}

func (r *documentRepository) CountByKindAndDate(ctx context.Context, kind string, postingDate time.Time) (int, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return 0, err
	}
	defer done()
	n := 0
	for _, doc := range r.store.documents {
		if doc.Kind == kind && doc.PostingDate.Equal(postingDate) {
			n++
		}
	}
	return n, nil
}

func (r *documentRepository) ExistsReceiptForOrder(ctx context.Context, orderID string) (bool, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return false, err
	}
	defer done()
	for _, doc := range r.store.documents {
		if doc.Kind == entity.DocReceipt && doc.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

// ── Stock lots ──────────────────────────────────────────────────────────────

type lotRepository struct{ base }

func (r *lotRepository) Create(ctx context.Context, lot *entity.StockLot) error {
	done, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer done()
	cp := *lot
	r.store.lots[lot.ID] = &cp
	r.store.lotOrder = append(r.store.lotOrder, lot.ID)
	return nil
}

func (r *lotRepository) UpdateRemaining(ctx context.Context, lotID string, remaining decimal.Decimal) error {
	done, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer done()
	lot, ok := r.store.lots[lotID]
	if !ok {
		return fmt.Errorf("%w: stock lot %s", domain.ErrNotFound, lotID)
	}
	lot.RemainingQty = remaining
	return nil
}

func (r *lotRepository) AvailableForUpdate(ctx context.Context, productID, warehouseID string) ([]entity.StockLot, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	var out []entity.StockLot
	for _, id := range r.store.lotOrder {
		lot := r.store.lots[id]
		if lot.ProductID != productID || lot.WarehouseID != warehouseID {
			continue
		}
		if lot.RemainingQty.LessThanOrEqual(decimal.Zero) {
			continue
		}
		out = append(out, *lot)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PostingDate.Equal(out[j].PostingDate) {
			return out[i].PostingDate.Before(out[j].PostingDate)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

// ── Snapshots ───────────────────────────────────────────────────────────────

type snapshotRepository struct{ base }

func (r *snapshotRepository) Get(ctx context.Context, productID, warehouseID string) (*entity.InventorySnapshot, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return r.get(productID, warehouseID), nil
}

func (r *snapshotRepository) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.InventorySnapshot, error) {
	return r.Get(ctx, productID, warehouseID)
}

func (r *snapshotRepository) get(productID, warehouseID string) *entity.InventorySnapshot {
	if snap, ok := r.store.snapshots[key(productID, warehouseID)]; ok {
		cp := *snap
		return &cp
	}
	return &entity.InventorySnapshot{ProductID: productID, WarehouseID: warehouseID}
}

func (r *snapshotRepository) Upsert(ctx context.Context, s *entity.InventorySnapshot) error {
	done, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer done()
	cp := *s
	r.store.snapshots[key(s.ProductID, s.WarehouseID)] = &cp
	return nil
}

func (r *snapshotRepository) SumByWarehouseType(ctx context.Context, productID, warehouseType string) (decimal.Decimal, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer done()
	total := decimal.Zero
	for _, snap := range r.store.snapshots {
		if snap.ProductID != productID {
			continue
		}
		w, ok := r.store.warehouses[snap.WarehouseID]
		if !ok || w.Type != warehouseType {
			continue
		}
		total = total.Add(snap.CurrentQty)
	}
	return total, nil
}

// ── Stocktakings ────────────────────────────────────────────────────────────

type stocktakingRepository struct{ base }

func (r *stocktakingRepository) Create(ctx context.Context, st *entity.StockTaking) error {
	done, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, exists := r.store.stocktakings[st.ID]; exists {
		return domain.ErrDuplicate
	}
	r.store.stocktakings[st.ID] = cloneStocktaking(st)
	return nil
}

func (r *stocktakingRepository) Update(ctx context.Context, st *entity.StockTaking) error {
	done, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := r.store.stocktakings[st.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.stocktakings[st.ID] = cloneStocktaking(st)
	return nil
}

func (r *stocktakingRepository) GetByID(ctx context.Context, id string) (*entity.StockTaking, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	st, ok := r.store.stocktakings[id]
	if !ok {
		return nil, fmt.Errorf("%w: stocktaking %s", domain.ErrNotFound, id)
	}
	return cloneStocktaking(st), nil
}

func (r *stocktakingRepository) CountByDate(ctx context.Context, date time.Time) (int, error) {
	done, err := r.enter(ctx)
	if err != nil {
		return 0, err
	}
	defer done()
	n := 0
	for _, st := range r.store.stocktakings {
		if st.CountDate.Equal(date) {
			n++
		}
	}
	return n, nil
}
