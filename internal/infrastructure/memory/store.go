package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
)

// Store is the in-memory backing state shared by the repositories. A single
// semaphore serializes transactions; acquisition respects the context and the
// configured timeout, surfacing domain.ErrLockTimeout.
//
// Used as the test fixture and for dependency-free local runs. Not meant for
// multi-process deployments.
type Store struct {
	sem         chan struct{}
	lockTimeout time.Duration

	// mu guards master data, which is read inside transactions and must not
	// contend with the transaction semaphore.
	mu           sync.RWMutex
	products     map[string]*entity.Product
	productCodes map[string]string // code -> id
	warehouses   map[string]*entity.Warehouse
	bomEntries   map[string][]entity.BOMEntry // parentID -> entries
	laborEntries map[string][]entity.LaborEntry
	salesLines   []entity.SalesLine
	orders       map[string]*entity.ProductionOrder
	planDays     map[string]*entity.ProductionPlanDay // productID|date
	documents    map[string]*entity.StockDocument
	docOrder     []string // creation order of document ids
	lots         map[string]*entity.StockLot
	lotOrder     []string
	snapshots    map[string]*entity.InventorySnapshot // productID|warehouseID
	stocktakings map[string]*entity.StockTaking
}

// NewStore creates an empty store. A non-positive timeout falls back to one
// second.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = time.Second
	}
	return &Store{
		sem:          make(chan struct{}, 1),
		lockTimeout:  lockTimeout,
		products:     make(map[string]*entity.Product),
		productCodes: make(map[string]string),
		warehouses:   make(map[string]*entity.Warehouse),
		bomEntries:   make(map[string][]entity.BOMEntry),
		laborEntries: make(map[string][]entity.LaborEntry),
		orders:       make(map[string]*entity.ProductionOrder),
		planDays:     make(map[string]*entity.ProductionPlanDay),
		documents:    make(map[string]*entity.StockDocument),
		lots:         make(map[string]*entity.StockLot),
		snapshots:    make(map[string]*entity.InventorySnapshot),
		stocktakings: make(map[string]*entity.StockTaking),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.sem
}

func key(productID, warehouseID string) string {
	return productID + "|" + warehouseID
}

func planKey(productID string, date time.Time) string {
	return productID + "|" + date.Format("20060102")
}

// Repositories over the store. Each repository serializes its operations via
// the store semaphore unless it runs inside a transaction, which already
// holds it.

// Products returns the product repository.
func (s *Store) Products() repository.ProductRepository {
	return &productRepository{masterBase{store: s}}
}

// Warehouses returns the warehouse repository.
func (s *Store) Warehouses() repository.WarehouseRepository {
	return &warehouseRepository{masterBase{store: s}}
}

// BOMs returns the BOM repository.
func (s *Store) BOMs() repository.BOMRepository {
	return &bomRepository{masterBase{store: s}}
}

// SalesLines returns the sales-line repository.
func (s *Store) SalesLines() repository.SalesLineRepository {
	return &salesLineRepository{masterBase{store: s}}
}

// Orders returns the production-order repository.
func (s *Store) Orders() repository.ProductionOrderRepository {
	return &orderRepository{base{store: s}}
}

// PlanDays returns the plan-day repository.
func (s *Store) PlanDays() repository.PlanDayRepository {
	return &planDayRepository{base{store: s}}
}

// Documents returns the stock-document repository.
func (s *Store) Documents() repository.StockDocumentRepository {
	return &documentRepository{base{store: s}}
}

// Lots returns the stock-lot repository.
func (s *Store) Lots() repository.StockLotRepository {
	return &lotRepository{base{store: s}}
}

// Snapshots returns the snapshot repository.
func (s *Store) Snapshots() repository.SnapshotRepository {
	return &snapshotRepository{base{store: s}}
}

// Stocktakings returns the stocktaking repository.
func (s *Store) Stocktakings() repository.StockTakingRepository {
	return &stocktakingRepository{base{store: s}}
}

// AddSalesLine seeds confirmed demand; the order subsystem is external.
func (s *Store) AddSalesLine(line entity.SalesLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.salesLines = append(s.salesLines, line)
}

// backup captures the mutable transactional state for rollback.
type backup struct {
	orders    map[string]*entity.ProductionOrder
	planDays  map[string]*entity.ProductionPlanDay
	documents map[string]*entity.StockDocument
	docOrder  []string
	lots      map[string]*entity.StockLot
	lotOrder  []string
	snapshots map[string]*entity.InventorySnapshot
}

func (s *Store) snapshotState() backup {
	b := backup{
		orders:    make(map[string]*entity.ProductionOrder, len(s.orders)),
		planDays:  make(map[string]*entity.ProductionPlanDay, len(s.planDays)),
		documents: make(map[string]*entity.StockDocument, len(s.documents)),
		docOrder:  append([]string(nil), s.docOrder...),
		lots:      make(map[string]*entity.StockLot, len(s.lots)),
		lotOrder:  append([]string(nil), s.lotOrder...),
		snapshots: make(map[string]*entity.InventorySnapshot, len(s.snapshots)),
	}
	for id, o := range s.orders {
		b.orders[id] = cloneOrder(o)
	}
	for k, p := range s.planDays {
		cp := *p
		b.planDays[k] = &cp
	}
	for id, d := range s.documents {
		b.documents[id] = cloneDocument(d)
	}
	for id, l := range s.lots {
		cp := *l
		b.lots[id] = &cp
	}
	for k, sn := range s.snapshots {
		cp := *sn
		b.snapshots[k] = &cp
	}
	return b
}

func (s *Store) restoreState(b backup) {
	s.orders = b.orders
	s.planDays = b.planDays
	s.documents = b.documents
	s.docOrder = b.docOrder
	s.lots = b.lots
	s.lotOrder = b.lotOrder
	s.snapshots = b.snapshots
}

func cloneOrder(o *entity.ProductionOrder) *entity.ProductionOrder {
	cp := *o
	cp.Lines = append([]entity.ProductionOrderLine(nil), o.Lines...)
	return &cp
}

func cloneDocument(d *entity.StockDocument) *entity.StockDocument {
	cp := *d
	cp.Lines = append([]entity.StockDocumentLine(nil), d.Lines...)
	return &cp
}

func cloneStocktaking(st *entity.StockTaking) *entity.StockTaking {
	cp := *st
	cp.Lines = append([]entity.StockTakingLine(nil), st.Lines...)
	return &cp
}
