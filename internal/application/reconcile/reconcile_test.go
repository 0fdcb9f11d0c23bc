package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixteenfood/qlsx/internal/application/inventory"
	"github.com/sixteenfood/qlsx/internal/application/reconcile"
	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/event"
	"github.com/sixteenfood/qlsx/internal/infrastructure/events"
	"github.com/sixteenfood/qlsx/internal/infrastructure/memory"
	"github.com/sixteenfood/qlsx/pkg/logger"
)

var countDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	ledger   *inventory.Ledger
	recorder *events.Recorder
	uc       *reconcile.UseCase
	wh       *entity.Warehouse
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(time.Second)
	recorder := events.NewRecorder(logger.Nop())
	ledger := inventory.NewLedger(
		memory.NewTxRunner(store), store.Snapshots(), store.Documents(),
		memory.NewReservationStore(), recorder, logger.Nop(), inventory.Config{},
	)
	uc := reconcile.NewUseCase(
		store.Stocktakings(), store.Snapshots(), store.Products(),
		ledger, recorder, logger.Nop(),
	)
	wh := &entity.Warehouse{ID: uuid.New().String(), Code: "K-NVL", Name: "raw materials", Type: entity.WarehouseRawMaterial}
	require.NoError(t, store.Warehouses().Create(context.Background(), wh))
	return &fixture{store: store, ledger: ledger, recorder: recorder, uc: uc, wh: wh}
}

func (f *fixture) product(t *testing.T, code string, costPrice int64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      code,
		Group:     entity.GroupRawMaterial,
		MainUOM:   "kg",
		CostPrice: decimal.NewFromInt(costPrice),
		Status:    entity.ProductActive,
	}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) seedStock(t *testing.T, p *entity.Product, qty, unitCost int64) {
	t.Helper()
	_, err := f.ledger.Post(context.Background(), inventory.PostInput{
		Kind:        entity.DocReceipt,
		WarehouseID: f.wh.ID,
		PostingDate: countDate,
		Lines: []inventory.PostLine{{
			ProductID: p.ID, ProductName: p.Name, UOM: "kg",
			Quantity: decimal.NewFromInt(qty), UnitCost: decimal.NewFromInt(unitCost),
		}},
	})
	require.NoError(t, err)
}

func TestCreate_AssignsDailyCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Create(ctx, f.wh.ID, countDate)
	require.NoError(t, err)
	assert.Equal(t, "KK20250602-001", first.Code)
	assert.Equal(t, entity.StocktakingDraft, first.Status)

	second, err := f.uc.Create(ctx, f.wh.ID, countDate)
	require.NoError(t, err)
	assert.Equal(t, "KK20250602-002", second.Code)
}

func TestReconcile_ShortagePostsOneIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.product(t, "NVL-BOTMI", 12)
	f.seedStock(t, flour, 120, 12)

	st, err := f.uc.Create(ctx, f.wh.ID, countDate)
	require.NoError(t, err)
	_, err = f.uc.RecordCount(ctx, st.ID, flour.ID, decimal.NewFromInt(110))
	require.NoError(t, err)
	_, err = f.uc.Lock(ctx, st.ID)
	require.NoError(t, err)

	result, err := f.uc.Reconcile(ctx, st.ID)
	require.NoError(t, err)

	require.Len(t, result.Issues, 1)
	assert.Empty(t, result.Receipts)
	require.Len(t, result.Issues[0].Lines, 1)
	assert.True(t, result.Issues[0].Lines[0].Quantity.Equal(decimal.NewFromInt(10)),
		"book 120 counted 110 adjusts by 10")

	snap, err := f.ledger.SnapshotOf(ctx, flour.ID, f.wh.ID)
	require.NoError(t, err)
	assert.True(t, snap.CurrentQty.Equal(decimal.NewFromInt(110)),
		"the ledger must match the count after reconciling")

	posted := f.recorder.ByType(event.TypeAdjustmentPosted)
	require.Len(t, posted, 1)
	assert.True(t, posted[0].Quantity.Equal(decimal.NewFromInt(-10)))
}

func TestReconcile_SurplusValuedAtCostPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.product(t, "NVL-BOTMI", 12)
	f.seedStock(t, flour, 100, 10)

	st, err := f.uc.Create(ctx, f.wh.ID, countDate)
	require.NoError(t, err)
	_, err = f.uc.RecordCount(ctx, st.ID, flour.ID, decimal.NewFromInt(104))
	require.NoError(t, err)
	_, err = f.uc.Lock(ctx, st.ID)
	require.NoError(t, err)

	result, err := f.uc.Reconcile(ctx, st.ID)
	require.NoError(t, err)

	require.Len(t, result.Receipts, 1)
	require.Len(t, result.Receipts[0].Lines, 1)
	line := result.Receipts[0].Lines[0]
	assert.True(t, line.Quantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, line.UnitCost.Equal(decimal.NewFromInt(12)),
		"no purchase backs a surplus, so it carries the catalog cost price")
}

func TestReconcile_RerunIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.product(t, "NVL-BOTMI", 12)
	f.seedStock(t, flour, 120, 12)

	st, err := f.uc.Create(ctx, f.wh.ID, countDate)
	require.NoError(t, err)
	_, err = f.uc.RecordCount(ctx, st.ID, flour.ID, decimal.NewFromInt(110))
	require.NoError(t, err)
	_, err = f.uc.Lock(ctx, st.ID)
	require.NoError(t, err)
	_, err = f.uc.Reconcile(ctx, st.ID)
	require.NoError(t, err)

	rerun, err := f.uc.Reconcile(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, rerun.Issues, "already adjusted lines must not post again")
	assert.Empty(t, rerun.Receipts)

	snap, err := f.ledger.SnapshotOf(ctx, flour.ID, f.wh.ID)
	require.NoError(t, err)
	assert.True(t, snap.CurrentQty.Equal(decimal.NewFromInt(110)))
}

func TestReconcile_ZeroDifferenceSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.product(t, "NVL-BOTMI", 12)
	f.seedStock(t, flour, 120, 12)

	st, err := f.uc.Create(ctx, f.wh.ID, countDate)
	require.NoError(t, err)
	_, err = f.uc.RecordCount(ctx, st.ID, flour.ID, decimal.NewFromInt(120))
	require.NoError(t, err)
	_, err = f.uc.Lock(ctx, st.ID)
	require.NoError(t, err)

	result, err := f.uc.Reconcile(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Issues)
	assert.Empty(t, result.Receipts)
}

func TestReconcile_RequiresLockedStocktaking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.uc.Create(ctx, f.wh.ID, countDate)
	require.NoError(t, err)

	_, err = f.uc.Reconcile(ctx, st.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReconcile_ShortageMayDriveBalanceNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.product(t, "NVL-BOTMI", 12)
	f.seedStock(t, flour, 10, 12)

	// Another issue lands between count and reconcile, so the adjustment
	// overshoots what is physically left. The count is still the authority.
	st, err := f.uc.Create(ctx, f.wh.ID, countDate)
	require.NoError(t, err)
	_, err = f.uc.RecordCount(ctx, st.ID, flour.ID, decimal.Zero)
	require.NoError(t, err)
	_, err = f.uc.Lock(ctx, st.ID)
	require.NoError(t, err)

	_, err = f.ledger.Post(ctx, inventory.PostInput{
		Kind:        entity.DocIssue,
		WarehouseID: f.wh.ID,
		PostingDate: countDate,
		Lines: []inventory.PostLine{{
			ProductID: flour.ID, ProductName: flour.Name, UOM: "kg",
			Quantity: decimal.NewFromInt(5),
		}},
	})
	require.NoError(t, err)

	result, err := f.uc.Reconcile(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)

	snap, err := f.ledger.SnapshotOf(ctx, flour.ID, f.wh.ID)
	require.NoError(t, err)
	assert.True(t, snap.CurrentQty.Equal(decimal.NewFromInt(-5)),
		"the locked difference posts in full even past zero")
}

func TestRecordCount_NegativeCountRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, err := f.uc.Create(ctx, f.wh.ID, countDate)
	require.NoError(t, err)

	_, err = f.uc.RecordCount(ctx, st.ID, "p1", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
