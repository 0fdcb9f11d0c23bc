package planning_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixteenfood/qlsx/internal/application/costing"
	"github.com/sixteenfood/qlsx/internal/application/inventory"
	appplanning "github.com/sixteenfood/qlsx/internal/application/planning"
	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/bom"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/infrastructure/events"
	"github.com/sixteenfood/qlsx/internal/infrastructure/memory"
	"github.com/sixteenfood/qlsx/pkg/logger"
)

type execFixture struct {
	store  *memory.Store
	ledger *inventory.Ledger
	uc     *appplanning.ExecutionUseCase
}

func newExecFixture(t *testing.T) *execFixture {
	t.Helper()
	store := memory.NewStore(time.Second)
	registry := bom.NewRegistry(store.BOMs(), store.Products())
	recorder := events.NewRecorder(logger.Nop())
	ledger := inventory.NewLedger(
		memory.NewTxRunner(store), store.Snapshots(), store.Documents(),
		memory.NewReservationStore(), recorder, logger.Nop(), inventory.Config{},
	)
	costs := costing.NewService(registry, store.Products())
	uc := appplanning.NewExecutionUseCase(
		store.Orders(), store.Products(), store.Warehouses(),
		registry, ledger, costs, memory.NewTxRunner(store), logger.Nop(),
	)
	return &execFixture{store: store, ledger: ledger, uc: uc}
}

func (f *execFixture) addProduct(t *testing.T, p *entity.Product) *entity.Product {
	t.Helper()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = entity.ProductActive
	}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func (f *execFixture) addWarehouse(t *testing.T, code, whType string) *entity.Warehouse {
	t.Helper()
	w := &entity.Warehouse{ID: uuid.New().String(), Code: code, Name: code, Type: whType}
	require.NoError(t, f.store.Warehouses().Create(context.Background(), w))
	return w
}

func TestCreateManual_BuildsOrderAndCommitsPlan(t *testing.T) {
	f := newExecFixture(t)
	ctx := context.Background()
	bread := f.addProduct(t, &entity.Product{Code: "TP-BANHMI", Name: "bread", Group: entity.GroupFinished, MainUOM: "cai"})
	flour := f.addProduct(t, &entity.Product{Code: "NVL-BOTMI", Name: "flour", Group: entity.GroupRawMaterial, MainUOM: "kg"})
	require.NoError(t, f.store.BOMs().AddEntry(ctx, &entity.BOMEntry{
		ID:          uuid.New().String(),
		ParentID:    bread.ID,
		ComponentID: flour.ID,
		Quantity:    decimal.NewFromFloat(0.5),
		UOM:         "kg",
	}))

	order, err := f.uc.CreateManual(ctx, bread.ID, day1, decimal.NewFromInt(80), "rush job")
	require.NoError(t, err)

	assert.Equal(t, "LSX-20250602-001", order.BusinessID)
	assert.Equal(t, entity.OrderNew, order.Status)
	assert.Equal(t, "rush job", order.Note)
	require.Len(t, order.Lines, 1)
	assert.True(t, order.Lines[0].PlannedQty.Equal(decimal.NewFromInt(40)))

	plan, err := f.store.PlanDays().GetForUpdate(ctx, bread.ID, day1)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.True(t, plan.CommittedQty.Equal(decimal.NewFromInt(80)),
		"a manual order still counts against the day's committed quantity")
}

func TestCreateManual_RawMaterialRejected(t *testing.T) {
	f := newExecFixture(t)
	flour := f.addProduct(t, &entity.Product{Code: "NVL-BOTMI", Name: "flour", Group: entity.GroupRawMaterial, MainUOM: "kg"})

	_, err := f.uc.CreateManual(context.Background(), flour.ID, day1, decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, domain.ErrValidation, "raw materials are bought, not produced")
}

func TestComplete_RecordsActualsAndVariance(t *testing.T) {
	f := newExecFixture(t)
	ctx := context.Background()
	bread := f.addProduct(t, &entity.Product{Code: "TP-BANHMI", Name: "bread", Group: entity.GroupFinished, MainUOM: "cai"})
	flour := f.addProduct(t, &entity.Product{Code: "NVL-BOTMI", Name: "flour", Group: entity.GroupRawMaterial, MainUOM: "kg"})
	require.NoError(t, f.store.BOMs().AddEntry(ctx, &entity.BOMEntry{
		ID:          uuid.New().String(),
		ParentID:    bread.ID,
		ComponentID: flour.ID,
		Quantity:    decimal.NewFromFloat(0.5),
		UOM:         "kg",
	}))
	order, err := f.uc.CreateManual(ctx, bread.ID, day1, decimal.NewFromInt(100), "")
	require.NoError(t, err)

	_, err = f.uc.RecordProgress(ctx, order.ID, decimal.NewFromInt(60))
	require.NoError(t, err)

	completed, err := f.uc.Complete(ctx, order.ID, decimal.NewFromInt(97), []appplanning.LineActual{
		{ProductID: flour.ID, ActualQty: decimal.NewFromInt(52), ActualLoss: decimal.NewFromInt(2)},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.OrderCompleted, completed.Status)
	assert.True(t, completed.ExpectedDiffQty.Equal(decimal.NewFromInt(-3)))
	require.Len(t, completed.Lines, 1)
	assert.True(t, completed.Lines[0].ActualQty.Equal(decimal.NewFromInt(52)))
	assert.True(t, completed.Lines[0].ActualLoss.Equal(decimal.NewFromInt(2)))
}

func TestStockFinished_PostsReceiptIntoTierWarehouse(t *testing.T) {
	f := newExecFixture(t)
	ctx := context.Background()
	bread := f.addProduct(t, &entity.Product{
		Code: "TP-BANHMI", Name: "bread", Group: entity.GroupFinished,
		MainUOM: "cai", ShelfLifeDays: 3, CostPrice: decimal.NewFromInt(15),
	})
	wh := f.addWarehouse(t, "K-TP", entity.WarehouseFinished)

	order, err := f.uc.CreateManual(ctx, bread.ID, day1, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	_, err = f.uc.Complete(ctx, order.ID, decimal.NewFromInt(95), nil)
	require.NoError(t, err)

	doc, err := f.uc.StockFinished(ctx, order.ID, "")
	require.NoError(t, err)

	assert.Equal(t, wh.ID, doc.WarehouseID, "empty warehouse resolves to the tier's warehouse")
	require.Len(t, doc.Lines, 1)
	assert.True(t, doc.Lines[0].Quantity.Equal(decimal.NewFromInt(95)),
		"the produced quantity is stocked, not the planned one")
	assert.True(t, doc.Lines[0].UnitCost.Equal(decimal.NewFromInt(15)))
	require.NotNil(t, doc.Lines[0].ExpDate)
	assert.True(t, doc.Lines[0].ExpDate.Equal(day1.AddDate(0, 0, 3)))

	stored, err := f.store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStocked, stored.Status)

	snap, err := f.ledger.SnapshotOf(ctx, bread.ID, wh.ID)
	require.NoError(t, err)
	assert.True(t, snap.CurrentQty.Equal(decimal.NewFromInt(95)))

	_, err = f.uc.StockFinished(ctx, order.ID, "")
	var transition *domain.InvalidStateTransitionError
	assert.ErrorAs(t, err, &transition, "an order stocks once")
}

func TestStockFinished_RequiresCompletion(t *testing.T) {
	f := newExecFixture(t)
	ctx := context.Background()
	bread := f.addProduct(t, &entity.Product{Code: "TP-BANHMI", Name: "bread", Group: entity.GroupFinished, MainUOM: "cai"})
	f.addWarehouse(t, "K-TP", entity.WarehouseFinished)

	order, err := f.uc.CreateManual(ctx, bread.ID, day1, decimal.NewFromInt(100), "")
	require.NoError(t, err)

	_, err = f.uc.StockFinished(ctx, order.ID, "")
	var transition *domain.InvalidStateTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestIssueMaterials_AggregatesAcrossOrders(t *testing.T) {
	f := newExecFixture(t)
	ctx := context.Background()
	bread := f.addProduct(t, &entity.Product{Code: "TP-BANHMI", Name: "bread", Group: entity.GroupFinished, MainUOM: "cai"})
	cake := f.addProduct(t, &entity.Product{Code: "TP-BANHBONG", Name: "sponge cake", Group: entity.GroupFinished, MainUOM: "cai"})
	flour := f.addProduct(t, &entity.Product{Code: "NVL-BOTMI", Name: "flour", Group: entity.GroupRawMaterial, MainUOM: "kg"})
	for _, parent := range []*entity.Product{bread, cake} {
		require.NoError(t, f.store.BOMs().AddEntry(ctx, &entity.BOMEntry{
			ID:          uuid.New().String(),
			ParentID:    parent.ID,
			ComponentID: flour.ID,
			Quantity:    decimal.NewFromFloat(0.5),
			UOM:         "kg",
		}))
	}
	whNVL := f.addWarehouse(t, "K-NVL", entity.WarehouseRawMaterial)
	_, err := f.ledger.Post(ctx, inventory.PostInput{
		Kind:        entity.DocReceipt,
		WarehouseID: whNVL.ID,
		PostingDate: day1,
		Lines: []inventory.PostLine{{
			ProductID: flour.ID, ProductName: flour.Name, UOM: "kg",
			Quantity: decimal.NewFromInt(200), UnitCost: decimal.NewFromInt(12),
		}},
	})
	require.NoError(t, err)

	_, err = f.uc.CreateManual(ctx, bread.ID, day1, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	_, err = f.uc.CreateManual(ctx, cake.ID, day1, decimal.NewFromInt(60), "")
	require.NoError(t, err)

	doc, err := f.uc.IssueMaterials(ctx, day1, whNVL.ID)
	require.NoError(t, err)

	require.Len(t, doc.Lines, 1, "the same material across orders issues as one line")
	assert.True(t, doc.Lines[0].Quantity.Equal(decimal.NewFromInt(80)),
		"100*0.5 + 60*0.5 = 80 kg, got %s", doc.Lines[0].Quantity)

	snap, err := f.ledger.SnapshotOf(ctx, flour.ID, whNVL.ID)
	require.NoError(t, err)
	assert.True(t, snap.CurrentQty.Equal(decimal.NewFromInt(120)))
}

func TestIssueMaterials_NoOrdersOnDate(t *testing.T) {
	f := newExecFixture(t)
	wh := f.addWarehouse(t, "K-NVL", entity.WarehouseRawMaterial)

	_, err := f.uc.IssueMaterials(context.Background(), day1, wh.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordProgress_PositiveQuantityOnly(t *testing.T) {
	f := newExecFixture(t)
	_, err := f.uc.RecordProgress(context.Background(), "any", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
