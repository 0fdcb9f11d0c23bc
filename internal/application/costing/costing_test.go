package costing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixteenfood/qlsx/internal/application/costing"
	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/bom"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/infrastructure/memory"
)

var asOf = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	svc   *costing.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(time.Second)
	registry := bom.NewRegistry(store.BOMs(), store.Products())
	return &fixture{store: store, svc: costing.NewService(registry, store.Products())}
}

func (f *fixture) product(t *testing.T, code, group string, costPrice float64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      code,
		Group:     group,
		MainUOM:   "kg",
		CostPrice: decimal.NewFromFloat(costPrice),
		Status:    entity.ProductActive,
	}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) entry(t *testing.T, parent, component *entity.Product, qty float64) {
	t.Helper()
	require.NoError(t, f.store.BOMs().AddEntry(context.Background(), &entity.BOMEntry{
		ID:          uuid.New().String(),
		ParentID:    parent.ID,
		ComponentID: component.ID,
		Quantity:    decimal.NewFromFloat(qty),
		UOM:         "kg",
	}))
}

func TestUnitCost_NoBOMUsesCatalogPrice(t *testing.T) {
	f := newFixture(t)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, 12)

	b, err := f.svc.UnitCost(context.Background(), flour.ID, asOf)
	require.NoError(t, err)
	assert.True(t, b.TotalCost.Equal(decimal.NewFromInt(12)))
	assert.True(t, b.LaborCost.IsZero())
}

func TestUnitCost_MaterialsAndLabor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, 12)
	f.entry(t, bread, flour, 0.5)
	require.NoError(t, f.store.BOMs().AddLabor(ctx, &entity.LaborEntry{
		ID:              uuid.New().String(),
		ProductID:       bread.ID,
		LaborType:       "baking",
		DurationMinutes: 30,
		UnitCost:        decimal.NewFromInt(60), // hourly rate
	}))

	b, err := f.svc.UnitCost(ctx, bread.ID, asOf)
	require.NoError(t, err)

	assert.True(t, b.MaterialCost.Equal(decimal.NewFromInt(6)), "0.5 kg at 12, got %s", b.MaterialCost)
	assert.True(t, b.LaborCost.Equal(decimal.NewFromInt(30)), "30 min at 60/h, got %s", b.LaborCost)
	assert.True(t, b.TotalCost.Equal(decimal.NewFromInt(36)))
}

func TestUnitCost_NegotiatedEntryCostWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, 12)
	negotiated := decimal.NewFromInt(10)
	require.NoError(t, f.store.BOMs().AddEntry(ctx, &entity.BOMEntry{
		ID:          uuid.New().String(),
		ParentID:    bread.ID,
		ComponentID: flour.ID,
		Quantity:    decimal.NewFromInt(1),
		UOM:         "kg",
		Cost:        &negotiated,
	}))

	b, err := f.svc.UnitCost(ctx, bread.ID, asOf)
	require.NoError(t, err)
	assert.True(t, b.MaterialCost.Equal(decimal.NewFromInt(10)))
}

func TestUnitCost_RecursesThroughSemiProducts(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, 0)
	dough := f.product(t, "BTP-BOTTRON", entity.GroupSemiProduct, 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, 12)
	f.entry(t, bread, flour, 0.5)
	f.entry(t, bread, dough, 0.2)
	f.entry(t, dough, flour, 0.3)

	b, err := f.svc.UnitCost(context.Background(), bread.ID, asOf)
	require.NoError(t, err)

	// 0.5*12 direct plus 0.2 * (0.3*12) through the dough.
	assert.True(t, b.MaterialCost.Equal(decimal.NewFromFloat(6.72)), "got %s", b.MaterialCost)
}

func TestUnitCost_CycleFails(t *testing.T) {
	f := newFixture(t)
	semiA := f.product(t, "BTP-A", entity.GroupSemiProduct, 0)
	semiB := f.product(t, "BTP-B", entity.GroupSemiProduct, 0)
	f.entry(t, semiA, semiB, 1)
	f.entry(t, semiB, semiA, 1)

	_, err := f.svc.UnitCost(context.Background(), semiA.ID, asOf)

	var cyclic *domain.CyclicBOMError
	assert.ErrorAs(t, err, &cyclic)
}

func TestOrderCost(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, 12)
	f.entry(t, bread, flour, 0.5)

	order := &entity.ProductionOrder{ProductID: bread.ID, PlannedQty: decimal.NewFromInt(100)}
	total, err := f.svc.OrderCost(context.Background(), order, asOf)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(600)))
}
