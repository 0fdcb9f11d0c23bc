package bom_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/bom"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/infrastructure/memory"
)

var asOf = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	registry *bom.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(time.Second)
	return &fixture{
		store:    store,
		registry: bom.NewRegistry(store.BOMs(), store.Products()),
	}
}

func (f *fixture) product(t *testing.T, code, group, mainUOM string, costPrice float64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      code,
		Group:     group,
		MainUOM:   mainUOM,
		CostPrice: decimal.NewFromFloat(costPrice),
		Status:    entity.ProductActive,
	}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) entry(t *testing.T, parent, component *entity.Product, qty float64, uom string, effective *time.Time) {
	t.Helper()
	require.NoError(t, f.store.BOMs().AddEntry(context.Background(), &entity.BOMEntry{
		ID:            uuid.New().String(),
		ParentID:      parent.ID,
		ComponentID:   component.ID,
		Quantity:      decimal.NewFromFloat(qty),
		UOM:           uom,
		EffectiveDate: effective,
	}))
}

// Explosion reference case: bread uses 0.5 kg of flour directly plus 0.2 of a
// dough semi-product that itself uses 0.3 kg of flour per unit. For 100 units
// the flour requirement is 100*0.5 + 100*0.2*0.3 = 56 kg, accumulated across
// both paths.
func TestExplode_AccumulatesSharedLeafAcrossPaths(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, "cai", 0)
	dough := f.product(t, "BTP-BOTTRON", entity.GroupSemiProduct, "kg", 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, "kg", 12.5)

	f.entry(t, bread, flour, 0.5, "kg", nil)
	f.entry(t, bread, dough, 0.2, "kg", nil)
	f.entry(t, dough, flour, 0.3, "kg", nil)

	reqs, err := f.registry.Explode(context.Background(), bread.ID, decimal.NewFromInt(100), asOf)

	require.NoError(t, err)
	require.Len(t, reqs, 1, "flour reached via two paths must stay one requirement")
	assert.Equal(t, flour.ID, reqs[0].ProductID)
	assert.True(t, reqs[0].Quantity.Equal(decimal.NewFromInt(56)),
		"expected 56 kg of flour, got %s", reqs[0].Quantity)
	assert.Equal(t, "kg", reqs[0].UOM)
}

func TestExplode_SemiWithoutOwnBOMIssuedAsIs(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, "cai", 0)
	butter := f.product(t, "BTP-BOLEN", entity.GroupSemiProduct, "kg", 40)
	f.entry(t, bread, butter, 0.1, "kg", nil)

	reqs, err := f.registry.Explode(context.Background(), bread.ID, decimal.NewFromInt(50), asOf)

	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, butter.ID, reqs[0].ProductID, "a semi-product with no recipe comes from stock")
	assert.True(t, reqs[0].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestExplode_CycleFailsWithPath(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, "cai", 0)
	semiA := f.product(t, "BTP-A", entity.GroupSemiProduct, "kg", 0)
	semiB := f.product(t, "BTP-B", entity.GroupSemiProduct, "kg", 0)

	f.entry(t, bread, semiA, 1, "kg", nil)
	f.entry(t, semiA, semiB, 1, "kg", nil)
	f.entry(t, semiB, semiA, 1, "kg", nil)

	_, err := f.registry.Explode(context.Background(), bread.ID, decimal.NewFromInt(10), asOf)

	var cyclic *domain.CyclicBOMError
	require.ErrorAs(t, err, &cyclic)
	assert.Contains(t, cyclic.Path, "BTP-A")
	assert.Contains(t, cyclic.Path, "BTP-B")
}

func TestExplode_RoundsFinalAggregateOnly(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, "cai", 0)
	salt := f.product(t, "NVL-MUOI", entity.GroupRawMaterial, "kg", 0)
	f.entry(t, bread, salt, 0.0004, "kg", nil)

	reqs, err := f.registry.Explode(context.Background(), bread.ID, decimal.NewFromInt(10), asOf)

	require.NoError(t, err)
	require.Len(t, reqs, 1)
	// 10 * 0.0004 = 0.004, already at kg precision (3 dp rounds half up).
	assert.True(t, reqs[0].Quantity.Equal(decimal.NewFromFloat(0.004)),
		"got %s", reqs[0].Quantity)
}

func TestResolve_LatestEffectiveDateWins(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, "cai", 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, "kg", 0)

	older := asOf.AddDate(0, 0, -30)
	newer := asOf.AddDate(0, 0, -1)
	future := asOf.AddDate(0, 0, 10)
	f.entry(t, bread, flour, 0.5, "kg", &older)
	f.entry(t, bread, flour, 0.6, "kg", &newer)
	f.entry(t, bread, flour, 0.9, "kg", &future)

	resolved, err := f.registry.Resolve(context.Background(), bread.ID, asOf)

	require.NoError(t, err)
	require.Len(t, resolved.Materials, 1)
	assert.True(t, resolved.Materials[0].Quantity.Equal(decimal.NewFromFloat(0.6)),
		"the latest entry not past the query date must win, got %s", resolved.Materials[0].Quantity)
}

func TestResolve_UndatedEntryLosesToDated(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, "cai", 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, "kg", 0)

	dated := asOf.AddDate(0, 0, -5)
	f.entry(t, bread, flour, 0.5, "kg", nil)
	f.entry(t, bread, flour, 0.7, "kg", &dated)

	resolved, err := f.registry.Resolve(context.Background(), bread.ID, asOf)

	require.NoError(t, err)
	require.Len(t, resolved.Materials, 1)
	assert.True(t, resolved.Materials[0].Quantity.Equal(decimal.NewFromFloat(0.7)))
}

func TestResolve_UndatedEntryAppliesBeforeAnyDated(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, "cai", 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, "kg", 0)

	future := asOf.AddDate(0, 0, 5)
	f.entry(t, bread, flour, 0.5, "kg", nil)
	f.entry(t, bread, flour, 0.7, "kg", &future)

	resolved, err := f.registry.Resolve(context.Background(), bread.ID, asOf)

	require.NoError(t, err)
	require.Len(t, resolved.Materials, 1)
	assert.True(t, resolved.Materials[0].Quantity.Equal(decimal.NewFromFloat(0.5)),
		"a not-yet-effective entry must not shadow the undated one")
}

func TestResolve_ConvertsToComponentMainUOM(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, "cai", 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, "kg", 0)
	rate := decimal.NewFromInt(25)
	flour.SecondaryUOM = "bao"
	flour.ConversionRate = &rate
	require.NoError(t, f.store.Products().Update(context.Background(), flour))

	f.entry(t, bread, flour, 2, "bao", nil)

	resolved, err := f.registry.Resolve(context.Background(), bread.ID, asOf)

	require.NoError(t, err)
	require.Len(t, resolved.Materials, 1)
	assert.True(t, resolved.Materials[0].Quantity.Equal(decimal.NewFromInt(50)),
		"2 bags at 25 kg/bag must resolve to 50 kg, got %s", resolved.Materials[0].Quantity)
	assert.Equal(t, "kg", resolved.Materials[0].UOM)
}

func TestResolve_MissingConversionFactorFails(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, "cai", 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, "kg", 0)
	f.entry(t, bread, flour, 2, "bao", nil)

	_, err := f.registry.Resolve(context.Background(), bread.ID, asOf)

	var conv *domain.UnitConversionError
	require.ErrorAs(t, err, &conv)
	assert.Equal(t, "NVL-BOTMI", conv.ProductCode)
}

func TestAddEntry_DuplicateEffectiveDateRejected(t *testing.T) {
	f := newFixture(t)
	bread := f.product(t, "TP-BANHMI", entity.GroupFinished, "cai", 0)
	flour := f.product(t, "NVL-BOTMI", entity.GroupRawMaterial, "kg", 0)

	f.entry(t, bread, flour, 0.5, "kg", nil)
	err := f.store.BOMs().AddEntry(context.Background(), &entity.BOMEntry{
		ID:          uuid.New().String(),
		ParentID:    bread.ID,
		ComponentID: flour.ID,
		Quantity:    decimal.NewFromFloat(0.6),
		UOM:         "kg",
	})

	assert.ErrorIs(t, err, domain.ErrDuplicate,
		"two entries for one pair at the same effective date are ambiguous")
}
