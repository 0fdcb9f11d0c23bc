package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixteenfood/qlsx/internal/domain"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
	"github.com/sixteenfood/qlsx/internal/domain/repository"
	"github.com/sixteenfood/qlsx/internal/infrastructure/memory"
)

var errBoom = errors.New("boom")

func TestTxRunner_RollbackRestoresState(t *testing.T) {
	store := memory.NewStore(time.Second)
	runner := memory.NewTxRunner(store)
	ctx := context.Background()

	err := runner.Run(ctx, func(
		docs repository.StockDocumentRepository,
		lots repository.StockLotRepository,
		snaps repository.SnapshotRepository,
		orders repository.ProductionOrderRepository,
	) error {
		snap, err := snaps.GetForUpdate(ctx, "flour", "wh1")
		if err != nil {
			return err
		}
		snap.Apply(decimal.NewFromInt(100), decimal.NewFromInt(1000), time.Now())
		if err := snaps.Upsert(ctx, snap); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	snap, err := store.Snapshots().Get(ctx, "flour", "wh1")
	require.NoError(t, err)
	assert.True(t, snap.CurrentQty.IsZero(), "a failed transaction must leave no trace")
}

func TestTxRunner_CommitKeepsState(t *testing.T) {
	store := memory.NewStore(time.Second)
	runner := memory.NewTxRunner(store)
	ctx := context.Background()

	err := runner.Run(ctx, func(
		docs repository.StockDocumentRepository,
		lots repository.StockLotRepository,
		snaps repository.SnapshotRepository,
		orders repository.ProductionOrderRepository,
	) error {
		snap, err := snaps.GetForUpdate(ctx, "flour", "wh1")
		if err != nil {
			return err
		}
		snap.Apply(decimal.NewFromInt(100), decimal.NewFromInt(1000), time.Now())
		return snaps.Upsert(ctx, snap)
	})
	require.NoError(t, err)

	snap, err := store.Snapshots().Get(ctx, "flour", "wh1")
	require.NoError(t, err)
	assert.True(t, snap.CurrentQty.Equal(decimal.NewFromInt(100)))
}

func TestTxRunner_ConcurrentTransactionTimesOut(t *testing.T) {
	store := memory.NewStore(50 * time.Millisecond)
	runner := memory.NewTxRunner(store)
	ctx := context.Background()

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- runner.RunPlanning(ctx, func(
			plans repository.PlanDayRepository,
			orders repository.ProductionOrderRepository,
		) error {
			close(holding)
			<-release
			return nil
		})
	}()

	<-holding
	err := runner.RunPlanning(ctx, func(
		plans repository.PlanDayRepository,
		orders repository.ProductionOrderRepository,
	) error {
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrLockTimeout,
		"a second transaction must fail fast instead of queueing without bound")

	close(release)
	require.NoError(t, <-done)
}

func TestMasterDataReadableInsideTransaction(t *testing.T) {
	store := memory.NewStore(100 * time.Millisecond)
	runner := memory.NewTxRunner(store)
	ctx := context.Background()

	p := &entity.Product{ID: uuid.New().String(), Code: "NVL-BOTMI", Name: "flour", Group: entity.GroupRawMaterial, MainUOM: "kg", Status: entity.ProductActive}
	require.NoError(t, store.Products().Create(ctx, p))

	err := runner.RunPlanning(ctx, func(
		plans repository.PlanDayRepository,
		orders repository.ProductionOrderRepository,
	) error {
		got, err := store.Products().GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if got.Code != p.Code {
			return errors.New("unexpected product")
		}
		return nil
	})
	assert.NoError(t, err, "catalog reads must not contend with the transaction lock")
}

func TestProductRepository_CodeUniqueness(t *testing.T) {
	store := memory.NewStore(time.Second)
	ctx := context.Background()

	p := &entity.Product{ID: uuid.New().String(), Code: "NVL-BOTMI", Name: "flour", Group: entity.GroupRawMaterial, MainUOM: "kg", Status: entity.ProductActive}
	require.NoError(t, store.Products().Create(ctx, p))

	dup := &entity.Product{ID: uuid.New().String(), Code: "NVL-BOTMI", Name: "other", Group: entity.GroupRawMaterial, MainUOM: "kg", Status: entity.ProductActive}
	assert.ErrorIs(t, store.Products().Create(ctx, dup), domain.ErrDuplicate)

	byCode, err := store.Products().GetByCode(ctx, "NVL-BOTMI")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byCode.ID)

	_, err = store.Products().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLotRepository_AvailableOrdering(t *testing.T) {
	store := memory.NewStore(time.Second)
	ctx := context.Background()
	lots := store.Lots()

	older := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	mk := func(id string, date time.Time, seq int64, remaining int64) *entity.StockLot {
		return &entity.StockLot{
			ID: id, ProductID: "flour", WarehouseID: "wh1",
			PostingDate: date, Seq: seq,
			ReceivedQty:  decimal.NewFromInt(10),
			RemainingQty: decimal.NewFromInt(remaining),
		}
	}
	require.NoError(t, lots.Create(ctx, mk("c", newer, 1, 10)))
	require.NoError(t, lots.Create(ctx, mk("a", older, 2, 10)))
	require.NoError(t, lots.Create(ctx, mk("b", older, 1, 0))) // consumed
	require.NoError(t, lots.Create(ctx, mk("d", older, 1, 5)))

	available, err := lots.AvailableForUpdate(ctx, "flour", "wh1")
	require.NoError(t, err)

	require.Len(t, available, 3, "consumed lots are skipped")
	assert.Equal(t, "d", available[0].ID, "oldest posting date, lowest sequence first")
	assert.Equal(t, "a", available[1].ID)
	assert.Equal(t, "c", available[2].ID)
}
