package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/application/costing"
	"github.com/sixteenfood/qlsx/internal/application/inventory"
	appplanning "github.com/sixteenfood/qlsx/internal/application/planning"
	"github.com/sixteenfood/qlsx/internal/application/reconcile"
	"github.com/sixteenfood/qlsx/internal/domain/bom"
	domplanning "github.com/sixteenfood/qlsx/internal/domain/planning"
	"github.com/sixteenfood/qlsx/internal/infrastructure/events"
	"github.com/sixteenfood/qlsx/internal/infrastructure/postgres"
	"github.com/sixteenfood/qlsx/internal/infrastructure/redisreserve"
	httpRouter "github.com/sixteenfood/qlsx/internal/interfaces/http"
	"github.com/sixteenfood/qlsx/pkg/config"
	"github.com/sixteenfood/qlsx/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("starting application")

	ctx := context.Background()
	if err := postgres.RunMigrations("migrations", cfg.DB.ConnectionString()); err != nil {
		log.Fatal().Err(err).Msg("database migrations")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection")
	}
	defer pool.Close()

	reservations := redisreserve.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := reservations.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Redis connection")
	}
	defer reservations.Close()

	productRepo := postgres.NewProductRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	bomRepo := postgres.NewBOMRepository(pool)
	salesRepo := postgres.NewSalesLineRepository(pool)
	orderRepo := postgres.NewProductionOrderRepository(pool)
	snapshotRepo := postgres.NewSnapshotRepository(pool)
	documentRepo := postgres.NewStockDocumentRepository(pool)
	stocktakingRepo := postgres.NewStockTakingRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	registry := bom.NewRegistry(bomRepo, productRepo)
	dispatcher := events.NewRecorder(log)

	lowStock, err := decimal.NewFromString(cfg.Inventory.LowStockThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("parse INVENTORY_LOW_STOCK_THRESHOLD")
	}
	capacityMax, err := decimal.NewFromString(cfg.Planning.DefaultCapacityMax)
	if err != nil {
		log.Fatal().Err(err).Msg("parse PLANNING_DEFAULT_CAPACITY_MAX")
	}

	ledger := inventory.NewLedger(txRunner, snapshotRepo, documentRepo, reservations, dispatcher, log, inventory.Config{
		LowStockThreshold: lowStock,
		ReservationTTL:    cfg.Inventory.ReservationTTL,
	})
	costs := costing.NewService(registry, productRepo)
	generatePlan := appplanning.NewGeneratePlanUseCase(
		salesRepo, productRepo, snapshotRepo, reservations, registry, txRunner, dispatcher, log,
		domplanning.Policy{
			LeadTimeDays:       cfg.Planning.LeadTimeDays,
			RollForwardDays:    cfg.Planning.RollForwardDays,
			DefaultCapacityMax: capacityMax,
		},
	)
	execution := appplanning.NewExecutionUseCase(
		orderRepo, productRepo, warehouseRepo, registry, ledger, costs, txRunner, log,
	)
	reconcileUC := reconcile.NewUseCase(stocktakingRepo, snapshotRepo, productRepo, ledger, dispatcher, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		GeneratePlan: generatePlan,
		Execution:    execution,
		Ledger:       ledger,
		Reconcile:    reconcileUC,
		Costs:        costs,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
