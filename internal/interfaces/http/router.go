package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sixteenfood/qlsx/internal/application/costing"
	"github.com/sixteenfood/qlsx/internal/application/inventory"
	"github.com/sixteenfood/qlsx/internal/application/planning"
	"github.com/sixteenfood/qlsx/internal/application/reconcile"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	GeneratePlan *planning.GeneratePlanUseCase
	Execution    *planning.ExecutionUseCase
	Ledger       *inventory.Ledger
	Reconcile    *reconcile.UseCase
	Costs        *costing.Service
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	planningHandler := NewPlanningHandler(deps.GeneratePlan)
	api.Post("/planning/generate", planningHandler.Generate)

	orders := api.Group("/production-orders")
	orderHandler := NewProductionOrderHandler(deps.Execution)
	orders.Post("/", orderHandler.CreateManual)
	orders.Post("/:id/progress", orderHandler.Progress)
	orders.Post("/:id/complete", orderHandler.Complete)
	orders.Post("/:id/stock", orderHandler.Stock)

	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Execution)
	inv.Post("/documents", inventoryHandler.PostDocument)
	inv.Post("/material-issues", inventoryHandler.IssueMaterials)
	inv.Get("/stock/:product/:warehouse", inventoryHandler.GetStock)
	inv.Post("/reservations", inventoryHandler.CreateReservation)

	stocktakings := api.Group("/stocktakings")
	stocktakingHandler := NewStocktakingHandler(deps.Reconcile)
	stocktakings.Post("/", stocktakingHandler.Create)
	stocktakings.Post("/:id/counts", stocktakingHandler.RecordCount)
	stocktakings.Post("/:id/lock", stocktakingHandler.Lock)
	stocktakings.Post("/:id/reconcile", stocktakingHandler.Reconcile)

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.Costs)
	products.Get("/:id/cost", productHandler.GetCost)
}
