package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/pkg/jwt"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger         *inventory.LedgerUseCase
	Reservations   *inventory.ReservationUseCase
	Transfers      *inventory.TransferUseCase
	Adjustments    *inventory.AdjustmentUseCase
	Reconciliation *inventory.ReconciliationUseCase
	Movements      *inventory.MovementUseCase
	JWTSecret      string
	Log            *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	stockStaff := RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleBodeguero)
	approvers := RequireRole(jwt.RoleAdmin, jwt.RoleManager)

	// Stock
	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger, log.Component("http.stock"))
	stock.Get("/available", stockHandler.GetAvailable)
	stock.Post("/batches", stockStaff, stockHandler.Receive)
	stock.Post("/adjust", RequireRole(jwt.RoleAdmin), stockHandler.Adjust)

	// Reservas (cualquier usuario autenticado: cajas y tiendas en línea)
	reservations := api.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.Reservations, log.Component("http.reservations"))
	reservations.Post("/", reservationHandler.Reserve)
	reservations.Post("/sessions/:session/release", reservationHandler.ReleaseSession)
	reservations.Get("/:id", reservationHandler.Get)
	reservations.Post("/:id/release", reservationHandler.Release)
	reservations.Post("/:id/commit", reservationHandler.Commit)

	// Traslados
	transfers := api.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers, log.Component("http.transfers"))
	transfers.Post("/", stockStaff, transferHandler.Create)
	transfers.Get("/:id", transferHandler.Get)
	transfers.Post("/:id/dispatch", stockStaff, transferHandler.Dispatch)
	transfers.Post("/:id/fulfill", stockStaff, transferHandler.Fulfill)
	transfers.Post("/:id/cancel", stockStaff, transferHandler.Cancel)
	transfers.Patch("/:id/notes", stockStaff, transferHandler.UpdateNotes)

	// Ajustes: cualquiera registra; aprueban manager o admin
	adjustments := api.Group("/adjustments")
	adjustmentHandler := NewAdjustmentHandler(deps.Adjustments, log.Component("http.adjustments"))
	adjustments.Post("/", adjustmentHandler.Submit)
	adjustments.Get("/:id", adjustmentHandler.Get)
	adjustments.Patch("/:id", adjustmentHandler.Revise)
	adjustments.Post("/:id/approve", approvers, adjustmentHandler.Approve)
	adjustments.Post("/:id/reject", approvers, adjustmentHandler.Reject)

	// Conciliación
	reconciliation := api.Group("/reconciliation", approvers)
	reconciliationHandler := NewReconciliationHandler(deps.Reconciliation, log.Component("http.reconciliation"))
	reconciliation.Get("/", reconciliationHandler.Run)
	reconciliation.Get("/products/:product_id", reconciliationHandler.Product)

	// Libro de movimientos
	movements := api.Group("/movements")
	movementHandler := NewMovementHandler(deps.Movements, log.Component("http.movements"))
	movements.Get("/", movementHandler.List)
	movements.Get("/summary", movementHandler.Summary)
}
