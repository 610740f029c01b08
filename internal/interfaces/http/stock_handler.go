package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// StockHandler consultas de disponibilidad, ingresos en bodega y ajuste crudo del libro.
type StockHandler struct {
	ledger *inventory.LedgerUseCase
	log    *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.LedgerUseCase, log *logger.Logger) *StockHandler {
	return &StockHandler{ledger: ledger, log: log}
}

// GetAvailable godoc
// @Summary      Disponibilidad de una tupla (ubicación, producto)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  true  "Ubicación"
// @Param        product_id   query  string  true  "Producto"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/available [get]
func (h *StockHandler) GetAvailable(c *fiber.Ctx) error {
	locationID, productID := c.Query("location_id"), c.Query("product_id")
	if locationID == "" || productID == "" {
		return badQuery(c, "location_id y product_id son requeridos")
	}
	a, err := h.ledger.GetAvailable(c.UserContext(), locationID, productID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(availabilityDTO(a))
}

// Receive godoc
// @Summary      Registrar ingreso de mercancía en bodega
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveStockRequest  true  "location_id (bodega), product_id, quantity, unit_cost"
// @Success      201  {object}  dto.StockBatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/batches [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	batch, err := h.ledger.Receive(c.UserContext(), inventory.ReceiveInput{
		LocationID: in.LocationID,
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		ReceivedBy: GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(batchDTO(batch))
}

// Adjust godoc
// @Summary      Ajuste crudo del libro (administración)
// @Description  Aplica un delta con signo sin pasar por el flujo de aprobación y lo registra como
//
//	ajuste MANUAL aplicado. Queda como diferencia en la conciliación; para mermas y
//	correcciones usar /api/adjustments.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "location_id, product_id, delta, reason"
// @Success      200  {object}  dto.AdjustStockResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	unitCost := decimal.Zero
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}
	a, err := h.ledger.Adjust(c.UserContext(), inventory.AdjustInput{
		LocationID: in.LocationID,
		ProductID:  in.ProductID,
		Delta:      in.Delta,
		Reason:     in.Reason,
		Requester:  GetUserID(c),
		BatchID:    in.BatchID,
		UnitCost:   unitCost,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AdjustStockResponse{
		AvailabilityResponse: availabilityDTO(&a.Availability),
		AdjustmentID:         a.Adjustment.ID,
	})
}
