package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// ReservationHandler reservas de carrito: crear, consultar, liberar y confirmar.
type ReservationHandler struct {
	uc  *inventory.ReservationUseCase
	log *logger.Logger
}

// NewReservationHandler construye el handler.
func NewReservationHandler(uc *inventory.ReservationUseCase, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{uc: uc, log: log}
}

// Reserve godoc
// @Summary      Reservar cantidad para una línea de carrito
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "product_id, location_id, quantity, session_reference, ttl_seconds"
// @Success      201  {object}  dto.ReservationResponse
// @Failure      409  {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK con disponible y solicitado"
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.TTLSeconds < 0 {
		return badQuery(c, "ttl_seconds no puede ser negativo")
	}
	res, err := h.uc.Reserve(c.UserContext(), inventory.ReserveInput{
		ProductID:        in.ProductID,
		LocationID:       in.LocationID,
		Quantity:         in.Quantity,
		SessionReference: in.SessionReference,
		TTL:              h.uc.TTLFromSeconds(int64(in.TTLSeconds)),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reservationDTO(res))
}

// Get devuelve una reserva por ID.
func (h *ReservationHandler) Get(c *fiber.Ctx) error {
	res, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(reservationDTO(res))
}

// Release libera una reserva. Liberar una reserva ya cerrada no es error (se devuelve tal cual).
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	res, err := h.uc.Release(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(reservationDTO(res))
}

// Commit godoc
// @Summary      Confirmar la venta de una reserva
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "Reserva"
// @Param        body  body  dto.CommitReservationRequest  true  "sale_reference"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      409  {object}  dto.ErrorResponse  "INVALID_STATE_TRANSITION si ya expiró, se liberó o se confirmó"
// @Router       /api/reservations/{id}/commit [post]
func (h *ReservationHandler) Commit(c *fiber.Ctx) error {
	var in dto.CommitReservationRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.Commit(c.UserContext(), c.Params("id"), in.SaleReference)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(reservationDTO(res))
}

// ReleaseSession libera todas las reservas activas de una sesión de carrito.
func (h *ReservationHandler) ReleaseSession(c *fiber.Ctx) error {
	released, err := h.uc.ReleaseSession(c.UserContext(), c.Params("session"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":        len(released),
		"reservations": reservationsDTO(released),
	})
}
