package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// TransferHandler traslados entre ubicaciones.
type TransferHandler struct {
	uc  *inventory.TransferUseCase
	log *logger.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *inventory.TransferUseCase, log *logger.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear traslado (NEW, sin efecto en el libro)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "origen, destino y líneas"
// @Success      201  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]inventory.TransferLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.TransferLineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	t, err := h.uc.Create(c.UserContext(), inventory.CreateTransferInput{
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		Lines:                 lines,
		Notes:                 in.Notes,
		CreatedBy:             GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transferDTO(t))
}

// Get devuelve un traslado con sus líneas.
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	t, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(transferDTO(t))
}

// Dispatch marca el traslado en tránsito.
func (h *TransferHandler) Dispatch(c *fiber.Ctx) error {
	t, err := h.uc.Dispatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(transferDTO(t))
}

// Fulfill godoc
// @Summary      Completar traslado
// @Description  Mueve todas las líneas en una sola transacción. Si alguna línea no alcanza, no se
//
//	aplica ninguna y se devuelven todos los faltantes. Completar dos veces devuelve el mismo traslado.
//
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK (details = faltantes) o INVALID_STATE_TRANSITION"
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/fulfill [post]
func (h *TransferHandler) Fulfill(c *fiber.Ctx) error {
	t, err := h.uc.Fulfill(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(transferDTO(t))
}

// Cancel cancela un traslado abierto. Cancelar uno ya cancelado no es error.
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	t, err := h.uc.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(transferDTO(t))
}

// UpdateNotes reemplaza las notas del traslado.
func (h *TransferHandler) UpdateNotes(c *fiber.Ctx) error {
	var in dto.UpdateNotesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t, err := h.uc.UpdateNotes(c.UserContext(), c.Params("id"), in.Notes)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(transferDTO(t))
}
