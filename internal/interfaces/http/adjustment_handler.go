package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// AdjustmentHandler mermas y correcciones con flujo de aprobación.
type AdjustmentHandler struct {
	uc  *inventory.AdjustmentUseCase
	log *logger.Logger
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(uc *inventory.AdjustmentUseCase, log *logger.Logger) *AdjustmentHandler {
	return &AdjustmentHandler{uc: uc, log: log}
}

// Submit godoc
// @Summary      Registrar ajuste
// @Description  Devoluciones de clientes y correcciones de traslado se aplican de inmediato; el resto
//
//	queda PENDING hasta su aprobación. Un autoaprobado que dejaría la cantidad negativa queda PENDING
//	y responde 409 INVALID_ADJUSTMENT con el id del ajuste.
//
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitAdjustmentRequest  true  "kind, target_type, target_id, signed_quantity, evidence, reason"
// @Success      201  {object}  dto.AdjustmentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	adj, err := h.uc.Submit(c.UserContext(), inventory.SubmitAdjustmentInput{
		Kind:           in.Kind,
		TargetType:     in.TargetType,
		TargetID:       in.TargetID,
		SignedQuantity: in.SignedQuantity,
		Evidence:       in.Evidence,
		Reason:         in.Reason,
		SubmittedBy:    GetUserID(c),
	})
	if err != nil {
		if adj != nil && errors.Is(err, domain.ErrInvalidAdjustment) {
			h.log.Warn().Str("adjustment_id", adj.ID).Msg("ajuste autoaprobado no aplicable, queda pendiente")
		}
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(adjustmentDTO(adj))
}

// Get devuelve un ajuste por ID.
func (h *AdjustmentHandler) Get(c *fiber.Ctx) error {
	adj, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(adjustmentDTO(adj))
}

// Approve aprueba y aplica el ajuste (la decisión la toma el llamador con rol manager o admin).
func (h *AdjustmentHandler) Approve(c *fiber.Ctx) error {
	var in dto.DecisionRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return badBody(c)
	}
	adj, err := h.uc.Approve(c.UserContext(), c.Params("id"), GetUserID(c), in.Note)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(adjustmentDTO(adj))
}

// Reject rechaza un ajuste pendiente.
func (h *AdjustmentHandler) Reject(c *fiber.Ctx) error {
	var in dto.DecisionRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return badBody(c)
	}
	adj, err := h.uc.Reject(c.UserContext(), c.Params("id"), GetUserID(c), in.Note)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(adjustmentDTO(adj))
}

// Revise corrige cantidad, evidencia o motivo de un ajuste pendiente.
func (h *AdjustmentHandler) Revise(c *fiber.Ctx) error {
	var in dto.ReviseAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	adj, err := h.uc.Revise(c.UserContext(), c.Params("id"), inventory.ReviseAdjustmentInput{
		SignedQuantity: in.SignedQuantity,
		Evidence:       in.Evidence,
		Reason:         in.Reason,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(adjustmentDTO(adj))
}
