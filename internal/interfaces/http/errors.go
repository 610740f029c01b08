package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// retryAfterSeconds sugerencia para errores reintentables (bloqueo agotado o conflicto).
const retryAfterSeconds = "1"

func shortfall(e *domain.InsufficientStockError) dto.ShortfallDTO {
	return dto.ShortfallDTO{LocationID: e.LocationID, ProductID: e.ProductID, Available: e.Available, Requested: e.Requested}
}

// writeError traduce errores de dominio a la taxonomía HTTP estable.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var (
		tve  *domain.TransferValidationError
		ise  *domain.InsufficientStockError
		iste *domain.InvalidStateTransitionError
		iae  *domain.InvalidAdjustmentError
	)
	switch {
	case errors.As(err, &tve):
		details := make([]dto.ShortfallDTO, 0, len(tve.Shortfalls))
		for i := range tve.Shortfalls {
			details = append(details, shortfall(&tve.Shortfalls[i]))
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: domain.CodeInsufficientStock, Message: "stock insuficiente para el traslado", Details: details,
		})
	case errors.As(err, &ise):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: domain.CodeInsufficientStock, Message: "stock insuficiente", Details: []dto.ShortfallDTO{shortfall(ise)},
		})
	case errors.As(err, &iste):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    domain.CodeInvalidStateTransition,
			Message: iste.Error(),
			Details: fiber.Map{"entity": iste.Entity, "id": iste.ID, "from": iste.From, "to": iste.To},
		})
	case errors.As(err, &iae):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    domain.CodeInvalidAdjustment,
			Message: "el ajuste dejaría la cantidad por debajo de cero o de las reservas activas",
			Details: fiber.Map{"adjustment_id": iae.AdjustmentID, "current": iae.Current, "delta": iae.Delta},
		})
	case errors.Is(err, domain.ErrLockTimeout):
		log.Warn().Err(err).Str("path", c.Path()).Msg("bloqueo agotado")
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: domain.CodeLockTimeout, Message: "recurso ocupado, reintente"})
	case errors.Is(err, domain.ErrConcurrentModification):
		log.Warn().Err(err).Str("path", c.Path()).Msg("modificación concurrente")
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: domain.CodeConcurrentModification, Message: "modificación concurrente, reintente"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func badQuery(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
}

// parseOptionalBody acepta cuerpo vacío (acciones sin datos adicionales).
func parseOptionalBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}
