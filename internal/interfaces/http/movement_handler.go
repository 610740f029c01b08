package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// MovementHandler libro de movimientos: listado paginado y resumen agrupado.
type MovementHandler struct {
	uc  *inventory.MovementUseCase
	log *logger.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *inventory.MovementUseCase, log *logger.Logger) *MovementHandler {
	return &MovementHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Libro de movimientos
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "Uno o varios productos separados por coma"
// @Param        location_id  query  string  false  "Ubicación"
// @Param        category_id  query  string  false  "Categoría"
// @Param        from         query  string  false  "Desde (RFC3339 o YYYY-MM-DD, inclusivo)"
// @Param        to           query  string  false  "Hasta (RFC3339 o YYYY-MM-DD, exclusivo)"
// @Param        type         query  string  false  "INTAKE, SALE, TRANSFER, ADJUSTMENT (separados por coma)"
// @Param        q            query  string  false  "Búsqueda por nombre, SKU o referencia"
// @Param        limit        query  int     false  "Por defecto 50, máximo 500"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	f, err := movementFilterFromQuery(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c, "limit/offset inválidos")
	}
	res, err := h.uc.List(c.UserContext(), f, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.MovementResponse, 0, len(res.Items))
	for _, m := range res.Items {
		items = append(items, movementDTO(m))
	}
	return c.JSON(dto.MovementPageResponse{
		PageResponse: dto.PageResponse{Limit: res.Limit, Offset: res.Offset, Total: res.Total},
		Items:        items,
	})
}

// Summary resumen agrupado (group_by = day, week, month, location, category o reference_type).
func (h *MovementHandler) Summary(c *fiber.Ctx) error {
	f, err := movementFilterFromQuery(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	groupBy := c.Query("group_by", repository.GroupByDay)
	groups, err := h.uc.Summarize(c.UserContext(), f, groupBy)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.MovementAggregateDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, dto.MovementAggregateDTO{
			Group: g.Group, Count: g.Count, Inbound: g.Inbound, Outbound: g.Outbound, Net: g.Net,
		})
	}
	return c.JSON(dto.MovementSummaryResponse{GroupBy: groupBy, Groups: out})
}

func movementFilterFromQuery(c *fiber.Ctx) (repository.MovementFilter, error) {
	f := repository.MovementFilter{
		ProductIDs:     splitList(c.Query("product_id")),
		LocationID:     c.Query("location_id"),
		CategoryID:     c.Query("category_id"),
		ReferenceTypes: splitList(strings.ToUpper(c.Query("type"))),
		Search:         c.Query("q"),
	}
	var err error
	if f.From, err = parseTimeParam(c.Query("from")); err != nil {
		return f, fmt.Errorf("from inválido: %w", err)
	}
	if f.To, err = parseTimeParam(c.Query("to")); err != nil {
		return f, fmt.Errorf("to inválido: %w", err)
	}
	return f, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseTimeParam acepta RFC3339 o una fecha (medianoche UTC).
func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
