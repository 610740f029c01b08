package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// ReconciliationHandler reportes de conciliación. Un descuadre se devuelve como dato (200).
type ReconciliationHandler struct {
	uc  *inventory.ReconciliationUseCase
	log *logger.Logger
}

// NewReconciliationHandler construye el handler.
func NewReconciliationHandler(uc *inventory.ReconciliationUseCase, log *logger.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{uc: uc, log: log}
}

// Product godoc
// @Summary      Conciliación de un producto
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "Producto"
// @Success      200  {object}  dto.ReconciliationReportResponse  "status BALANCED o RECONCILIATION_MISMATCH"
// @Router       /api/reconciliation/products/{product_id} [get]
func (h *ReconciliationHandler) Product(c *fiber.Ctx) error {
	rep, err := h.uc.ProductReport(c.UserContext(), c.Params("product_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(reportDTO(rep))
}

// Run concilia todos los productos con lotes, paginado.
func (h *ReconciliationHandler) Run(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c, "limit/offset inválidos")
	}
	run, err := h.uc.Run(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	reports := make([]dto.ReconciliationReportResponse, 0, len(run.Reports))
	for i := range run.Reports {
		reports = append(reports, reportDTO(&run.Reports[i]))
	}
	return c.JSON(dto.ReconciliationRunResponse{
		PageResponse: dto.PageResponse{Limit: run.Limit, Offset: run.Offset, Total: run.Total},
		Mismatches:   run.Mismatches,
		Reports:      reports,
	})
}
