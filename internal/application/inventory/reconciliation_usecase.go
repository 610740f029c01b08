package inventory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// ReconciliationUseCase calcula la conciliación por producto (solo lectura).
type ReconciliationUseCase struct {
	repo repository.ReconciliationRepository
	log  *logger.Logger
}

// NewReconciliationUseCase construye el caso de uso.
func NewReconciliationUseCase(repo repository.ReconciliationRepository, log *logger.Logger) *ReconciliationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconciliationUseCase{repo: repo, log: log}
}

// ProductReport concilia un producto. Un descuadre se devuelve como dato (Status RECONCILIATION_MISMATCH).
func (uc *ReconciliationUseCase) ProductReport(ctx context.Context, productID string) (rep *inventory.ReconciliationReport, err error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	ctx, span := startSpan(ctx, "reconciliation.ProductReport", attribute.String("product_id", productID))
	defer func() { endSpan(span, err) }()

	in, err := uc.repo.Snapshot(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := inventory.Reconcile(*in)
	if !out.IsBalanced() {
		uc.log.Warn().Str("producto", productID).Int64("delta", out.Delta).
			Int64("ingreso", out.RecordedIntake).Int64("base", out.Baseline).
			Msg("descuadre de conciliación")
	}
	return &out, nil
}

// ReconciliationRun resultado de conciliar una página de productos.
type ReconciliationRun struct {
	Reports    []inventory.ReconciliationReport
	Mismatches int
	Total      int64
	Limit      int
	Offset     int
}

// Run concilia todos los productos con lotes registrados, paginados.
func (uc *ReconciliationUseCase) Run(ctx context.Context, limit, offset int) (*ReconciliationRun, error) {
	limit, offset = normalizePage(limit, offset, 50, 500)
	ids, total, err := uc.repo.ListProductIDs(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	run := &ReconciliationRun{
		Reports: make([]inventory.ReconciliationReport, 0, len(ids)),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}
	for _, id := range ids {
		rep, err := uc.ProductReport(ctx, id)
		if err != nil {
			return nil, err
		}
		if !rep.IsBalanced() {
			run.Mismatches++
		}
		run.Reports = append(run.Reports, *rep)
	}
	uc.log.Info().Int("productos", len(ids)).Int("descuadres", run.Mismatches).Msg("conciliación ejecutada")
	return run, nil
}

// normalizePage aplica límite por defecto y máximo.
func normalizePage(limit, offset, def, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
