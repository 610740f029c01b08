package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)

// ReconciliationRepo consultas de solo lectura que alimentan la conciliación.
type ReconciliationRepo struct {
	pool *pgxpool.Pool
}

// NewReconciliationRepository construye el adaptador de conciliación.
func NewReconciliationRepository(pool *pgxpool.Pool) *ReconciliationRepo {
	return &ReconciliationRepo{pool: pool}
}

// Snapshot lee todos los totales del producto dentro de una tx REPEATABLE READ de solo lectura,
// para que lotes, asignaciones, ajustes y reservas correspondan al mismo instante.
func (r *ReconciliationRepo) Snapshot(ctx context.Context, productID string) (*inventory.ReconciliationInput, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, wrap("reconciliation.Snapshot begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	in := &inventory.ReconciliationInput{ProductID: productID, Storefronts: []inventory.StorefrontPosition{}}

	const batchTotals = `
	SELECT
	    COALESCE(SUM(original_intake_quantity), 0) AS recorded_intake,
	    COALESCE(SUM(current_quantity),         0) AS warehouse_current
	FROM stock_batches
	WHERE product_id = $1`
	if err := tx.QueryRow(ctx, batchTotals, productID).Scan(&in.RecordedIntake, &in.WarehouseCurrent); err != nil {
		return nil, wrap("reconciliation.Snapshot batches", err)
	}

	const allocations = `
	SELECT location_id, quantity, sold_quantity
	FROM location_allocations
	WHERE product_id = $1
	ORDER BY location_id`
	rows, err := tx.Query(ctx, allocations, productID)
	if err != nil {
		return nil, wrap("reconciliation.Snapshot allocations", err)
	}
	positions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (inventory.StorefrontPosition, error) {
		var p inventory.StorefrontPosition
		err := row.Scan(&p.LocationID, &p.Quantity, &p.Sold)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("reconciliation.Snapshot allocations scan: %w", err)
	}
	in.Storefronts = append(in.Storefronts, positions...)

	// Merma y correcciones: efecto neto con signo de los ajustes APPLIED. Los crudos (MANUAL) no explican nada.
	const adjustments = `
	SELECT
	    COALESCE(SUM(signed_quantity) FILTER (WHERE kind = ANY($2)),                      0) AS shrinkage,
	    COALESCE(SUM(signed_quantity) FILTER (WHERE NOT (kind = ANY($2)) AND kind <> $3), 0) AS corrections
	FROM adjustments
	WHERE product_id = $1
	  AND status     = 'APPLIED'`
	if err := tx.QueryRow(ctx, adjustments, productID, entity.ShrinkageKinds(), entity.AdjustmentManual).
		Scan(&in.ShrinkageApplied, &in.CorrectionsApplied); err != nil {
		return nil, wrap("reconciliation.Snapshot adjustments", err)
	}

	const reservations = `
	SELECT
	    COALESCE(SUM(r.quantity) FILTER (WHERE r.status = 'ACTIVE'),                            0) AS active_holds,
	    COALESCE(SUM(r.quantity) FILTER (WHERE r.status = 'COMMITTED' AND l.kind = 'WAREHOUSE'), 0) AS warehouse_sold
	FROM reservations r
	JOIN locations    l ON l.id = r.location_id
	WHERE r.product_id = $1`
	if err := tx.QueryRow(ctx, reservations, productID).Scan(&in.ActiveHolds, &in.WarehouseSold); err != nil {
		return nil, wrap("reconciliation.Snapshot reservations", err)
	}
	return in, nil
}

// ListProductIDs devuelve los productos con lotes registrados, paginados, y el total.
func (r *ReconciliationRepo) ListProductIDs(ctx context.Context, limit, offset int) ([]string, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT product_id) FROM stock_batches`).Scan(&total); err != nil {
		return nil, 0, wrap("reconciliation.ListProductIDs count", err)
	}
	const query = `
	SELECT DISTINCT product_id
	FROM stock_batches
	ORDER BY product_id
	LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, wrap("reconciliation.ListProductIDs", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, 0, fmt.Errorf("reconciliation.ListProductIDs scan: %w", err)
	}
	return ids, total, nil
}
