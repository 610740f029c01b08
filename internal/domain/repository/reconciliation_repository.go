package repository

import (
	"context"

	"github.com/jhoicas/inventario-core/internal/domain/inventory"
)

// ReconciliationRepository define el puerto de lectura de totales para la conciliación.
type ReconciliationRepository interface {
	// Snapshot reúne los totales de un producto en una sola lectura consistente.
	Snapshot(ctx context.Context, productID string) (*inventory.ReconciliationInput, error)
	// ListProductIDs devuelve los productos con lotes registrados, paginados, y el total.
	ListProductIDs(ctx context.Context, limit, offset int) ([]string, int64, error)
}
