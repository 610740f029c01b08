package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// LedgerRepository define el puerto del libro de cantidades (lotes de bodega y asignaciones de tienda).
// Se usa siempre dentro de una transacción; los escritores se serializan con LockTuples.
type LedgerRepository interface {
	// LockTuples bloquea las tuplas en el orden recibido hasta el fin de la transacción.
	LockTuples(ctx context.Context, keys []entity.TupleKey) error

	// ListBatches devuelve los lotes de la tupla en orden FIFO (created_at, id).
	ListBatches(ctx context.Context, locationID, productID string) ([]*entity.StockBatch, error)
	GetBatch(ctx context.Context, id string) (*entity.StockBatch, error)
	CreateBatch(ctx context.Context, batch *entity.StockBatch) error
	UpdateBatchQuantity(ctx context.Context, id string, current int64, at time.Time) error

	// GetAllocation devuelve domain.ErrNotFound si la tienda nunca recibió el producto.
	GetAllocation(ctx context.Context, locationID, productID string) (*entity.LocationAllocation, error)
	GetAllocationByID(ctx context.Context, id string) (*entity.LocationAllocation, error)
	// SaveAllocation inserta o actualiza la asignación (por ID).
	SaveAllocation(ctx context.Context, alloc *entity.LocationAllocation) error
}
