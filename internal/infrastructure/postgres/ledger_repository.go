package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo libro de cantidades sobre PostgreSQL: lotes de bodega y asignaciones de tienda.
// Debe usarse con una tx; los bloqueos de tupla son advisory locks que se liberan en el commit.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del libro. Pasar la tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// tupleLockKey texto que Postgres convierte en la clave del advisory lock.
func tupleLockKey(k entity.TupleKey) string {
	return k.LocationID + ":" + k.ProductID
}

// LockTuples toma un advisory lock por tupla, en el orden recibido. La espera la acota lock_timeout.
func (r *LedgerRepo) LockTuples(ctx context.Context, keys []entity.TupleKey) error {
	for _, k := range keys {
		if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, tupleLockKey(k)); err != nil {
			return wrap(fmt.Sprintf("lock tuple %s", tupleLockKey(k)), err)
		}
	}
	return nil
}

const batchColumns = `id, product_id, location_id, original_intake_quantity, current_quantity,
	unit_cost, source_transfer_id, created_at, updated_at`

func scanBatch(row pgx.Row) (*entity.StockBatch, error) {
	var b entity.StockBatch
	var source *string
	if err := row.Scan(&b.ID, &b.ProductID, &b.LocationID, &b.OriginalIntakeQuantity, &b.CurrentQuantity,
		&b.UnitCost, &source, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.SourceTransferID = fromNull(source)
	return &b, nil
}

// ListBatches devuelve los lotes de la tupla en orden FIFO.
func (r *LedgerRepo) ListBatches(ctx context.Context, locationID, productID string) ([]*entity.StockBatch, error) {
	query := `SELECT ` + batchColumns + `
		FROM stock_batches
		WHERE location_id = $1 AND product_id = $2
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, locationID, productID)
	if err != nil {
		return nil, wrap("list batches", err)
	}
	defer rows.Close()
	var list []*entity.StockBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// GetBatch obtiene un lote por ID.
func (r *LedgerRepo) GetBatch(ctx context.Context, id string) (*entity.StockBatch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, `SELECT `+batchColumns+` FROM stock_batches WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get batch", "lote", id, err)
	}
	return b, nil
}

// CreateBatch persiste un lote nuevo.
func (r *LedgerRepo) CreateBatch(ctx context.Context, b *entity.StockBatch) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.ProductID, b.LocationID, b.OriginalIntakeQuantity, b.CurrentQuantity,
		b.UnitCost, nullIfEmpty(b.SourceTransferID), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return wrap("insert batch", err)
	}
	return nil
}

// UpdateBatchQuantity fija la cantidad actual del lote. original_intake_quantity nunca se toca.
func (r *LedgerRepo) UpdateBatchQuantity(ctx context.Context, id string, current int64, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE stock_batches SET current_quantity = $2, updated_at = $3 WHERE id = $1`, id, current, at)
	if err != nil {
		return wrap("update batch", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

const allocationColumns = `id, location_id, product_id, quantity, sold_quantity, source_transfer_id, updated_at`

func scanAllocation(row pgx.Row) (*entity.LocationAllocation, error) {
	var a entity.LocationAllocation
	var source *string
	if err := row.Scan(&a.ID, &a.LocationID, &a.ProductID, &a.Quantity, &a.SoldQuantity, &source, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.SourceTransferID = fromNull(source)
	return &a, nil
}

// GetAllocation obtiene la asignación de la tupla o domain.ErrNotFound.
func (r *LedgerRepo) GetAllocation(ctx context.Context, locationID, productID string) (*entity.LocationAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM location_allocations WHERE location_id = $1 AND product_id = $2`
	a, err := scanAllocation(r.q.QueryRow(ctx, query, locationID, productID))
	if err != nil {
		return nil, notFoundOr("get allocation", "asignación", locationID+"/"+productID, err)
	}
	return a, nil
}

// GetAllocationByID obtiene una asignación por ID.
func (r *LedgerRepo) GetAllocationByID(ctx context.Context, id string) (*entity.LocationAllocation, error) {
	a, err := scanAllocation(r.q.QueryRow(ctx, `SELECT `+allocationColumns+` FROM location_allocations WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get allocation", "asignación", id, err)
	}
	return a, nil
}

// SaveAllocation inserta o actualiza la asignación (por ID). source_transfer_id solo se fija al crear.
func (r *LedgerRepo) SaveAllocation(ctx context.Context, a *entity.LocationAllocation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO location_allocations (` + allocationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET quantity = EXCLUDED.quantity, sold_quantity = EXCLUDED.sold_quantity, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.LocationID, a.ProductID, a.Quantity, a.SoldQuantity, nullIfEmpty(a.SourceTransferID), a.UpdatedAt,
	)
	if err != nil {
		return wrap("save allocation", err)
	}
	return nil
}
