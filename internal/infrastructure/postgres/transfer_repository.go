package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo persistencia de traslados y sus líneas sobre PostgreSQL (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, source_location_id, destination_location_id, status, notes, created_by,
	completed_by, created_at, updated_at, dispatched_at, completed_at, cancelled_at`

// Create persiste el traslado y sus líneas (en el orden recibido).
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.SourceLocationID, t.DestinationLocationID, t.Status, t.Notes, t.CreatedBy,
		nullIfEmpty(t.CompletedBy), t.CreatedAt, t.UpdatedAt, t.DispatchedAt, t.CompletedAt, t.CancelledAt,
	)
	if err != nil {
		return wrap("insert transfer", err)
	}
	for i := range t.Lines {
		l := &t.Lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.TransferID = t.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO transfer_lines (id, transfer_id, line_no, product_id, requested_quantity, unit_cost)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, t.ID, i+1, l.ProductID, l.RequestedQuantity, l.UnitCost)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("producto %s repetido en el traslado: %w", l.ProductID, domain.ErrInvalidInput)
			}
			return wrap("insert transfer line", err)
		}
	}
	return nil
}

func (r *TransferRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var t entity.Transfer
	var completedBy *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.SourceLocationID, &t.DestinationLocationID, &t.Status, &t.Notes, &t.CreatedBy,
		&completedBy, &t.CreatedAt, &t.UpdatedAt, &t.DispatchedAt, &t.CompletedAt, &t.CancelledAt,
	)
	if err != nil {
		return nil, notFoundOr("get transfer", "traslado", id, err)
	}
	t.CompletedBy = fromNull(completedBy)

	rows, err := r.q.Query(ctx, `
		SELECT id, transfer_id, product_id, requested_quantity, unit_cost
		FROM transfer_lines WHERE transfer_id = $1
		ORDER BY line_no`, id)
	if err != nil {
		return nil, wrap("list transfer lines", err)
	}
	t.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.TransferLine, error) {
		var l entity.TransferLine
		err := row.Scan(&l.ID, &l.TransferID, &l.ProductID, &l.RequestedQuantity, &l.UnitCost)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan transfer line: %w", err)
	}
	return &t, nil
}

// GetByID obtiene un traslado con sus líneas.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene el traslado y bloquea su fila (las líneas no cambian tras crearse).
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, id, true)
}

// Update persiste estado, notas, fechas y el costo unitario de las líneas.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE transfers
		SET status = $2, notes = $3, completed_by = $4, updated_at = $5,
		    dispatched_at = $6, completed_at = $7, cancelled_at = $8
		WHERE id = $1`,
		t.ID, t.Status, t.Notes, nullIfEmpty(t.CompletedBy), t.UpdatedAt,
		t.DispatchedAt, t.CompletedAt, t.CancelledAt)
	if err != nil {
		return wrap("update transfer", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("traslado %s: %w", t.ID, domain.ErrNotFound)
	}
	for _, l := range t.Lines {
		if _, err := r.q.Exec(ctx, `UPDATE transfer_lines SET unit_cost = $2 WHERE id = $1`, l.ID, l.UnitCost); err != nil {
			return wrap("update transfer line", err)
		}
	}
	return nil
}
