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

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo persistencia de ajustes sobre PostgreSQL (usable con pool o tx).
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

const adjustmentColumns = `id, target_type, target_id, location_id, product_id, kind, signed_quantity,
	status, requires_approval, evidence, reason, submitted_by, decided_by, decision_note,
	created_at, decided_at, applied_at`

func scanAdjustment(row pgx.Row) (*entity.Adjustment, error) {
	var a entity.Adjustment
	var decidedBy, note *string
	if err := row.Scan(&a.ID, &a.TargetType, &a.TargetID, &a.LocationID, &a.ProductID, &a.Kind, &a.SignedQuantity,
		&a.Status, &a.RequiresApproval, &a.Evidence, &a.Reason, &a.SubmittedBy, &decidedBy, &note,
		&a.CreatedAt, &a.DecidedAt, &a.AppliedAt); err != nil {
		return nil, err
	}
	a.DecidedBy = fromNull(decidedBy)
	a.DecisionNote = fromNull(note)
	return &a, nil
}

// Create persiste un ajuste nuevo.
func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.Adjustment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO adjustments (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.TargetType, a.TargetID, a.LocationID, a.ProductID, a.Kind, a.SignedQuantity,
		a.Status, a.RequiresApproval, a.Evidence, a.Reason, a.SubmittedBy,
		nullIfEmpty(a.DecidedBy), nullIfEmpty(a.DecisionNote), a.CreatedAt, a.DecidedAt, a.AppliedAt,
	)
	if err != nil {
		return wrap("insert adjustment", err)
	}
	return nil
}

// GetByID obtiene un ajuste por ID.
func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	a, err := scanAdjustment(r.q.QueryRow(ctx, `SELECT `+adjustmentColumns+` FROM adjustments WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get adjustment", "ajuste", id, err)
	}
	return a, nil
}

// GetForUpdate obtiene el ajuste y bloquea la fila (SELECT FOR UPDATE).
func (r *AdjustmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error) {
	a, err := scanAdjustment(r.q.QueryRow(ctx,
		`SELECT `+adjustmentColumns+` FROM adjustments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundOr("get adjustment for update", "ajuste", id, err)
	}
	return a, nil
}

// Update persiste cantidad, evidencia, estado y decisión.
func (r *AdjustmentRepo) Update(ctx context.Context, a *entity.Adjustment) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE adjustments
		SET signed_quantity = $2, evidence = $3, reason = $4, status = $5,
		    decided_by = $6, decision_note = $7, decided_at = $8, applied_at = $9
		WHERE id = $1`,
		a.ID, a.SignedQuantity, a.Evidence, a.Reason, a.Status,
		nullIfEmpty(a.DecidedBy), nullIfEmpty(a.DecisionNote), a.DecidedAt, a.AppliedAt)
	if err != nil {
		return wrap("update adjustment", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ajuste %s: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}
