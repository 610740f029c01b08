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

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo persistencia de reservas sobre PostgreSQL (usable con pool o tx).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, product_id, location_id, quantity, session_reference, status,
	sale_reference, created_at, expires_at, finalized_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var r entity.Reservation
	var sale *string
	if err := row.Scan(&r.ID, &r.ProductID, &r.LocationID, &r.Quantity, &r.SessionReference, &r.Status,
		&sale, &r.CreatedAt, &r.ExpiresAt, &r.FinalizedAt); err != nil {
		return nil, err
	}
	r.SaleReference = fromNull(sale)
	return &r, nil
}

func collectReservations(rows pgx.Rows) ([]*entity.Reservation, error) {
	defer rows.Close()
	list := make([]*entity.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// Create persiste una reserva nueva.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		res.ID, res.ProductID, res.LocationID, res.Quantity, res.SessionReference, res.Status,
		nullIfEmpty(res.SaleReference), res.CreatedAt, res.ExpiresAt, res.FinalizedAt,
	)
	if err != nil {
		return wrap("insert reservation", err)
	}
	return nil
}

// GetByID obtiene una reserva por ID.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	res, err := scanReservation(r.q.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get reservation", "reserva", id, err)
	}
	return res, nil
}

// GetForUpdate obtiene la reserva y bloquea la fila (SELECT FOR UPDATE).
func (r *ReservationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error) {
	res, err := scanReservation(r.q.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundOr("get reservation for update", "reserva", id, err)
	}
	return res, nil
}

// Update persiste estado, referencia de venta y fecha de cierre.
func (r *ReservationRepo) Update(ctx context.Context, res *entity.Reservation) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE reservations SET status = $2, sale_reference = $3, finalized_at = $4 WHERE id = $1`,
		res.ID, res.Status, nullIfEmpty(res.SaleReference), res.FinalizedAt)
	if err != nil {
		return wrap("update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reserva %s: %w", res.ID, domain.ErrNotFound)
	}
	return nil
}

// SumActive suma las reservas ACTIVE de la tupla.
func (r *ReservationRepo) SumActive(ctx context.Context, locationID, productID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM reservations
		WHERE location_id = $1 AND product_id = $2 AND status = 'ACTIVE'`, locationID, productID).Scan(&total)
	if err != nil {
		return 0, wrap("sum active reservations", err)
	}
	return total, nil
}

// ExpireDue marca EXPIRED hasta limit reservas vencidas. SKIP LOCKED reparte el trabajo entre barridos
// concurrentes y deja fuera las filas que otra tx está confirmando o liberando.
func (r *ReservationRepo) ExpireDue(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	query := `
		WITH due AS (
			SELECT id FROM reservations
			WHERE status = 'ACTIVE' AND expires_at < $1
			ORDER BY expires_at, id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE reservations r
		SET status = 'EXPIRED', finalized_at = $1
		FROM due
		WHERE r.id = due.id AND r.status = 'ACTIVE'
		RETURNING ` + prefixed("r", reservationColumns)
	rows, err := r.q.Query(ctx, query, now, limit)
	if err != nil {
		return nil, wrap("expire reservations", err)
	}
	return collectReservations(rows)
}

// ListBySession lista las reservas de una sesión de carrito.
func (r *ReservationRepo) ListBySession(ctx context.Context, sessionReference string) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE session_reference = $1
		ORDER BY created_at, id`, sessionReference)
	if err != nil {
		return nil, wrap("list reservations by session", err)
	}
	return collectReservations(rows)
}
