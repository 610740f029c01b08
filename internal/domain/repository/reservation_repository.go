package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// ReservationRepository define el puerto de persistencia de reservas.
type ReservationRepository interface {
	Create(ctx context.Context, r *entity.Reservation) error
	GetByID(ctx context.Context, id string) (*entity.Reservation, error)
	// GetForUpdate obtiene la reserva y bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error)
	// Update persiste estado, referencia de venta y fecha de cierre.
	Update(ctx context.Context, r *entity.Reservation) error
	// SumActive suma las reservas ACTIVE de la tupla.
	SumActive(ctx context.Context, locationID, productID string) (int64, error)
	// ExpireDue marca EXPIRED hasta limit reservas ACTIVE con expires_at < now y devuelve las afectadas.
	// Cada reserva se devuelve una sola vez aunque haya barridos concurrentes.
	ExpireDue(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error)
	ListBySession(ctx context.Context, sessionReference string) ([]*entity.Reservation, error)
}
