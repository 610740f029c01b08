package entity

import (
	"time"

	"github.com/jhoicas/inventario-core/internal/domain"
)

// Estados de una reserva. RELEASED, EXPIRED y COMMITTED son terminales.
const (
	ReservationActive    = "ACTIVE"
	ReservationReleased  = "RELEASED"
	ReservationExpired   = "EXPIRED"
	ReservationCommitted = "COMMITTED"
)

// Reservation retención temporal contra la cantidad disponible de una ubicación (línea de carrito).
type Reservation struct {
	ID               string
	ProductID        string
	LocationID       string
	Quantity         int64
	SessionReference string
	Status           string
	SaleReference    string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	FinalizedAt      *time.Time
}

// Key tupla del libro que retiene la reserva.
func (r *Reservation) Key() TupleKey {
	return TupleKey{LocationID: r.LocationID, ProductID: r.ProductID}
}

// IsTerminal indica si la reserva ya no puede cambiar.
func (r *Reservation) IsTerminal() bool {
	return r.Status != ReservationActive
}

// IsDue indica si la reserva activa venció respecto a now.
func (r *Reservation) IsDue(now time.Time) bool {
	return r.Status == ReservationActive && r.ExpiresAt.Before(now)
}

// TransitionTo aplica ACTIVE → {RELEASED, EXPIRED, COMMITTED}; cualquier otra transición falla.
func (r *Reservation) TransitionTo(status string, at time.Time) error {
	switch status {
	case ReservationReleased, ReservationExpired, ReservationCommitted:
	default:
		return &domain.InvalidStateTransitionError{Entity: "reserva", ID: r.ID, From: r.Status, To: status}
	}
	if r.IsTerminal() {
		return &domain.InvalidStateTransitionError{Entity: "reserva", ID: r.ID, From: r.Status, To: status}
	}
	r.Status = status
	t := at
	r.FinalizedAt = &t
	return nil
}
