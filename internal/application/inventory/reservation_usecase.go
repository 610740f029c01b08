package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// ReservationOptions parámetros de reservas (vienen de configuración).
type ReservationOptions struct {
	DefaultTTL     time.Duration
	MaxTTL         time.Duration
	SweepBatchSize int
}

func (o *ReservationOptions) defaults() {
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = 15 * time.Minute
	}
	if o.MaxTTL <= 0 {
		o.MaxTTL = 2 * time.Hour
	}
	if o.DefaultTTL > o.MaxTTL {
		o.DefaultTTL = o.MaxTTL
	}
	if o.SweepBatchSize <= 0 {
		o.SweepBatchSize = 500
	}
}

// ReservationUseCase ciclo de vida de las reservas de carrito: ACTIVE → {RELEASED, EXPIRED, COMMITTED}.
type ReservationUseCase struct {
	txRunner TxRunner
	effects  *Effects
	log      *logger.Logger
	opts     ReservationOptions
}

// NewReservationUseCase construye el caso de uso.
func NewReservationUseCase(txRunner TxRunner, effects *Effects, log *logger.Logger, opts ReservationOptions) *ReservationUseCase {
	opts.defaults()
	if log == nil {
		log = logger.Nop()
	}
	return &ReservationUseCase{txRunner: txRunner, effects: effects, log: log, opts: opts}
}

// ReserveInput entrada para retener cantidad de una línea de carrito.
type ReserveInput struct {
	ProductID        string
	LocationID       string
	Quantity         int64
	SessionReference string
	TTL              time.Duration // 0 = valor por defecto
}

// TTL resuelve la vigencia pedida: por defecto si no es positiva, acotada al máximo.
func (uc *ReservationUseCase) TTL(requested time.Duration) time.Duration {
	if requested <= 0 {
		return uc.opts.DefaultTTL
	}
	if requested > uc.opts.MaxTTL {
		return uc.opts.MaxTTL
	}
	return requested
}

// TTLFromSeconds resuelve una vigencia pedida en segundos sin desbordar time.Duration.
func (uc *ReservationUseCase) TTLFromSeconds(seconds int64) time.Duration {
	if seconds <= 0 {
		return uc.opts.DefaultTTL
	}
	if seconds > int64(uc.opts.MaxTTL/time.Second) {
		return uc.opts.MaxTTL
	}
	return uc.TTL(time.Duration(seconds) * time.Second)
}

// Reserve bajo el bloqueo de la tupla verifica disponible ≥ cantidad y crea la reserva ACTIVE.
func (uc *ReservationUseCase) Reserve(ctx context.Context, in ReserveInput) (res *entity.Reservation, err error) {
	if in.ProductID == "" || in.LocationID == "" || in.SessionReference == "" || in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	ctx, span := startSpan(ctx, "reservations.Reserve",
		attribute.String("location_id", in.LocationID),
		attribute.String("product_id", in.ProductID),
		attribute.Int64("quantity", in.Quantity))
	defer func() { endSpan(span, err) }()

	now := time.Now().UTC()
	res = &entity.Reservation{
		ID:               uuid.New().String(),
		ProductID:        in.ProductID,
		LocationID:       in.LocationID,
		Quantity:         in.Quantity,
		SessionReference: in.SessionReference,
		Status:           entity.ReservationActive,
		CreatedAt:        now,
		ExpiresAt:        now.Add(uc.TTL(in.TTL)),
	}
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		loc, err := repos.Locations.GetByID(ctx, in.LocationID)
		if err != nil {
			return err
		}
		if err := lockTuples(ctx, repos, res.Key()); err != nil {
			return err
		}
		avail, err := availability(ctx, repos, loc, in.ProductID)
		if err != nil {
			return err
		}
		if avail.Available < in.Quantity {
			return &domain.InsufficientStockError{
				LocationID: in.LocationID, ProductID: in.ProductID, Available: avail.Available, Requested: in.Quantity,
			}
		}
		return repos.Reservations.Create(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("reserva", res.ID).Str("sesion", res.SessionReference).
		Str("ubicacion", res.LocationID).Str("producto", res.ProductID).Int64("cantidad", res.Quantity).
		Time("vence", res.ExpiresAt).Msg("reserva creada")
	return res, nil
}

// Release libera una reserva ACTIVE. Es idempotente: una reserva terminal se devuelve sin cambios.
func (uc *ReservationUseCase) Release(ctx context.Context, id string) (*entity.Reservation, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	var res *entity.Reservation
	changed := false
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		r, err := repos.Reservations.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		res = r
		if r.IsTerminal() {
			return nil
		}
		if err := r.TransitionTo(entity.ReservationReleased, time.Now().UTC()); err != nil {
			return err
		}
		changed = true
		return repos.Reservations.Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		uc.log.Info().Str("reserva", res.ID).Msg("reserva liberada")
	}
	return res, nil
}

// ReleaseSession libera todas las reservas ACTIVE de un carrito abandonado.
func (uc *ReservationUseCase) ReleaseSession(ctx context.Context, sessionReference string) ([]*entity.Reservation, error) {
	if sessionReference == "" {
		return nil, domain.ErrInvalidInput
	}
	var released []*entity.Reservation
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		released = released[:0]
		list, err := repos.Reservations.ListBySession(ctx, sessionReference)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, candidate := range list {
			if candidate.IsTerminal() {
				continue
			}
			r, err := repos.Reservations.GetForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if r.IsTerminal() {
				continue
			}
			if err := r.TransitionTo(entity.ReservationReleased, now); err != nil {
				return err
			}
			if err := repos.Reservations.Update(ctx, r); err != nil {
				return err
			}
			released = append(released, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(released) > 0 {
		uc.log.Info().Str("sesion", sessionReference).Int("reservas", len(released)).Msg("reservas de sesión liberadas")
	}
	return released, nil
}

// Commit convierte una reserva ACTIVE en venta: bloqueo de tupla, bloqueo de la reserva,
// descuento del libro (razón SALE) y estado COMMITTED en una sola transacción.
// Si el libro falla la reserva sigue ACTIVE.
func (uc *ReservationUseCase) Commit(ctx context.Context, id, saleReference string) (res *entity.Reservation, err error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	ctx, span := startSpan(ctx, "reservations.Commit", attribute.String("reservation_id", id))
	defer func() { endSpan(span, err) }()

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		current, err := repos.Reservations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := lockTuples(ctx, repos, current.Key()); err != nil {
			return err
		}
		r, err := repos.Reservations.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.IsTerminal() {
			return &domain.InvalidStateTransitionError{Entity: "reserva", ID: r.ID, From: r.Status, To: entity.ReservationCommitted}
		}
		loc, err := repos.Locations.GetByID(ctx, r.LocationID)
		if err != nil {
			return err
		}
		if _, err := applyDelta(ctx, repos, loc, deltaRequest{
			Key:          r.Key(),
			Delta:        -r.Quantity,
			Reason:       ReasonSale,
			ReleasedHold: r.Quantity,
		}); err != nil {
			return err
		}
		if err := r.TransitionTo(entity.ReservationCommitted, time.Now().UTC()); err != nil {
			return err
		}
		r.SaleReference = saleReference
		res = r
		return repos.Reservations.Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("reserva", res.ID).Str("venta", saleReference).
		Str("ubicacion", res.LocationID).Str("producto", res.ProductID).Int64("cantidad", res.Quantity).
		Msg("reserva confirmada como venta")
	uc.effects.afterCommit(ctx, []Event{{
		Type:        EventReservationCommitted,
		AggregateID: res.ID,
		ProductID:   res.ProductID,
		LocationID:  res.LocationID,
		Quantity:    res.Quantity,
		OccurredAt:  *res.FinalizedAt,
		Data:        map[string]any{"sale_reference": saleReference, "session_reference": res.SessionReference},
	}})
	return res, nil
}

// ExpireDue expira en lotes las reservas ACTIVE con expires_at < now. Cada reserva se expira una
// sola vez aunque corran varios barridos a la vez. Devuelve cuántas expiró esta llamada.
func (uc *ReservationUseCase) ExpireDue(ctx context.Context, now time.Time) (total int, err error) {
	ctx, span := startSpan(ctx, "reservations.ExpireDue")
	defer func() {
		span.SetAttributes(attribute.Int("expired", total))
		endSpan(span, err)
	}()

	for {
		var expired []*entity.Reservation
		err = uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
			var err error
			expired, err = repos.Reservations.ExpireDue(ctx, now, uc.opts.SweepBatchSize)
			return err
		})
		if err != nil {
			return total, err
		}
		total += len(expired)
		if len(expired) > 0 {
			uc.effects.afterCommit(ctx, expiredEvents(expired, now))
		}
		if len(expired) < uc.opts.SweepBatchSize {
			break
		}
	}
	if total > 0 {
		uc.log.Info().Int("reservas", total).Msg("reservas vencidas expiradas")
	}
	return total, nil
}

// expiredEvents agrupa las reservas expiradas por producto.
func expiredEvents(expired []*entity.Reservation, now time.Time) []Event {
	byProduct := make(map[string][]string)
	qty := make(map[string]int64)
	order := make([]string, 0)
	for _, r := range expired {
		if _, ok := byProduct[r.ProductID]; !ok {
			order = append(order, r.ProductID)
		}
		byProduct[r.ProductID] = append(byProduct[r.ProductID], r.ID)
		qty[r.ProductID] += r.Quantity
	}
	events := make([]Event, 0, len(order))
	for _, p := range order {
		events = append(events, Event{
			Type:        EventReservationsExpired,
			AggregateID: p,
			ProductID:   p,
			Quantity:    qty[p],
			OccurredAt:  now,
			Data:        map[string]any{"reservation_ids": byProduct[p]},
		})
	}
	return events
}

// Get devuelve una reserva.
func (uc *ReservationUseCase) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	var res *entity.Reservation
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		var err error
		res, err = repos.Reservations.GetByID(ctx, id)
		return err
	})
	return res, err
}

// ListBySession devuelve las reservas de un carrito.
func (uc *ReservationUseCase) ListBySession(ctx context.Context, sessionReference string) ([]*entity.Reservation, error) {
	if sessionReference == "" {
		return nil, domain.ErrInvalidInput
	}
	var list []*entity.Reservation
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		var err error
		list, err = repos.Reservations.ListBySession(ctx, sessionReference)
		return err
	})
	return list, err
}
