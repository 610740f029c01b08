package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-core/pkg/logger"
)

// Tipos de evento de dominio.
const (
	EventStockReceived        = "StockReceived"
	EventReservationCommitted = "ReservationCommitted"
	EventReservationsExpired  = "ReservationsExpired"
	EventTransferCompleted    = "TransferCompleted"
	EventAdjustmentApplied    = "AdjustmentApplied"
)

// Event evento publicado tras un cambio confirmado del libro. ProductID es la clave de partición.
type Event struct {
	Type        string         `json:"type"`
	AggregateID string         `json:"aggregate_id"`
	ProductID   string         `json:"product_id"`
	LocationID  string         `json:"location_id,omitempty"`
	Quantity    int64          `json:"quantity"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Data        map[string]any `json:"data,omitempty"`
}

// Effects efectos posteriores al commit: eventos e invalidación de caché.
// Nunca se ejecutan con una transacción abierta; sus fallos se registran y no se propagan.
type Effects struct {
	publisher EventPublisher
	cache     ReportCache
	log       *logger.Logger
}

// NewEffects construye los efectos post-commit. publisher y cache pueden ser nil.
func NewEffects(publisher EventPublisher, cache ReportCache, log *logger.Logger) *Effects {
	if log == nil {
		log = logger.Nop()
	}
	return &Effects{publisher: publisher, cache: cache, log: log}
}

func (e *Effects) afterCommit(ctx context.Context, events []Event) {
	if e == nil || len(events) == 0 {
		return
	}
	if e.cache != nil {
		if err := e.cache.BumpVersion(ctx); err != nil {
			e.log.Error().Err(err).Msg("no se pudo invalidar la caché de reportes")
		}
	}
	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, events...); err != nil {
			e.log.Error().Err(err).Int("eventos", len(events)).Str("tipo", events[0].Type).
				Msg("no se pudieron publicar eventos de inventario")
		}
	}
}
