package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// ExpirySweeper worker en segundo plano que expira reservas vencidas cada intervalo.
// Es seguro correrlo en varias réplicas: ExpireDue nunca expira dos veces la misma reserva.
type ExpirySweeper struct {
	reservations *ReservationUseCase
	interval     time.Duration
	log          *logger.Logger
	now          func() time.Time
}

// NewExpirySweeper construye el barrido.
func NewExpirySweeper(reservations *ReservationUseCase, interval time.Duration, log *logger.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ExpirySweeper{reservations: reservations, interval: interval, log: log, now: time.Now}
}

// Run barre hasta que ctx se cancela. Los errores se registran y el barrido sigue.
func (s *ExpirySweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.log.Info().Dur("intervalo", s.interval).Msg("barrido de reservas iniciado")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("barrido de reservas detenido")
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce ejecuta un barrido completo y devuelve cuántas reservas expiró.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) int {
	n, err := s.reservations.ExpireDue(ctx, s.now().UTC())
	switch {
	case err == nil:
	case ctx.Err() != nil:
	case domain.IsRetryable(err):
		s.log.Warn().Err(err).Msg("barrido de reservas: contención, se reintenta en el próximo ciclo")
	default:
		s.log.Error().Err(err).Msg("barrido de reservas falló")
	}
	return n
}
