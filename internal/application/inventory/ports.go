package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Locations    repository.LocationRepository
	Products     repository.ProductRepository
	Ledger       repository.LedgerRepository
	Reservations repository.ReservationRepository
	Transfers    repository.TransferRepository
	Adjustments  repository.AdjustmentRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Solo el llamador más externo abre la transacción: Run dentro de otro Run devuelve
// domain.ErrNestedTransaction. Los helpers reciben TxRepos y nunca abren su propio alcance.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// EventPublisher publica eventos de dominio después del commit.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// ReportCache caché de reportes de lectura. Version cambia con cada mutación confirmada del libro.
type ReportCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Version(ctx context.Context) (int64, error)
	BumpVersion(ctx context.Context) error
}

type txKey struct{}

// WithTx marca ctx como perteneciente a una transacción abierta.
func WithTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, true)
}

// InTx indica si ctx ya pertenece a una transacción.
func InTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}
