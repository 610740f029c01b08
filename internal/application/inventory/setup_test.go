package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-core/internal/infrastructure/memory"
)

// recordingPublisher guarda los eventos publicados tras cada commit.
type recordingPublisher struct {
	mu     sync.Mutex
	events []inventory.Event
}

func (p *recordingPublisher) Publish(_ context.Context, events ...inventory.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []inventory.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []inventory.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

var errLedgerWrite = errors.New("escritura del libro fallida")

// failingLedger falla en la llamada número failOn a UpdateBatchQuantity dentro de la transacción.
type failingLedger struct {
	repository.LedgerRepository
	failOn int
	calls  *int
}

func (l failingLedger) UpdateBatchQuantity(ctx context.Context, id string, current int64, at time.Time) error {
	*l.calls++
	if *l.calls == l.failOn {
		return errLedgerWrite
	}
	return l.LedgerRepository.UpdateBatchQuantity(ctx, id, current, at)
}

// failingRunner envuelve el store y entrega a cada transacción un libro que falla a mitad de camino.
type failingRunner struct {
	inner  inventory.TxRunner
	failOn int
}

func (r failingRunner) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.TxRepos) error) error {
	return r.inner.Run(ctx, func(ctx context.Context, repos inventory.TxRepos) error {
		calls := 0
		repos.Ledger = failingLedger{LedgerRepository: repos.Ledger, failOn: r.failOn, calls: &calls}
		return fn(ctx, repos)
	})
}

type fixture struct {
	store          *memory.Store
	pub            *recordingPublisher
	ledger         *inventory.LedgerUseCase
	reservations   *inventory.ReservationUseCase
	transfers      *inventory.TransferUseCase
	adjustments    *inventory.AdjustmentUseCase
	reconciliation *inventory.ReconciliationUseCase
	movements      *inventory.MovementUseCase
}

// newFixture: bodegas W1 y W2, tienda S1; productos P1 (Café molido), P2 y P3.
func newFixture(t *testing.T, opts inventory.ReservationOptions) *fixture {
	t.Helper()
	store := memory.New(2 * time.Second)
	store.AddLocation(entity.Location{ID: "W1", Name: "Bodega central", Kind: entity.LocationKindWarehouse})
	store.AddLocation(entity.Location{ID: "W2", Name: "Bodega norte", Kind: entity.LocationKindWarehouse})
	store.AddLocation(entity.Location{ID: "S1", Name: "Tienda centro", Kind: entity.LocationKindStorefront})
	store.AddProduct(entity.Product{ID: "P1", SKU: "CAF-001", Name: "Café molido", CategoryID: "C-BEB"})
	store.AddProduct(entity.Product{ID: "P2", SKU: "AZU-001", Name: "Azúcar", CategoryID: "C-ABA"})
	store.AddProduct(entity.Product{ID: "P3", SKU: "ARR-001", Name: "Arroz", CategoryID: "C-ABA"})

	pub := &recordingPublisher{}
	reportCache := cache.NewMemoryCache()
	effects := inventory.NewEffects(pub, reportCache, nil)
	return &fixture{
		store:          store,
		pub:            pub,
		ledger:         inventory.NewLedgerUseCase(store, effects, nil),
		reservations:   inventory.NewReservationUseCase(store, effects, nil, opts),
		transfers:      inventory.NewTransferUseCase(store, effects, nil),
		adjustments:    inventory.NewAdjustmentUseCase(store, effects, nil),
		reconciliation: inventory.NewReconciliationUseCase(store, nil),
		movements:      inventory.NewMovementUseCase(store, reportCache, time.Minute, nil),
	}
}

func (f *fixture) receive(t *testing.T, locationID, productID string, qty int64, unitCost int64) *entity.StockBatch {
	t.Helper()
	b, err := f.ledger.Receive(context.Background(), inventory.ReceiveInput{
		LocationID: locationID, ProductID: productID, Quantity: qty, UnitCost: decimal.NewFromInt(unitCost),
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) available(t *testing.T, locationID, productID string) *inventory.Availability {
	t.Helper()
	a, err := f.ledger.GetAvailable(context.Background(), locationID, productID)
	require.NoError(t, err)
	return a
}

func (f *fixture) reserve(t *testing.T, locationID, productID string, qty int64, session string) *entity.Reservation {
	t.Helper()
	r, err := f.reservations.Reserve(context.Background(), inventory.ReserveInput{
		LocationID: locationID, ProductID: productID, Quantity: qty, SessionReference: session,
	})
	require.NoError(t, err)
	return r
}

// transfer crea y completa un traslado de una línea.
func (f *fixture) transfer(t *testing.T, from, to, productID string, qty int64) *entity.Transfer {
	t.Helper()
	ctx := context.Background()
	tr, err := f.transfers.Create(ctx, inventory.CreateTransferInput{
		SourceLocationID: from, DestinationLocationID: to,
		Lines: []inventory.TransferLineInput{{ProductID: productID, Quantity: qty}},
	})
	require.NoError(t, err)
	tr, err = f.transfers.Fulfill(ctx, tr.ID, "bodeguero-1")
	require.NoError(t, err)
	return tr
}

func (f *fixture) batches(t *testing.T, locationID, productID string) []*entity.StockBatch {
	t.Helper()
	var out []*entity.StockBatch
	require.NoError(t, f.store.Run(context.Background(), func(ctx context.Context, repos inventory.TxRepos) error {
		var err error
		out, err = repos.Ledger.ListBatches(ctx, locationID, productID)
		return err
	}))
	return out
}

func (f *fixture) allocation(t *testing.T, locationID, productID string) *entity.LocationAllocation {
	t.Helper()
	var out *entity.LocationAllocation
	require.NoError(t, f.store.Run(context.Background(), func(ctx context.Context, repos inventory.TxRepos) error {
		var err error
		out, err = repos.Ledger.GetAllocation(ctx, locationID, productID)
		return err
	}))
	return out
}
