// Package memory implementa los puertos de inventario en memoria con la misma semántica
// transaccional que PostgreSQL: cada Run trabaja sobre una copia del estado confirmado y la
// publica solo si fn termina sin error. Un único escritor a la vez, con el mismo tiempo máximo
// de espera de bloqueo. Se usa en tests y en entornos sin base de datos.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	locations    map[string]entity.Location
	products     map[string]entity.Product
	batches      map[string]entity.StockBatch
	batchSeq     map[string]int64
	seq          int64
	allocations  map[string]entity.LocationAllocation
	reservations map[string]entity.Reservation
	transfers    map[string]entity.Transfer
	adjustments  map[string]entity.Adjustment
}

func newState() *state {
	return &state{
		locations:    map[string]entity.Location{},
		products:     map[string]entity.Product{},
		batches:      map[string]entity.StockBatch{},
		batchSeq:     map[string]int64{},
		allocations:  map[string]entity.LocationAllocation{},
		reservations: map[string]entity.Reservation{},
		transfers:    map[string]entity.Transfer{},
		adjustments:  map[string]entity.Adjustment{},
	}
}

// clone copia los mapas; las entidades se guardan por valor y los slices de líneas nunca se
// modifican en sitio, así que la copia es independiente del original.
func (s *state) clone() *state {
	c := &state{
		locations:    make(map[string]entity.Location, len(s.locations)),
		products:     make(map[string]entity.Product, len(s.products)),
		batches:      make(map[string]entity.StockBatch, len(s.batches)),
		batchSeq:     make(map[string]int64, len(s.batchSeq)),
		seq:          s.seq,
		allocations:  make(map[string]entity.LocationAllocation, len(s.allocations)),
		reservations: make(map[string]entity.Reservation, len(s.reservations)),
		transfers:    make(map[string]entity.Transfer, len(s.transfers)),
		adjustments:  make(map[string]entity.Adjustment, len(s.adjustments)),
	}
	for k, v := range s.locations {
		c.locations[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.batchSeq {
		c.batchSeq[k] = v
	}
	for k, v := range s.allocations {
		c.allocations[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.transfers {
		c.transfers[k] = v
	}
	for k, v := range s.adjustments {
		c.adjustments[k] = v
	}
	return c
}

func (s *state) repos() inventory.TxRepos {
	return inventory.TxRepos{
		Locations:    &locationRepo{st: s},
		Products:     &productRepo{st: s},
		Ledger:       &ledgerRepo{st: s},
		Reservations: &reservationRepo{st: s},
		Transfers:    &transferRepo{st: s},
		Adjustments:  &adjustmentRepo{st: s},
	}
}

// Store almacén transaccional en memoria.
type Store struct {
	writer      chan struct{}
	lockTimeout time.Duration

	mu        sync.RWMutex
	committed *state
}

// New crea un almacén vacío. lockTimeout acota la espera por el escritor (0 = 3s).
func New(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &Store{
		writer:      make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		committed:   newState(),
	}
}

// Run ejecuta fn sobre una copia del estado y la confirma si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.TxRepos) error) error {
	if inventory.InTx(ctx) {
		return domain.ErrNestedTransaction
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer func() { <-s.writer }()

	work := s.snapshot().clone()
	if err := fn(inventory.WithTx(ctx), work.repos()); err != nil {
		return err
	}
	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

func (s *Store) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.writer <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("memoria: esperando transacción: %w", domain.ErrLockTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// snapshot devuelve el estado confirmado; nunca se modifica después de publicarse.
func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}

func (s *Store) write(fn func(st *state)) {
	s.writer <- struct{}{}
	defer func() { <-s.writer }()
	work := s.snapshot().clone()
	fn(work)
	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
}

// AddLocation registra una ubicación del catálogo externo.
func (s *Store) AddLocation(l entity.Location) {
	s.write(func(st *state) { st.locations[l.ID] = l })
}

// AddProduct registra un producto del catálogo externo.
func (s *Store) AddProduct(p entity.Product) {
	s.write(func(st *state) { st.products[p.ID] = p })
}
