package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

func TestFulfill_ReportaTodosLosFaltantesYNoAplicaNada(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 2, 10)
	f.receive(t, "W1", "P3", 10, 10)
	ctx := context.Background()

	tr, err := f.transfers.Create(ctx, inventory.CreateTransferInput{
		SourceLocationID: "W1", DestinationLocationID: "S1",
		Lines: []inventory.TransferLineInput{
			{ProductID: "P1", Quantity: 5},
			{ProductID: "P2", Quantity: 3},
			{ProductID: "P3", Quantity: 4},
		},
	})
	require.NoError(t, err)

	_, err = f.transfers.Fulfill(ctx, tr.ID, "bodeguero-1")
	var tve *domain.TransferValidationError
	require.True(t, errors.As(err, &tve))
	require.Len(t, tve.Shortfalls, 2)
	assert.Equal(t, "P1", tve.Shortfalls[0].ProductID)
	assert.Equal(t, int64(2), tve.Shortfalls[0].Available)
	assert.Equal(t, "P2", tve.Shortfalls[1].ProductID)
	assert.Equal(t, int64(0), tve.Shortfalls[1].Available)

	assert.Equal(t, int64(10), f.available(t, "W1", "P3").OnHand, "la línea válida tampoco se aplica")
	assert.Equal(t, int64(0), f.available(t, "S1", "P3").OnHand)
	got, err := f.transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferNew, got.Status)
	assert.Empty(t, f.pub.ofType(inventory.EventTransferCompleted))
}

func TestFulfill_FallaAMitadRevierteTodasLasLineas(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 10, 10)
	f.receive(t, "W1", "P3", 10, 10)
	ctx := context.Background()

	tr, err := f.transfers.Create(ctx, inventory.CreateTransferInput{
		SourceLocationID: "W1", DestinationLocationID: "W2",
		Lines: []inventory.TransferLineInput{{ProductID: "P1", Quantity: 4}, {ProductID: "P3", Quantity: 3}},
	})
	require.NoError(t, err)

	// La primera línea ya descontó el origen y creó el lote destino cuando falla la segunda.
	failing := inventory.NewTransferUseCase(failingRunner{inner: f.store, failOn: 2},
		inventory.NewEffects(f.pub, nil, nil), nil)
	_, err = failing.Fulfill(ctx, tr.ID, "bodeguero-1")
	require.ErrorIs(t, err, errLedgerWrite)

	got, err := f.transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferNew, got.Status)
	assert.Empty(t, got.CompletedBy)
	for _, p := range []string{"P1", "P3"} {
		assert.Equal(t, int64(10), f.available(t, "W1", p).OnHand, p)
		assert.Equal(t, int64(0), f.available(t, "W2", p).OnHand, p)
		assert.Empty(t, f.batches(t, "W2", p), p)
	}
	assert.Empty(t, f.pub.ofType(inventory.EventTransferCompleted))

	done, err := f.transfers.Fulfill(ctx, tr.ID, "bodeguero-1")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, done.Status)
	assert.Equal(t, int64(4), f.available(t, "W2", "P1").OnHand)
}

func TestFulfill_AplicaAmbosLadosConCostoPromedio(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 5, 10)
	f.receive(t, "W1", "P1", 5, 20)

	tr := f.transfer(t, "W1", "W2", "P1", 8)

	assert.Equal(t, entity.TransferCompleted, tr.Status)
	assert.Equal(t, "bodeguero-1", tr.CompletedBy)
	assert.True(t, decimal.RequireFromString("13.75").Equal(tr.Lines[0].UnitCost), "(5×10 + 3×20) / 8")
	assert.Equal(t, int64(2), f.available(t, "W1", "P1").OnHand)
	assert.Equal(t, int64(8), f.available(t, "W2", "P1").OnHand)

	dest := f.batches(t, "W2", "P1")
	require.Len(t, dest, 1)
	assert.Equal(t, int64(0), dest[0].OriginalIntakeQuantity, "un traslado no es un ingreso nuevo")
	assert.Equal(t, tr.ID, dest[0].SourceTransferID)
	assert.True(t, decimal.RequireFromString("13.75").Equal(dest[0].UnitCost))
}

func TestFulfill_DesdeTiendaConservaElCostoDelOrigen(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 10, 7)
	f.transfer(t, "W1", "S1", "P1", 6)

	back := f.transfer(t, "S1", "W2", "P1", 2)

	assert.True(t, decimal.NewFromInt(7).Equal(back.Lines[0].UnitCost), "la tienda no tiene lotes: se usa el costo del traslado que la surtió")
	dest := f.batches(t, "W2", "P1")
	require.Len(t, dest, 1)
	assert.True(t, decimal.NewFromInt(7).Equal(dest[0].UnitCost))
	assert.Equal(t, int64(4), f.available(t, "S1", "P1").OnHand)
}

func TestFulfill_CompletadoEsIdempotente(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 10, 10)
	tr := f.transfer(t, "W1", "S1", "P1", 4)

	again, err := f.transfers.Fulfill(context.Background(), tr.ID, "otro")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, again.Status)
	assert.Equal(t, "bodeguero-1", again.CompletedBy)
	assert.Equal(t, int64(6), f.available(t, "W1", "P1").OnHand)
	assert.Equal(t, int64(4), f.available(t, "S1", "P1").OnHand)
	assert.Len(t, f.pub.ofType(inventory.EventTransferCompleted), 1)
}

func TestFulfill_RespetaReservasDelOrigen(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 10, 10)
	f.reserve(t, "W1", "P1", 8, "carrito-1")
	ctx := context.Background()

	tr, err := f.transfers.Create(ctx, inventory.CreateTransferInput{
		SourceLocationID: "W1", DestinationLocationID: "W2",
		Lines: []inventory.TransferLineInput{{ProductID: "P1", Quantity: 5}},
	})
	require.NoError(t, err)
	_, err = f.transfers.Fulfill(ctx, tr.ID, "bodeguero-1")
	var tve *domain.TransferValidationError
	require.True(t, errors.As(err, &tve))
	assert.Equal(t, int64(2), tve.Shortfalls[0].Available)
}

func TestCancel_EstadosYIdempotencia(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 10, 10)
	ctx := context.Background()

	tr, err := f.transfers.Create(ctx, inventory.CreateTransferInput{
		SourceLocationID: "W1", DestinationLocationID: "S1",
		Lines: []inventory.TransferLineInput{{ProductID: "P1", Quantity: 5}},
	})
	require.NoError(t, err)
	tr, err = f.transfers.Dispatch(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, tr.Status)

	tr, err = f.transfers.Cancel(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, tr.Status)

	_, err = f.transfers.Cancel(ctx, tr.ID)
	assert.NoError(t, err, "cancelar dos veces no falla")

	_, err = f.transfers.Fulfill(ctx, tr.ID, "bodeguero-1")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Equal(t, int64(10), f.available(t, "W1", "P1").OnHand)
}

func TestCancel_CompletadoNoSePuedeCancelar(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 10, 10)
	tr := f.transfer(t, "W1", "S1", "P1", 5)

	_, err := f.transfers.Cancel(context.Background(), tr.ID)
	var iste *domain.InvalidStateTransitionError
	require.True(t, errors.As(err, &iste))
	assert.Equal(t, entity.TransferCompleted, iste.From)
	assert.Equal(t, entity.TransferCancelled, iste.To)
}

func TestUpdateNotes_NoReaplicaElLibro(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 10, 10)
	tr := f.transfer(t, "W1", "S1", "P1", 5)

	out, err := f.transfers.UpdateNotes(context.Background(), tr.ID, "recibido con caja rota")
	require.NoError(t, err)
	assert.Equal(t, "recibido con caja rota", out.Notes)
	assert.Equal(t, entity.TransferCompleted, out.Status)
	assert.Equal(t, int64(5), f.available(t, "W1", "P1").OnHand)
	assert.Equal(t, int64(5), f.available(t, "S1", "P1").OnHand)
}

func TestCreate_ValidaTraslado(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	ctx := context.Background()

	_, err := f.transfers.Create(ctx, inventory.CreateTransferInput{
		SourceLocationID: "W1", DestinationLocationID: "W1",
		Lines: []inventory.TransferLineInput{{ProductID: "P1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.transfers.Create(ctx, inventory.CreateTransferInput{
		SourceLocationID: "W1", DestinationLocationID: "S1",
		Lines: []inventory.TransferLineInput{{ProductID: "P1", Quantity: 1}, {ProductID: "P1", Quantity: 2}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.transfers.Create(ctx, inventory.CreateTransferInput{
		SourceLocationID: "W1", DestinationLocationID: "X9",
		Lines: []inventory.TransferLineInput{{ProductID: "P1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
