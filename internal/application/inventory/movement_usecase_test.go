package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

func TestList_PaginasDisjuntasConTotal(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	for i := 0; i < 120; i++ {
		f.receive(t, "W1", "P1", 1, 1)
	}
	ctx := context.Background()
	filter := repository.MovementFilter{ProductIDs: []string{"P1"}}

	first, err := f.movements.List(ctx, filter, 50, 0)
	require.NoError(t, err)
	second, err := f.movements.List(ctx, filter, 50, 50)
	require.NoError(t, err)
	third, err := f.movements.List(ctx, filter, 50, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(120), second.Total)
	assert.Len(t, first.Items, 50)
	assert.Len(t, second.Items, 50)
	assert.Len(t, third.Items, 20)

	seen := map[string]bool{}
	for _, page := range []*inventory.MovementPage{first, second, third} {
		for _, m := range page.Items {
			assert.False(t, seen[m.ID], "el movimiento %s aparece en dos páginas", m.ID)
			seen[m.ID] = true
		}
	}
	assert.Len(t, seen, 120)
}

func TestList_PaginaPorDefectoYMaxima(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	ctx := context.Background()

	page, err := f.movements.List(ctx, repository.MovementFilter{}, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, inventory.DefaultMovementPageSize, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.NotNil(t, page.Items)

	page, err = f.movements.List(ctx, repository.MovementFilter{}, 10_000, 0)
	require.NoError(t, err)
	assert.Equal(t, inventory.MaxMovementPageSize, page.Limit)
}

func TestList_IncluyeTodosLosTiposConSigno(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	b := f.receive(t, "W1", "P1", 10, 10)
	f.transfer(t, "W1", "S1", "P1", 4)
	r := f.reserve(t, "S1", "P1", 1, "pos-1")
	ctx := context.Background()
	_, err := f.reservations.Commit(ctx, r.ID, "ticket-1")
	require.NoError(t, err)
	adj := submitTheft(t, f, b.ID, -2)
	_, err = f.adjustments.Approve(ctx, adj.ID, "gerente-1", "")
	require.NoError(t, err)

	page, err := f.movements.List(ctx, repository.MovementFilter{ProductIDs: []string{"P1"}}, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total, "ingreso, salida y entrada del traslado, venta y ajuste")

	var net int64
	byType := map[string]int{}
	for _, m := range page.Items {
		net += m.SignedQuantity
		byType[m.ReferenceType]++
		assert.Equal(t, "Café molido", m.ProductName)
	}
	assert.Equal(t, int64(10-1-2), net)
	assert.Equal(t, 2, byType[entity.MovementTransfer])

	sales, err := f.movements.List(ctx, repository.MovementFilter{
		LocationID: "S1", ReferenceTypes: []string{entity.MovementSale},
	}, 50, 0)
	require.NoError(t, err)
	require.Len(t, sales.Items, 1)
	assert.Equal(t, int64(-1), sales.Items[0].SignedQuantity)
}

func TestList_BusquedaSinTildesNiMayusculas(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 1, 1)
	f.receive(t, "W1", "P2", 1, 1)
	ctx := context.Background()

	page, err := f.movements.List(ctx, repository.MovementFilter{Search: "  CAFE "}, 50, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "P1", page.Items[0].ProductID)

	page, err = f.movements.List(ctx, repository.MovementFilter{Search: "azu-0"}, 50, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "P2", page.Items[0].ProductID)
}

func TestList_FiltrosInvalidos(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	ctx := context.Background()

	_, err := f.movements.List(ctx, repository.MovementFilter{ReferenceTypes: []string{"REGALO"}}, 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	now := time.Now()
	before := now.Add(-time.Hour)
	_, err = f.movements.List(ctx, repository.MovementFilter{From: &now, To: &before}, 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSummarize_AgrupaElConjuntoCompletoYSeInvalidaConElLibro(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	f.receive(t, "W1", "P1", 7, 1)
	f.receive(t, "W1", "P2", 3, 1)
	f.transfer(t, "W1", "S1", "P1", 2)
	ctx := context.Background()

	groups, err := f.movements.Summarize(ctx, repository.MovementFilter{}, repository.GroupByLocation)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "S1", groups[0].Group)
	assert.Equal(t, int64(2), groups[0].Inbound)
	assert.Equal(t, "W1", groups[1].Group)
	assert.Equal(t, int64(10), groups[1].Inbound)
	assert.Equal(t, int64(2), groups[1].Outbound)
	assert.Equal(t, int64(8), groups[1].Net)

	cached, err := f.movements.Summarize(ctx, repository.MovementFilter{}, repository.GroupByLocation)
	require.NoError(t, err)
	assert.Equal(t, groups, cached)

	f.receive(t, "W1", "P3", 5, 1)
	fresh, err := f.movements.Summarize(ctx, repository.MovementFilter{}, repository.GroupByLocation)
	require.NoError(t, err)
	assert.Equal(t, int64(15), fresh[1].Inbound, "un cambio del libro invalida el resumen en caché")
}

func TestSummarize_AgrupacionNoSoportada(t *testing.T) {
	f := newFixture(t, inventory.ReservationOptions{})
	_, err := f.movements.Summarize(context.Background(), repository.MovementFilter{}, "hour")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
