package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-core/internal/domain/inventory"
)

func TestReconcile_IngresoTrasladoYVentaCuadran(t *testing.T) {
	// 459 ingresadas, 179 trasladadas a tienda, 135 vendidas allí.
	rep := inventory.Reconcile(inventory.ReconciliationInput{
		ProductID:        "P1",
		RecordedIntake:   459,
		WarehouseCurrent: 280,
		Storefronts:      []inventory.StorefrontPosition{{LocationID: "S1", Quantity: 179, Sold: 135}},
	})

	assert.Equal(t, int64(280), rep.WarehouseCurrent)
	assert.Equal(t, int64(179), rep.AllocationTotal)
	assert.Equal(t, int64(0), rep.Delta)
	assert.Equal(t, inventory.ReconciliationBalanced, rep.Status)
	assert.Equal(t, int64(44), rep.Storefronts[0].SellableNow)
}

func TestReconcile_ReservasMermaYCorreccionesCuadran(t *testing.T) {
	// 100 ingresadas; 10 robadas en bodega; 5 encontradas; 20 a tienda; 3 vendidas desde bodega;
	// 4 retenidas en carritos activos.
	rep := inventory.Reconcile(inventory.ReconciliationInput{
		RecordedIntake:     100,
		WarehouseCurrent:   100 - 10 + 5 - 20 - 3,
		ShrinkageApplied:   -10,
		CorrectionsApplied: 5,
		WarehouseSold:      3,
		ActiveHolds:        4,
		Storefronts:        []inventory.StorefrontPosition{{LocationID: "S1", Quantity: 20, Sold: 7}},
	})

	assert.Equal(t, int64(-10), rep.ShrinkageQuantity)
	assert.Equal(t, int64(4+3-5), rep.CorrectionQuantity)
	assert.Equal(t, int64(0), rep.Delta)
	assert.True(t, rep.IsBalanced())
}

func TestReconcile_UnidadesSinJustificarDanDescuadre(t *testing.T) {
	rep := inventory.Reconcile(inventory.ReconciliationInput{
		RecordedIntake:   50,
		WarehouseCurrent: 47,
	})

	assert.Equal(t, int64(3), rep.Delta)
	assert.Equal(t, inventory.ReconciliationMismatch, rep.Status)
	assert.NotNil(t, rep.Storefronts)
}

func TestWeightedAverageCost_PonderaPorCantidad(t *testing.T) {
	cost := inventory.WeightedAverageCost([]inventory.CostPortion{
		{Quantity: 10, UnitCost: decimal.NewFromInt(100)},
		{Quantity: 30, UnitCost: decimal.NewFromInt(200)},
		{Quantity: 0, UnitCost: decimal.NewFromInt(999)},
	})
	assert.True(t, decimal.NewFromInt(175).Equal(cost), "got %s", cost)
	assert.True(t, inventory.WeightedAverageCost(nil).IsZero())
}
