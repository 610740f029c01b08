package inventory

// Estados de un reporte de conciliación.
const (
	ReconciliationBalanced = "BALANCED"
	ReconciliationMismatch = "RECONCILIATION_MISMATCH"
)

// StorefrontPosition posición de un producto en una tienda.
type StorefrontPosition struct {
	LocationID string
	Quantity   int64
	Sold       int64
}

// ReconciliationInput totales crudos de un producto sobre todos sus lotes, asignaciones, ajustes y reservas.
// Los ajustes son efectos netos con signo de ajustes APPLIED.
type ReconciliationInput struct {
	ProductID          string
	RecordedIntake     int64 // Σ lote.original_intake_quantity
	WarehouseCurrent   int64 // Σ lote.current_quantity
	ShrinkageApplied   int64 // tipos de merma (≤ 0 si hubo pérdidas)
	CorrectionsApplied int64 // resto de tipos
	WarehouseSold      int64 // reservas COMMITTED cuyo origen fue una bodega
	ActiveHolds        int64 // Σ reservas ACTIVE
	Storefronts        []StorefrontPosition
}

// StorefrontBreakdown detalle por tienda del reporte.
type StorefrontBreakdown struct {
	LocationID  string
	Quantity    int64
	Sold        int64
	SellableNow int64
}

// ReconciliationReport desglose completo. Un descuadre es un dato, no un error.
type ReconciliationReport struct {
	ProductID          string
	RecordedIntake     int64
	WarehouseCurrent   int64
	AllocationTotal    int64
	ShrinkageQuantity  int64
	CorrectionQuantity int64
	ReservedQuantity   int64
	Baseline           int64
	Delta              int64
	Status             string
	Storefronts        []StorefrontBreakdown
}

// IsBalanced indica si cada unidad ingresada está justificada.
func (r *ReconciliationReport) IsBalanced() bool { return r.Delta == 0 }

// Reconcile calcula:
//
//	baseline = bodega + Σ asignaciones − merma + corrección − reservado
//	delta    = ingreso registrado − baseline
//
// Las ventas de tienda no restan: la asignación conserva el total trasladado y la venta solo
// sube sold. La corrección devuelve al balance lo que la fórmula descuenta sin que haya salido
// (reservas activas) y lo que salió sin pasar por asignaciones (ventas directas de bodega), y
// neutraliza el efecto de los ajustes que no son merma.
func Reconcile(in ReconciliationInput) ReconciliationReport {
	rep := ReconciliationReport{
		ProductID:         in.ProductID,
		RecordedIntake:    in.RecordedIntake,
		WarehouseCurrent:  in.WarehouseCurrent,
		ShrinkageQuantity: in.ShrinkageApplied,
		ReservedQuantity:  in.ActiveHolds,
		Storefronts:       make([]StorefrontBreakdown, 0, len(in.Storefronts)),
	}
	for _, s := range in.Storefronts {
		rep.AllocationTotal += s.Quantity
		rep.Storefronts = append(rep.Storefronts, StorefrontBreakdown{
			LocationID:  s.LocationID,
			Quantity:    s.Quantity,
			Sold:        s.Sold,
			SellableNow: s.Quantity - s.Sold,
		})
	}
	rep.CorrectionQuantity = in.ActiveHolds + in.WarehouseSold - in.CorrectionsApplied

	rep.Baseline = rep.WarehouseCurrent +
		rep.AllocationTotal -
		rep.ShrinkageQuantity +
		rep.CorrectionQuantity -
		rep.ReservedQuantity
	rep.Delta = rep.RecordedIntake - rep.Baseline

	rep.Status = ReconciliationBalanced
	if rep.Delta != 0 {
		rep.Status = ReconciliationMismatch
	}
	return rep
}
