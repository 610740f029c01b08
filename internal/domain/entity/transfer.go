package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-core/internal/domain"
)

// Estados de un traslado. COMPLETED y CANCELLED son terminales.
const (
	TransferNew       = "NEW"
	TransferInTransit = "IN_TRANSIT"
	TransferCompleted = "COMPLETED"
	TransferCancelled = "CANCELLED"
)

// TransferLine línea de un traslado (producto, cantidad solicitada, costo unitario).
type TransferLine struct {
	ID                string
	TransferID        string
	ProductID         string
	RequestedQuantity int64
	UnitCost          decimal.Decimal
}

// Transfer movimiento planificado/ejecutado de productos entre exactamente dos ubicaciones.
type Transfer struct {
	ID                    string
	SourceLocationID      string
	DestinationLocationID string
	Status                string
	Lines                 []TransferLine
	Notes                 string
	CreatedBy             string
	CompletedBy           string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DispatchedAt          *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
}

// IsOpen indica si el traslado todavía puede despacharse, completarse o cancelarse.
func (t *Transfer) IsOpen() bool {
	return t.Status == TransferNew || t.Status == TransferInTransit
}

// Keys devuelve todas las tuplas (origen y destino) que toca el traslado.
func (t *Transfer) Keys() []TupleKey {
	keys := make([]TupleKey, 0, len(t.Lines)*2)
	for _, l := range t.Lines {
		keys = append(keys,
			TupleKey{LocationID: t.SourceLocationID, ProductID: l.ProductID},
			TupleKey{LocationID: t.DestinationLocationID, ProductID: l.ProductID},
		)
	}
	return keys
}

// Dispatch NEW → IN_TRANSIT.
func (t *Transfer) Dispatch(at time.Time) error {
	if t.Status != TransferNew {
		return t.invalid(TransferInTransit)
	}
	t.Status = TransferInTransit
	t.DispatchedAt = &at
	t.UpdatedAt = at
	return nil
}

// Complete {NEW, IN_TRANSIT} → COMPLETED.
func (t *Transfer) Complete(by string, at time.Time) error {
	if !t.IsOpen() {
		return t.invalid(TransferCompleted)
	}
	t.Status = TransferCompleted
	t.CompletedBy = by
	t.CompletedAt = &at
	t.UpdatedAt = at
	return nil
}

// Cancel {NEW, IN_TRANSIT} → CANCELLED.
func (t *Transfer) Cancel(at time.Time) error {
	if !t.IsOpen() {
		return t.invalid(TransferCancelled)
	}
	t.Status = TransferCancelled
	t.CancelledAt = &at
	t.UpdatedAt = at
	return nil
}

func (t *Transfer) invalid(to string) error {
	return &domain.InvalidStateTransitionError{Entity: "traslado", ID: t.ID, From: t.Status, To: to}
}
