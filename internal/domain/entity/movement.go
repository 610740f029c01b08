package entity

import "time"

// Tipos de referencia del libro de movimientos.
const (
	MovementIntake     = "INTAKE"
	MovementSale       = "SALE"
	MovementTransfer   = "TRANSFER"
	MovementAdjustment = "ADJUSTMENT"
)

// MovementRecord vista normalizada (solo lectura) de cualquier evento que cambió cantidades.
// ID es la fila origen (lote, reserva, línea de traslado o ajuste); ReferenceID es el registro
// que un cliente consulta (el mismo lote/reserva/ajuste, o el traslado dueño de la línea).
type MovementRecord struct {
	ID             string
	ReferenceType  string
	ReferenceID    string
	LocationID     string
	ProductID      string
	ProductName    string
	SKU            string
	CategoryID     string
	SignedQuantity int64
	OccurredAt     time.Time
}

// ValidMovementType valida un tipo de referencia.
func ValidMovementType(t string) bool {
	switch t {
	case MovementIntake, MovementSale, MovementTransfer, MovementAdjustment:
		return true
	}
	return false
}

// MovementAggregate agregación de movimientos por grupo (día, semana, mes, ubicación, categoría, tipo).
type MovementAggregate struct {
	Group    string
	Count    int64
	Inbound  int64
	Outbound int64
	Net      int64
}
