package entity

import (
	"time"

	"github.com/jhoicas/inventario-core/internal/domain"
)

// Tipos de ajuste.
const (
	AdjustmentTheft              = "THEFT"
	AdjustmentDamage             = "DAMAGE"
	AdjustmentLoss               = "LOSS"
	AdjustmentWriteOff           = "WRITE_OFF"
	AdjustmentExpired            = "EXPIRED"
	AdjustmentCountCorrection    = "COUNT_CORRECTION"
	AdjustmentFound              = "FOUND"
	AdjustmentCustomerReturn     = "CUSTOMER_RETURN"
	AdjustmentTransferCorrection = "TRANSFER_CORRECTION"
	// AdjustmentManual lo registra el libro al aplicar un ajuste crudo de administrador; no se solicita.
	AdjustmentManual = "MANUAL"
)

// Estados de un ajuste. REJECTED y APPLIED son terminales.
const (
	AdjustmentPending  = "PENDING"
	AdjustmentApproved = "APPROVED"
	AdjustmentRejected = "REJECTED"
	AdjustmentApplied  = "APPLIED"
)

// Objetivo de un ajuste.
const (
	AdjustmentTargetBatch      = "BATCH"
	AdjustmentTargetAllocation = "ALLOCATION"
	AdjustmentTargetLocation   = "LOCATION"
)

// Adjustment corrección con signo sobre un lote o una asignación, sujeta a aprobación según su tipo.
type Adjustment struct {
	ID               string
	TargetType       string
	TargetID         string
	LocationID       string
	ProductID        string
	Kind             string
	SignedQuantity   int64
	Status           string
	RequiresApproval bool
	Evidence         string
	Reason           string
	SubmittedBy      string
	DecidedBy        string
	DecisionNote     string
	CreatedAt        time.Time
	DecidedAt        *time.Time
	AppliedAt        *time.Time
}

// ValidAdjustmentKind valida el tipo.
func ValidAdjustmentKind(kind string) bool {
	switch kind {
	case AdjustmentTheft, AdjustmentDamage, AdjustmentLoss, AdjustmentWriteOff, AdjustmentExpired,
		AdjustmentCountCorrection, AdjustmentFound, AdjustmentCustomerReturn, AdjustmentTransferCorrection:
		return true
	}
	return false
}

// KindRequiresApproval clasificación de riesgo: devoluciones de clientes y correcciones generadas
// por traslados se aprueban solas; el resto pasa por el flujo de aprobación externo.
func KindRequiresApproval(kind string) bool {
	switch kind {
	case AdjustmentCustomerReturn, AdjustmentTransferCorrection, AdjustmentManual:
		return false
	}
	return true
}

// CountsAsCorrection tipos que la conciliación reconoce como correcciones explicadas.
// Los ajustes crudos quedan fuera para que sigan apareciendo como descuadre.
func CountsAsCorrection(kind string) bool {
	return !IsShrinkageKind(kind) && kind != AdjustmentManual
}

// IsShrinkageKind tipos que cuentan como merma en la conciliación.
func IsShrinkageKind(kind string) bool {
	switch kind {
	case AdjustmentTheft, AdjustmentDamage, AdjustmentLoss, AdjustmentWriteOff, AdjustmentExpired:
		return true
	}
	return false
}

// ShrinkageKinds lista de tipos de merma (para consultas).
func ShrinkageKinds() []string {
	return []string{AdjustmentTheft, AdjustmentDamage, AdjustmentLoss, AdjustmentWriteOff, AdjustmentExpired}
}

// Key tupla del libro afectada por el ajuste.
func (a *Adjustment) Key() TupleKey {
	return TupleKey{LocationID: a.LocationID, ProductID: a.ProductID}
}

// Approve PENDING → APPROVED.
func (a *Adjustment) Approve(by, note string, at time.Time) error {
	if a.Status != AdjustmentPending {
		return a.invalid(AdjustmentApproved)
	}
	a.Status = AdjustmentApproved
	a.DecidedBy = by
	a.DecisionNote = note
	a.DecidedAt = &at
	return nil
}

// MarkApplied APPROVED → APPLIED (solo tras un ajuste exitoso del libro).
func (a *Adjustment) MarkApplied(at time.Time) error {
	if a.Status != AdjustmentApproved {
		return a.invalid(AdjustmentApplied)
	}
	a.Status = AdjustmentApplied
	a.AppliedAt = &at
	return nil
}

// Reject PENDING → REJECTED.
func (a *Adjustment) Reject(by, note string, at time.Time) error {
	if a.Status != AdjustmentPending {
		return a.invalid(AdjustmentRejected)
	}
	a.Status = AdjustmentRejected
	a.DecidedBy = by
	a.DecisionNote = note
	a.DecidedAt = &at
	return nil
}

func (a *Adjustment) invalid(to string) error {
	return &domain.InvalidStateTransitionError{Entity: "ajuste", ID: a.ID, From: a.Status, To: to}
}
