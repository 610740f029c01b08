package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
	ErrConcurrentModification = errors.New("modificación concurrente, reintente")
	ErrLockTimeout            = errors.New("tiempo de espera de bloqueo agotado, reintente")
	ErrInvalidAdjustment      = errors.New("ajuste inválido")
	ErrNestedTransaction      = errors.New("transacción anidada no permitida")
)

// Códigos expuestos a clientes (taxonomía estable).
const (
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeLockTimeout            = "LOCK_TIMEOUT"
	CodeInvalidAdjustment      = "INVALID_ADJUSTMENT"
	CodeReconciliationMismatch = "RECONCILIATION_MISMATCH"
)

// InsufficientStockError detalla el faltante de una tupla (ubicación, producto).
type InsufficientStockError struct {
	LocationID string
	ProductID  string
	Available  int64
	Requested  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en %s/%s: disponible %d, solicitado %d",
		e.LocationID, e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// TransferValidationError agrupa todos los faltantes de un traslado; ninguna línea se aplicó.
type TransferValidationError struct {
	TransferID string
	Shortfalls []InsufficientStockError
}

func (e *TransferValidationError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for i := range e.Shortfalls {
		parts = append(parts, e.Shortfalls[i].Error())
	}
	return fmt.Sprintf("traslado %s rechazado: %s", e.TransferID, strings.Join(parts, "; "))
}

func (e *TransferValidationError) Unwrap() error { return ErrInsufficientStock }

// InvalidStateTransitionError operación intentada desde un estado terminal o incompatible.
type InvalidStateTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s %s: no se puede pasar de %s a %s", e.Entity, e.ID, e.From, e.To)
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// InvalidAdjustmentError el ajuste llevaría la cantidad por debajo de cero (o de las reservas activas).
type InvalidAdjustmentError struct {
	AdjustmentID string
	Current      int64
	Delta        int64
}

func (e *InvalidAdjustmentError) Error() string {
	return fmt.Sprintf("ajuste %s inválido: cantidad actual %d, delta %d", e.AdjustmentID, e.Current, e.Delta)
}

func (e *InvalidAdjustmentError) Unwrap() error { return ErrInvalidAdjustment }

// IsRetryable indica si el llamador puede reintentar sin cambios (no se modificó estado).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrConcurrentModification)
}
