package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-core/internal/domain"
)

// Códigos SQLSTATE relevantes para el libro.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateSerializationFailure = "40001"
)

// racingConstraints únicos que dos transacciones concurrentes pueden chocar al insertar la misma
// fila; un reintento la encuentra. Cualquier otro 23505 es un dato duplicado y no se reintenta.
var racingConstraints = map[string]struct{}{
	"uq_location_allocations": {},
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateUniqueViolation
	}
	return strings.Contains(err.Error(), sqlStateUniqueViolation)
}

// mapError traduce errores de PostgreSQL a errores de dominio reintentables, conservando el original.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case sqlStateLockNotAvailable:
		return fmt.Errorf("%w: %w", domain.ErrLockTimeout, err)
	case sqlStateDeadlockDetected, sqlStateSerializationFailure:
		return fmt.Errorf("%w: %w", domain.ErrConcurrentModification, err)
	case sqlStateUniqueViolation:
		if _, ok := racingConstraints[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %w", domain.ErrConcurrentModification, err)
		}
	}
	return err
}

// wrap agrega la operación al error ya traducido.
func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, mapError(err))
}

// notFoundOr devuelve domain.ErrNotFound si no hubo filas; en otro caso envuelve el error.
func notFoundOr(op, what, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return wrap(op, err)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromNull(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// prefixed antepone el alias de tabla a una lista de columnas separadas por coma.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
