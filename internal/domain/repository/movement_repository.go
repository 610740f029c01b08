package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// MovementFilter filtros del libro de movimientos. Campos vacíos no filtran.
type MovementFilter struct {
	ProductIDs     []string
	LocationID     string
	CategoryID     string
	From           *time.Time // inclusivo
	To             *time.Time // exclusivo
	ReferenceTypes []string
	Search         string
}

// Agrupaciones admitidas por Aggregate.
const (
	GroupByDay           = "day"
	GroupByWeek          = "week"
	GroupByMonth         = "month"
	GroupByLocation      = "location"
	GroupByCategory      = "category"
	GroupByReferenceType = "reference_type"
)

// ValidGroupBy valida la agrupación.
func ValidGroupBy(g string) bool {
	switch g {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByLocation, GroupByCategory, GroupByReferenceType:
		return true
	}
	return false
}

// MovementRepository define el puerto de consulta del libro de movimientos (vista derivada, solo lectura).
type MovementRepository interface {
	// List devuelve una página ordenada por (occurred_at, id, signed_quantity).
	List(ctx context.Context, f MovementFilter, limit, offset int) ([]*entity.MovementRecord, error)
	Count(ctx context.Context, f MovementFilter) (int64, error)
	Aggregate(ctx context.Context, f MovementFilter, groupBy string) ([]entity.MovementAggregate, error)
}
