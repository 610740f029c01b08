package repository

import (
	"context"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// AdjustmentRepository define el puerto de persistencia de ajustes.
type AdjustmentRepository interface {
	Create(ctx context.Context, a *entity.Adjustment) error
	GetByID(ctx context.Context, id string) (*entity.Adjustment, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error)
	Update(ctx context.Context, a *entity.Adjustment) error
}
