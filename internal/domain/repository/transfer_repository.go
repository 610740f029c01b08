package repository

import (
	"context"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia de traslados (con sus líneas).
type TransferRepository interface {
	Create(ctx context.Context, t *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error)
	// Update persiste estado, notas, fechas y el costo unitario de las líneas.
	Update(ctx context.Context, t *entity.Transfer) error
}
