package repository

import (
	"context"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// LocationRepository define el puerto de lectura de ubicaciones (bodegas y tiendas).
// El catálogo de ubicaciones es externo; el núcleo solo necesita resolver su tipo.
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
}

// ProductRepository define el puerto de lectura del catálogo de productos.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
