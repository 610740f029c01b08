package postgres

import (
	"context"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var (
	_ repository.LocationRepository = (*LocationRepo)(nil)
	_ repository.ProductRepository  = (*ProductRepo)(nil)
)

// LocationRepo lectura de ubicaciones sobre PostgreSQL (usable con pool o tx).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación por ID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	query := `SELECT id, name, kind, created_at FROM locations WHERE id = $1`
	var l entity.Location
	if err := r.q.QueryRow(ctx, query, id).Scan(&l.ID, &l.Name, &l.Kind, &l.CreatedAt); err != nil {
		return nil, notFoundOr("get location", "ubicación", id, err)
	}
	return &l, nil
}

// ProductRepo lectura del catálogo de productos sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT id, sku, name, category_id FROM products WHERE id = $1`
	var p entity.Product
	if err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.SKU, &p.Name, &p.CategoryID); err != nil {
		return nil, notFoundOr("get product", "producto", id, err)
	}
	return &p, nil
}
