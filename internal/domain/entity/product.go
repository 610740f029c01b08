package entity

// Product referencia de catálogo (opaca para el núcleo). Solo se usa para filtros y búsqueda
// del libro de movimientos; ninguna regla de catálogo vive aquí.
type Product struct {
	ID         string
	SKU        string
	Name       string
	CategoryID string
}
