package entity

import "time"

// Tipos de ubicación. Una bodega guarda lotes; una tienda guarda asignaciones.
const (
	LocationKindWarehouse  = "WAREHOUSE"
	LocationKindStorefront = "STOREFRONT"
)

// Location representa una bodega o tienda (referencia de catálogo; el núcleo solo necesita su tipo).
type Location struct {
	ID        string
	Name      string
	Kind      string
	CreatedAt time.Time
}

// IsWarehouse indica si la ubicación almacena lotes de ingreso.
func (l *Location) IsWarehouse() bool { return l.Kind == LocationKindWarehouse }

// IsStorefront indica si la ubicación vende desde asignaciones.
func (l *Location) IsStorefront() bool { return l.Kind == LocationKindStorefront }

// ValidLocationKind valida el tipo de ubicación.
func ValidLocationKind(kind string) bool {
	return kind == LocationKindWarehouse || kind == LocationKindStorefront
}

// TupleKey identifica la unidad de bloqueo del libro de cantidades.
type TupleKey struct {
	LocationID string
	ProductID  string
}

// Less define el orden global de adquisición de bloqueos (ubicación, luego producto).
func (k TupleKey) Less(o TupleKey) bool {
	if k.LocationID != o.LocationID {
		return k.LocationID < o.LocationID
	}
	return k.ProductID < o.ProductID
}
