package entity

import "time"

// LocationAllocation cantidad de un producto asignada a una tienda por traslados completados.
// Quantity es el total trasladado (neto de salidas y ajustes); las ventas solo suben SoldQuantity.
// SourceTransferID es una referencia no propietaria al traslado que la creó.
type LocationAllocation struct {
	ID               string
	LocationID       string
	ProductID        string
	Quantity         int64
	SoldQuantity     int64
	SourceTransferID string
	UpdatedAt        time.Time
}

// Sellable cantidad vendible ahora: total asignado menos lo vendido desde la asignación.
func (a *LocationAllocation) Sellable() int64 {
	return a.Quantity - a.SoldQuantity
}
