package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBatch representa un evento de ingreso en bodega.
// OriginalIntakeQuantity es inmutable; CurrentQuantity es la cantidad de trabajo (nunca negativa).
// Los lotes creados por un traslado entrante tienen OriginalIntakeQuantity = 0 y SourceTransferID.
type StockBatch struct {
	ID                     string
	ProductID              string
	LocationID             string
	OriginalIntakeQuantity int64
	CurrentQuantity        int64
	UnitCost               decimal.Decimal
	SourceTransferID       string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// CanApply indica si el delta mantiene la cantidad actual en cero o más.
func (b *StockBatch) CanApply(delta int64) bool {
	return b.CurrentQuantity+delta >= 0
}
