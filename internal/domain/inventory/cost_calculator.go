package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// CostPortion cantidad consumida de un lote a su costo unitario.
type CostPortion struct {
	Quantity int64
	UnitCost decimal.Decimal
}

// WeightedAverageCost acumula porciones con CostCalculator y redondea a 4 decimales.
func WeightedAverageCost(portions []CostPortion) decimal.Decimal {
	qty := decimal.Zero
	cost := decimal.Zero
	for _, p := range portions {
		if p.Quantity <= 0 {
			continue
		}
		in := decimal.NewFromInt(p.Quantity)
		cost = CostCalculator(qty, cost, in, p.UnitCost)
		qty = qty.Add(in)
	}
	return cost.Round(4)
}
