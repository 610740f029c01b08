package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// ReceiveInput recepción de mercancía en bodega (crea un lote con su ingreso original).
type ReceiveInput struct {
	LocationID string
	ProductID  string
	Quantity   int64
	UnitCost   decimal.Decimal
	ReceivedBy string
}

// Receive registra un ingreso: original_intake_quantity = current_quantity = Quantity.
func (uc *LedgerUseCase) Receive(ctx context.Context, in ReceiveInput) (batch *entity.StockBatch, err error) {
	if in.LocationID == "" || in.ProductID == "" || in.Quantity <= 0 || in.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	ctx, span := startSpan(ctx, "ledger.Receive",
		attribute.String("location_id", in.LocationID),
		attribute.String("product_id", in.ProductID),
		attribute.Int64("quantity", in.Quantity))
	defer func() { endSpan(span, err) }()

	now := time.Now().UTC()
	batch = &entity.StockBatch{
		ID:                     uuid.New().String(),
		ProductID:              in.ProductID,
		LocationID:             in.LocationID,
		OriginalIntakeQuantity: in.Quantity,
		CurrentQuantity:        in.Quantity,
		UnitCost:               in.UnitCost,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		loc, err := repos.Locations.GetByID(ctx, in.LocationID)
		if err != nil {
			return err
		}
		if !loc.IsWarehouse() {
			return fmt.Errorf("solo las bodegas reciben ingresos: %w", domain.ErrInvalidInput)
		}
		if _, err := repos.Products.GetByID(ctx, in.ProductID); err != nil {
			return err
		}
		if err := lockTuples(ctx, repos, entity.TupleKey{LocationID: in.LocationID, ProductID: in.ProductID}); err != nil {
			return err
		}
		return repos.Ledger.CreateBatch(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("lote", batch.ID).Str("bodega", in.LocationID).Str("producto", in.ProductID).
		Int64("cantidad", in.Quantity).Msg("ingreso registrado")
	uc.effects.afterCommit(ctx, []Event{{
		Type:        EventStockReceived,
		AggregateID: batch.ID,
		ProductID:   batch.ProductID,
		LocationID:  batch.LocationID,
		Quantity:    batch.OriginalIntakeQuantity,
		OccurredAt:  now,
		Data:        map[string]any{"unit_cost": batch.UnitCost.String(), "received_by": in.ReceivedBy},
	}})
	return batch, nil
}
