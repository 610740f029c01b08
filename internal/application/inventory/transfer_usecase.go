package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// TransferUseCase motor de traslados: bloquea ambos extremos, valida todo y aplica ambos lados o nada.
type TransferUseCase struct {
	txRunner TxRunner
	effects  *Effects
	log      *logger.Logger
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(txRunner TxRunner, effects *Effects, log *logger.Logger) *TransferUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &TransferUseCase{txRunner: txRunner, effects: effects, log: log}
}

// TransferLineInput línea solicitada. UnitCost nil = costo promedio de los lotes consumidos.
type TransferLineInput struct {
	ProductID string
	Quantity  int64
	UnitCost  *decimal.Decimal
}

// CreateTransferInput entrada para crear un traslado.
type CreateTransferInput struct {
	SourceLocationID      string
	DestinationLocationID string
	Lines                 []TransferLineInput
	Notes                 string
	CreatedBy             string
}

// Create valida el traslado y lo persiste en estado NEW (sin efecto en el libro).
func (uc *TransferUseCase) Create(ctx context.Context, in CreateTransferInput) (*entity.Transfer, error) {
	if in.SourceLocationID == "" || in.DestinationLocationID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.SourceLocationID == in.DestinationLocationID {
		return nil, fmt.Errorf("origen y destino deben ser distintos: %w", domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	t := &entity.Transfer{
		ID:                    uuid.New().String(),
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		Status:                entity.TransferNew,
		Notes:                 in.Notes,
		CreatedBy:             in.CreatedBy,
		CreatedAt:             now,
		UpdatedAt:             now,
		Lines:                 make([]entity.TransferLine, 0, len(in.Lines)),
	}
	seen := make(map[string]struct{}, len(in.Lines))
	for _, l := range in.Lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		if _, dup := seen[l.ProductID]; dup {
			return nil, fmt.Errorf("producto %s repetido en el traslado: %w", l.ProductID, domain.ErrInvalidInput)
		}
		seen[l.ProductID] = struct{}{}
		line := entity.TransferLine{
			ID:                uuid.New().String(),
			TransferID:        t.ID,
			ProductID:         l.ProductID,
			RequestedQuantity: l.Quantity,
		}
		if l.UnitCost != nil {
			if l.UnitCost.IsNegative() {
				return nil, domain.ErrInvalidInput
			}
			line.UnitCost = *l.UnitCost
		}
		t.Lines = append(t.Lines, line)
	}

	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		if _, err := repos.Locations.GetByID(ctx, in.SourceLocationID); err != nil {
			return err
		}
		if _, err := repos.Locations.GetByID(ctx, in.DestinationLocationID); err != nil {
			return err
		}
		for _, l := range t.Lines {
			if _, err := repos.Products.GetByID(ctx, l.ProductID); err != nil {
				return err
			}
		}
		return repos.Transfers.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("traslado", t.ID).Str("origen", t.SourceLocationID).Str("destino", t.DestinationLocationID).
		Int("lineas", len(t.Lines)).Msg("traslado creado")
	return t, nil
}

// Dispatch NEW → IN_TRANSIT (sin efecto en el libro).
func (uc *TransferUseCase) Dispatch(ctx context.Context, id string) (*entity.Transfer, error) {
	return uc.mutate(ctx, id, func(t *entity.Transfer, now time.Time) (bool, error) {
		return true, t.Dispatch(now)
	})
}

// Cancel {NEW, IN_TRANSIT} → CANCELLED. Cancelar un traslado cancelado no hace nada;
// uno completado devuelve INVALID_STATE_TRANSITION.
func (uc *TransferUseCase) Cancel(ctx context.Context, id string) (*entity.Transfer, error) {
	return uc.mutate(ctx, id, func(t *entity.Transfer, now time.Time) (bool, error) {
		if t.Status == entity.TransferCancelled {
			return false, nil
		}
		return true, t.Cancel(now)
	})
}

// UpdateNotes edita las notas en cualquier estado; nunca vuelve a aplicar deltas del libro.
func (uc *TransferUseCase) UpdateNotes(ctx context.Context, id, notes string) (*entity.Transfer, error) {
	return uc.mutate(ctx, id, func(t *entity.Transfer, now time.Time) (bool, error) {
		t.Notes = notes
		t.UpdatedAt = now
		return true, nil
	})
}

func (uc *TransferUseCase) mutate(ctx context.Context, id string, fn func(t *entity.Transfer, now time.Time) (bool, error)) (*entity.Transfer, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.Transfer
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		t, err := repos.Transfers.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		out = t
		changed, err := fn(t, time.Now().UTC())
		if err != nil || !changed {
			return err
		}
		return repos.Transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Fulfill completa el traslado. Bloquea la fila del traslado y luego todas las tuplas de origen y
// destino en orden global; valida cada línea contra el disponible del origen (reporta todos los
// faltantes juntos) y solo entonces aplica descuentos e incrementos en la misma transacción.
// Un traslado COMPLETED se devuelve tal cual.
func (uc *TransferUseCase) Fulfill(ctx context.Context, id, completedBy string) (out *entity.Transfer, err error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	ctx, span := startSpan(ctx, "transfers.Fulfill", attribute.String("transfer_id", id))
	defer func() { endSpan(span, err) }()

	applied := false
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		t, err := repos.Transfers.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		out = t
		switch t.Status {
		case entity.TransferCompleted:
			return nil
		case entity.TransferCancelled:
			return &domain.InvalidStateTransitionError{Entity: "traslado", ID: t.ID, From: t.Status, To: entity.TransferCompleted}
		}

		src, err := repos.Locations.GetByID(ctx, t.SourceLocationID)
		if err != nil {
			return err
		}
		dst, err := repos.Locations.GetByID(ctx, t.DestinationLocationID)
		if err != nil {
			return err
		}
		if err := lockTuples(ctx, repos, t.Keys()...); err != nil {
			return err
		}

		var shortfalls []domain.InsufficientStockError
		for _, l := range t.Lines {
			avail, err := availability(ctx, repos, src, l.ProductID)
			if err != nil {
				return err
			}
			if avail.Available < l.RequestedQuantity {
				shortfalls = append(shortfalls, domain.InsufficientStockError{
					LocationID: src.ID, ProductID: l.ProductID, Available: avail.Available, Requested: l.RequestedQuantity,
				})
			}
		}
		if len(shortfalls) > 0 {
			return &domain.TransferValidationError{TransferID: t.ID, Shortfalls: shortfalls}
		}

		for i := range t.Lines {
			l := &t.Lines[i]
			portions, err := applyDelta(ctx, repos, src, deltaRequest{
				Key:        entity.TupleKey{LocationID: src.ID, ProductID: l.ProductID},
				Delta:      -l.RequestedQuantity,
				Reason:     ReasonTransferOut,
				TransferID: t.ID,
			})
			if err != nil {
				return err
			}
			if l.UnitCost.IsZero() {
				l.UnitCost = inventory.WeightedAverageCost(portions)
			}
			if l.UnitCost.IsZero() && !src.IsWarehouse() {
				if l.UnitCost, err = storefrontUnitCost(ctx, repos, src, l.ProductID); err != nil {
					return err
				}
			}
			if _, err := applyDelta(ctx, repos, dst, deltaRequest{
				Key:        entity.TupleKey{LocationID: dst.ID, ProductID: l.ProductID},
				Delta:      l.RequestedQuantity,
				Reason:     ReasonTransferIn,
				TransferID: t.ID,
				UnitCost:   l.UnitCost,
			}); err != nil {
				return err
			}
		}
		if err := t.Complete(completedBy, time.Now().UTC()); err != nil {
			return err
		}
		applied = true
		return repos.Transfers.Update(ctx, t)
	})
	if err != nil {
		var tve *domain.TransferValidationError
		if errors.As(err, &tve) {
			uc.log.Warn().Str("traslado", id).Int("faltantes", len(tve.Shortfalls)).Msg("traslado rechazado por stock insuficiente")
		}
		return nil, err
	}
	if applied {
		uc.log.Info().Str("traslado", out.ID).Str("usuario", completedBy).Int("lineas", len(out.Lines)).Msg("traslado completado")
		uc.effects.afterCommit(ctx, transferEvents(out))
	}
	return out, nil
}

// storefrontUnitCost costo de un producto que sale de una tienda: una asignación no guarda lotes,
// así que se toma el costo de la línea del traslado que la originó. Sin origen conocido queda en 0.
func storefrontUnitCost(ctx context.Context, repos TxRepos, loc *entity.Location, productID string) (decimal.Decimal, error) {
	alloc, err := repos.Ledger.GetAllocation(ctx, loc.ID, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	if alloc.SourceTransferID == "" {
		return decimal.Zero, nil
	}
	origin, err := repos.Transfers.GetByID(ctx, alloc.SourceTransferID)
	if errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	for _, l := range origin.Lines {
		if l.ProductID == productID {
			return l.UnitCost, nil
		}
	}
	return decimal.Zero, nil
}

func transferEvents(t *entity.Transfer) []Event {
	events := make([]Event, 0, len(t.Lines))
	for _, l := range t.Lines {
		events = append(events, Event{
			Type:        EventTransferCompleted,
			AggregateID: t.ID,
			ProductID:   l.ProductID,
			Quantity:    l.RequestedQuantity,
			OccurredAt:  *t.CompletedAt,
			Data: map[string]any{
				"source_location_id":      t.SourceLocationID,
				"destination_location_id": t.DestinationLocationID,
				"unit_cost":               l.UnitCost.String(),
			},
		})
	}
	return events
}

// Get devuelve un traslado con sus líneas.
func (uc *TransferUseCase) Get(ctx context.Context, id string) (*entity.Transfer, error) {
	var t *entity.Transfer
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		var err error
		t, err = repos.Transfers.GetByID(ctx, id)
		return err
	})
	return t, err
}
