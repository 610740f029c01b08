package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// Razones de un movimiento del libro.
const (
	ReasonSale        = "SALE"
	ReasonTransferOut = "TRANSFER_OUT"
	ReasonTransferIn  = "TRANSFER_IN"
	ReasonAdjustment  = "ADJUSTMENT"
	ReasonManual      = "MANUAL"
)

// Availability cantidades de una tupla (ubicación, producto).
type Availability struct {
	LocationID string
	ProductID  string
	OnHand     int64
	Reserved   int64
	Available  int64
}

// LedgerUseCase libro de cantidades: única vía para cambiar la cantidad de una tupla.
type LedgerUseCase struct {
	txRunner TxRunner
	effects  *Effects
	log      *logger.Logger
}

// NewLedgerUseCase construye el libro de cantidades.
func NewLedgerUseCase(txRunner TxRunner, effects *Effects, log *logger.Logger) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{txRunner: txRunner, effects: effects, log: log}
}

// AdjustInput entrada del ajuste crudo del libro.
// BatchID limita el cambio a un lote; UnitCost aplica a lotes nuevos creados por deltas positivos.
type AdjustInput struct {
	LocationID string
	ProductID  string
	Delta      int64
	Reason     string
	Requester  string
	BatchID    string
	TransferID string
	UnitCost   decimal.Decimal
}

// GetAvailable devuelve disponible = cantidad actual − Σ reservas activas.
func (uc *LedgerUseCase) GetAvailable(ctx context.Context, locationID, productID string) (*Availability, error) {
	if locationID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out Availability
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		loc, err := repos.Locations.GetByID(ctx, locationID)
		if err != nil {
			return err
		}
		out, err = availability(ctx, repos, loc, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AdjustResult disponibilidad resultante y el ajuste MANUAL que deja rastro del cambio.
type AdjustResult struct {
	Availability
	Adjustment *entity.Adjustment
}

// Adjust abre la transacción, bloquea la tupla, aplica el delta con signo, registra el ajuste
// MANUAL (ya aplicado, con el solicitante) y confirma.
func (uc *LedgerUseCase) Adjust(ctx context.Context, in AdjustInput) (out *AdjustResult, err error) {
	if in.LocationID == "" || in.ProductID == "" || in.Delta == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.Reason == "" {
		in.Reason = ReasonManual
	}
	if !validReason(in.Reason) {
		return nil, domain.ErrInvalidInput
	}
	ctx, span := startSpan(ctx, "ledger.Adjust",
		attribute.String("location_id", in.LocationID),
		attribute.String("product_id", in.ProductID),
		attribute.Int64("delta", in.Delta))
	defer func() { endSpan(span, err) }()

	key := entity.TupleKey{LocationID: in.LocationID, ProductID: in.ProductID}
	var res AdjustResult
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		loc, err := repos.Locations.GetByID(ctx, in.LocationID)
		if err != nil {
			return err
		}
		if err := lockTuples(ctx, repos, key); err != nil {
			return err
		}
		if _, err := applyDelta(ctx, repos, loc, deltaRequest{
			Key:        key,
			Delta:      in.Delta,
			Reason:     in.Reason,
			BatchID:    in.BatchID,
			TransferID: in.TransferID,
			UnitCost:   in.UnitCost,
		}); err != nil {
			return err
		}
		adj, err := manualAdjustment(ctx, repos, loc, in)
		if err != nil {
			return err
		}
		if err := repos.Adjustments.Create(ctx, adj); err != nil {
			return err
		}
		res.Adjustment = adj
		res.Availability, err = availability(ctx, repos, loc, in.ProductID)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("ajuste", res.Adjustment.ID).Str("ubicacion", in.LocationID).Str("producto", in.ProductID).
		Int64("delta", in.Delta).Str("razon", in.Reason).Str("usuario", in.Requester).
		Msg("ajuste de libro aplicado")
	ev := adjustmentEvent(res.Adjustment)
	ev.Data["reason"] = in.Reason
	ev.Data["requester"] = in.Requester
	uc.effects.afterCommit(ctx, []Event{ev})
	return &res, nil
}

// manualAdjustment arma el registro APPLIED de un ajuste crudo. El objetivo es el lote indicado,
// la asignación de la tienda o, en bodega sin lote, la ubicación.
func manualAdjustment(ctx context.Context, repos TxRepos, loc *entity.Location, in AdjustInput) (*entity.Adjustment, error) {
	now := time.Now().UTC()
	adj := &entity.Adjustment{
		ID:               uuid.New().String(),
		TargetType:       entity.AdjustmentTargetLocation,
		TargetID:         loc.ID,
		LocationID:       loc.ID,
		ProductID:        in.ProductID,
		Kind:             entity.AdjustmentManual,
		SignedQuantity:   in.Delta,
		Status:           entity.AdjustmentApplied,
		RequiresApproval: false,
		Reason:           in.Reason,
		SubmittedBy:      in.Requester,
		DecidedBy:        in.Requester,
		CreatedAt:        now,
		DecidedAt:        &now,
		AppliedAt:        &now,
	}
	switch {
	case in.BatchID != "":
		adj.TargetType, adj.TargetID = entity.AdjustmentTargetBatch, in.BatchID
	case !loc.IsWarehouse():
		alloc, err := repos.Ledger.GetAllocation(ctx, loc.ID, in.ProductID)
		if err != nil {
			return nil, err
		}
		adj.TargetType, adj.TargetID = entity.AdjustmentTargetAllocation, alloc.ID
	}
	return adj, nil
}

func validReason(r string) bool {
	switch r {
	case ReasonSale, ReasonTransferOut, ReasonTransferIn, ReasonAdjustment, ReasonManual:
		return true
	}
	return false
}

// lockTuples ordena y deduplica las tuplas y las bloquea en orden global (ubicación, producto).
func lockTuples(ctx context.Context, repos TxRepos, keys ...entity.TupleKey) error {
	seen := make(map[entity.TupleKey]struct{}, len(keys))
	ordered := make([]entity.TupleKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })
	return repos.Ledger.LockTuples(ctx, ordered)
}

// onHand cantidad actual: Σ lotes en bodega; vendible de la asignación en tienda.
func onHand(ctx context.Context, repos TxRepos, loc *entity.Location, productID string) (int64, error) {
	if loc.IsWarehouse() {
		batches, err := repos.Ledger.ListBatches(ctx, loc.ID, productID)
		if err != nil {
			return 0, err
		}
		var total int64
		for _, b := range batches {
			total += b.CurrentQuantity
		}
		return total, nil
	}
	alloc, err := repos.Ledger.GetAllocation(ctx, loc.ID, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return alloc.Sellable(), nil
}

func availability(ctx context.Context, repos TxRepos, loc *entity.Location, productID string) (Availability, error) {
	current, err := onHand(ctx, repos, loc, productID)
	if err != nil {
		return Availability{}, err
	}
	reserved, err := repos.Reservations.SumActive(ctx, loc.ID, productID)
	if err != nil {
		return Availability{}, err
	}
	avail := current - reserved
	if avail < 0 {
		avail = 0
	}
	return Availability{LocationID: loc.ID, ProductID: productID, OnHand: current, Reserved: reserved, Available: avail}, nil
}

// deltaRequest cambio con signo sobre una tupla ya bloqueada.
// ReleasedHold es la reserva que se consume en el mismo cambio (commit de una venta).
type deltaRequest struct {
	Key          entity.TupleKey
	Delta        int64
	Reason       string
	BatchID      string
	TransferID   string
	UnitCost     decimal.Decimal
	ReleasedHold int64
}

// applyDelta aplica el cambio dentro de la transacción del llamador. Todas las validaciones
// ocurren antes de la primera escritura, de modo que un error deja la tupla intacta.
// Devuelve las porciones consumidas de cada lote (para el costo promedio).
func applyDelta(ctx context.Context, repos TxRepos, loc *entity.Location, req deltaRequest) ([]inventory.CostPortion, error) {
	if req.Delta == 0 {
		return nil, nil
	}
	if req.Delta < 0 {
		current, err := onHand(ctx, repos, loc, req.Key.ProductID)
		if err != nil {
			return nil, err
		}
		reserved, err := repos.Reservations.SumActive(ctx, loc.ID, req.Key.ProductID)
		if err != nil {
			return nil, err
		}
		free := current - (reserved - req.ReleasedHold)
		if free+req.Delta < 0 {
			if free < 0 {
				free = 0
			}
			return nil, &domain.InsufficientStockError{
				LocationID: loc.ID, ProductID: req.Key.ProductID, Available: free, Requested: -req.Delta,
			}
		}
	}
	now := time.Now().UTC()
	if loc.IsWarehouse() {
		return applyWarehouse(ctx, repos, loc, req, now)
	}
	return nil, applyStorefront(ctx, repos, loc, req, now)
}

// applyWarehouse: negativos consumen lotes FIFO (o el lote indicado); positivos sin lote crean uno
// con ingreso original 0 para no duplicar el ingreso registrado.
func applyWarehouse(ctx context.Context, repos TxRepos, loc *entity.Location, req deltaRequest, now time.Time) ([]inventory.CostPortion, error) {
	if req.BatchID != "" {
		b, err := repos.Ledger.GetBatch(ctx, req.BatchID)
		if err != nil {
			return nil, err
		}
		if b.LocationID != loc.ID || b.ProductID != req.Key.ProductID {
			return nil, fmt.Errorf("lote %s no pertenece a %s/%s: %w", b.ID, loc.ID, req.Key.ProductID, domain.ErrInvalidInput)
		}
		if !b.CanApply(req.Delta) {
			return nil, &domain.InsufficientStockError{
				LocationID: loc.ID, ProductID: req.Key.ProductID, Available: b.CurrentQuantity, Requested: -req.Delta,
			}
		}
		if err := repos.Ledger.UpdateBatchQuantity(ctx, b.ID, b.CurrentQuantity+req.Delta, now); err != nil {
			return nil, err
		}
		if req.Delta < 0 {
			return []inventory.CostPortion{{Quantity: -req.Delta, UnitCost: b.UnitCost}}, nil
		}
		return nil, nil
	}

	if req.Delta > 0 {
		batch := &entity.StockBatch{
			ID:                     uuid.New().String(),
			ProductID:              req.Key.ProductID,
			LocationID:             loc.ID,
			OriginalIntakeQuantity: 0,
			CurrentQuantity:        req.Delta,
			UnitCost:               req.UnitCost,
			SourceTransferID:       req.TransferID,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		return nil, repos.Ledger.CreateBatch(ctx, batch)
	}

	batches, err := repos.Ledger.ListBatches(ctx, loc.ID, req.Key.ProductID)
	if err != nil {
		return nil, err
	}
	remaining := -req.Delta
	portions := make([]inventory.CostPortion, 0, 2)
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		if b.CurrentQuantity <= 0 {
			continue
		}
		take := b.CurrentQuantity
		if take > remaining {
			take = remaining
		}
		if err := repos.Ledger.UpdateBatchQuantity(ctx, b.ID, b.CurrentQuantity-take, now); err != nil {
			return nil, err
		}
		portions = append(portions, inventory.CostPortion{Quantity: take, UnitCost: b.UnitCost})
		remaining -= take
	}
	if remaining > 0 {
		return nil, &domain.InsufficientStockError{
			LocationID: loc.ID, ProductID: req.Key.ProductID, Available: -req.Delta - remaining, Requested: -req.Delta,
		}
	}
	return portions, nil
}

// applyStorefront: una venta sube sold_quantity; el resto cambia la cantidad asignada.
func applyStorefront(ctx context.Context, repos TxRepos, loc *entity.Location, req deltaRequest, now time.Time) error {
	alloc, err := repos.Ledger.GetAllocation(ctx, loc.ID, req.Key.ProductID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if req.Delta < 0 {
			return &domain.InsufficientStockError{LocationID: loc.ID, ProductID: req.Key.ProductID, Requested: -req.Delta}
		}
		alloc = &entity.LocationAllocation{
			ID:               uuid.New().String(),
			LocationID:       loc.ID,
			ProductID:        req.Key.ProductID,
			SourceTransferID: req.TransferID,
		}
	case err != nil:
		return err
	}

	if req.Reason == ReasonSale {
		if req.Delta > 0 {
			return fmt.Errorf("una venta no puede sumar cantidad: %w", domain.ErrInvalidInput)
		}
		alloc.SoldQuantity -= req.Delta
	} else {
		alloc.Quantity += req.Delta
	}
	if alloc.Sellable() < 0 {
		return &domain.InsufficientStockError{
			LocationID: loc.ID, ProductID: req.Key.ProductID, Available: alloc.Sellable() - req.Delta, Requested: -req.Delta,
		}
	}
	alloc.UpdatedAt = now
	return repos.Ledger.SaveAllocation(ctx, alloc)
}
