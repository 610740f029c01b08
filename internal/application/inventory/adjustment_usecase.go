package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// autoApprover usuario que figura como aprobador de los tipos que se aprueban solos.
const autoApprover = "sistema"

// AdjustmentUseCase compuerta de ajustes: ningún ajuste toca el libro sin pasar por aprobación
// (salvo los tipos de bajo riesgo, que se aprueban solos).
type AdjustmentUseCase struct {
	txRunner TxRunner
	effects  *Effects
	log      *logger.Logger
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(txRunner TxRunner, effects *Effects, log *logger.Logger) *AdjustmentUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AdjustmentUseCase{txRunner: txRunner, effects: effects, log: log}
}

// SubmitAdjustmentInput entrada para registrar un ajuste.
type SubmitAdjustmentInput struct {
	Kind           string
	TargetType     string
	TargetID       string
	SignedQuantity int64
	Evidence       string
	Reason         string
	SubmittedBy    string
}

// Submit registra el ajuste en PENDING. Los tipos autoaprobados se aplican en la misma transacción;
// si dejarían la cantidad negativa el ajuste queda PENDING y se devuelve junto a INVALID_ADJUSTMENT.
func (uc *AdjustmentUseCase) Submit(ctx context.Context, in SubmitAdjustmentInput) (*entity.Adjustment, error) {
	if !entity.ValidAdjustmentKind(in.Kind) || in.TargetID == "" || in.SignedQuantity == 0 || in.SubmittedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.TargetType != entity.AdjustmentTargetBatch && in.TargetType != entity.AdjustmentTargetAllocation {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now().UTC()
	adj := &entity.Adjustment{
		ID:               uuid.New().String(),
		TargetType:       in.TargetType,
		TargetID:         in.TargetID,
		Kind:             in.Kind,
		SignedQuantity:   in.SignedQuantity,
		Status:           entity.AdjustmentPending,
		RequiresApproval: entity.KindRequiresApproval(in.Kind),
		Evidence:         in.Evidence,
		Reason:           in.Reason,
		SubmittedBy:      in.SubmittedBy,
		CreatedAt:        now,
	}

	var rejected error
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		rejected = nil
		if err := resolveTarget(ctx, repos, adj); err != nil {
			return err
		}
		if err := repos.Adjustments.Create(ctx, adj); err != nil {
			return err
		}
		if adj.RequiresApproval {
			return nil
		}
		// applyAdjustment valida antes de escribir: si falla, el registro PENDING se confirma igual.
		applyErr := applyAdjustment(ctx, repos, adj)
		var invalid *domain.InvalidAdjustmentError
		if errors.As(applyErr, &invalid) {
			rejected = applyErr
			return nil
		}
		if applyErr != nil {
			return applyErr
		}
		if err := adj.Approve(autoApprover, "aprobación automática", now); err != nil {
			return err
		}
		if err := adj.MarkApplied(now); err != nil {
			return err
		}
		return repos.Adjustments.Update(ctx, adj)
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		uc.log.Warn().Str("ajuste", adj.ID).Str("tipo", adj.Kind).Int64("cantidad", adj.SignedQuantity).
			Msg("ajuste automático rechazado, queda pendiente")
		return adj, rejected
	}
	uc.log.Info().Str("ajuste", adj.ID).Str("tipo", adj.Kind).Str("estado", adj.Status).
		Int64("cantidad", adj.SignedQuantity).Msg("ajuste registrado")
	if adj.Status == entity.AdjustmentApplied {
		uc.effects.afterCommit(ctx, []Event{adjustmentEvent(adj)})
	}
	return adj, nil
}

// Approve PENDING → APPROVED → ajuste del libro → APPLIED en una transacción.
// Si el libro rechaza el delta el ajuste sigue PENDING y se devuelve INVALID_ADJUSTMENT.
func (uc *AdjustmentUseCase) Approve(ctx context.Context, id, decidedBy, note string) (out *entity.Adjustment, err error) {
	if id == "" || decidedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	ctx, span := startSpan(ctx, "adjustments.Approve", attribute.String("adjustment_id", id))
	defer func() { endSpan(span, err) }()

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		a, err := repos.Adjustments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := a.Approve(decidedBy, note, now); err != nil {
			return err
		}
		if err := applyAdjustment(ctx, repos, a); err != nil {
			return err
		}
		if err := a.MarkApplied(now); err != nil {
			return err
		}
		out = a
		return repos.Adjustments.Update(ctx, a)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAdjustment) {
			uc.log.Warn().Str("ajuste", id).Err(err).Msg("ajuste aprobado pero rechazado por el libro")
		}
		return nil, err
	}
	uc.log.Info().Str("ajuste", out.ID).Str("aprobador", decidedBy).Int64("cantidad", out.SignedQuantity).
		Msg("ajuste aplicado")
	uc.effects.afterCommit(ctx, []Event{adjustmentEvent(out)})
	return out, nil
}

// Reject PENDING → REJECTED, sin efecto en el libro.
func (uc *AdjustmentUseCase) Reject(ctx context.Context, id, decidedBy, note string) (*entity.Adjustment, error) {
	if id == "" || decidedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.Adjustment
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		a, err := repos.Adjustments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Reject(decidedBy, note, time.Now().UTC()); err != nil {
			return err
		}
		out = a
		return repos.Adjustments.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("ajuste", out.ID).Str("aprobador", decidedBy).Msg("ajuste rechazado")
	return out, nil
}

// ReviseAdjustmentInput corrección de un ajuste pendiente. Campos nil no cambian.
type ReviseAdjustmentInput struct {
	SignedQuantity *int64
	Evidence       *string
	Reason         *string
}

// Revise corrige un ajuste PENDING antes de su decisión.
func (uc *AdjustmentUseCase) Revise(ctx context.Context, id string, in ReviseAdjustmentInput) (*entity.Adjustment, error) {
	if id == "" || (in.SignedQuantity != nil && *in.SignedQuantity == 0) {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.Adjustment
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		a, err := repos.Adjustments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != entity.AdjustmentPending {
			return &domain.InvalidStateTransitionError{Entity: "ajuste", ID: a.ID, From: a.Status, To: entity.AdjustmentPending}
		}
		if in.SignedQuantity != nil {
			a.SignedQuantity = *in.SignedQuantity
		}
		if in.Evidence != nil {
			a.Evidence = *in.Evidence
		}
		if in.Reason != nil {
			a.Reason = *in.Reason
		}
		out = a
		return repos.Adjustments.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get devuelve un ajuste.
func (uc *AdjustmentUseCase) Get(ctx context.Context, id string) (*entity.Adjustment, error) {
	var a *entity.Adjustment
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		var err error
		a, err = repos.Adjustments.GetByID(ctx, id)
		return err
	})
	return a, err
}

// resolveTarget completa ubicación y producto a partir del lote o la asignación objetivo.
func resolveTarget(ctx context.Context, repos TxRepos, a *entity.Adjustment) error {
	if a.TargetType == entity.AdjustmentTargetBatch {
		b, err := repos.Ledger.GetBatch(ctx, a.TargetID)
		if err != nil {
			return err
		}
		a.LocationID, a.ProductID = b.LocationID, b.ProductID
		return nil
	}
	alloc, err := repos.Ledger.GetAllocationByID(ctx, a.TargetID)
	if err != nil {
		return err
	}
	a.LocationID, a.ProductID = alloc.LocationID, alloc.ProductID
	return nil
}

// applyAdjustment bloquea la tupla y aplica el delta; un faltante se traduce en InvalidAdjustmentError
// con la cantidad actual del objetivo.
func applyAdjustment(ctx context.Context, repos TxRepos, a *entity.Adjustment) error {
	if err := lockTuples(ctx, repos, a.Key()); err != nil {
		return err
	}
	loc, err := repos.Locations.GetByID(ctx, a.LocationID)
	if err != nil {
		return err
	}
	req := deltaRequest{Key: a.Key(), Delta: a.SignedQuantity, Reason: ReasonAdjustment}
	var current int64
	if a.TargetType == entity.AdjustmentTargetBatch {
		b, err := repos.Ledger.GetBatch(ctx, a.TargetID)
		if err != nil {
			return err
		}
		current = b.CurrentQuantity
		req.BatchID = b.ID
	} else {
		alloc, err := repos.Ledger.GetAllocationByID(ctx, a.TargetID)
		if err != nil {
			return err
		}
		current = alloc.Sellable()
	}
	if _, err := applyDelta(ctx, repos, loc, req); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return &domain.InvalidAdjustmentError{AdjustmentID: a.ID, Current: current, Delta: a.SignedQuantity}
		}
		return err
	}
	return nil
}

func adjustmentEvent(a *entity.Adjustment) Event {
	at := a.CreatedAt
	if a.AppliedAt != nil {
		at = *a.AppliedAt
	}
	return Event{
		Type:        EventAdjustmentApplied,
		AggregateID: a.ID,
		ProductID:   a.ProductID,
		LocationID:  a.LocationID,
		Quantity:    a.SignedQuantity,
		OccurredAt:  at,
		Data:        map[string]any{"kind": a.Kind, "target_type": a.TargetType, "target_id": a.TargetID},
	}
}
