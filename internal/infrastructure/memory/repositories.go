package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var (
	_ repository.LocationRepository    = (*locationRepo)(nil)
	_ repository.ProductRepository     = (*productRepo)(nil)
	_ repository.LedgerRepository      = (*ledgerRepo)(nil)
	_ repository.ReservationRepository = (*reservationRepo)(nil)
	_ repository.TransferRepository    = (*transferRepo)(nil)
	_ repository.AdjustmentRepository  = (*adjustmentRepo)(nil)
)

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
}

type locationRepo struct{ st *state }

func (r *locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	l, ok := r.st.locations[id]
	if !ok {
		return nil, notFound("ubicación", id)
	}
	return &l, nil
}

type productRepo struct{ st *state }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, notFound("producto", id)
	}
	return &p, nil
}

// ledgerRepo: el escritor único ya serializa las transacciones, LockTuples no necesita más.
type ledgerRepo struct{ st *state }

func (r *ledgerRepo) LockTuples(ctx context.Context, _ []entity.TupleKey) error {
	return ctx.Err()
}

func (r *ledgerRepo) ListBatches(_ context.Context, locationID, productID string) ([]*entity.StockBatch, error) {
	out := make([]*entity.StockBatch, 0)
	for _, b := range r.st.batches {
		if b.LocationID == locationID && b.ProductID == productID {
			c := b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return r.st.batchSeq[out[i].ID] < r.st.batchSeq[out[j].ID]
	})
	return out, nil
}

func (r *ledgerRepo) GetBatch(_ context.Context, id string) (*entity.StockBatch, error) {
	b, ok := r.st.batches[id]
	if !ok {
		return nil, notFound("lote", id)
	}
	return &b, nil
}

func (r *ledgerRepo) CreateBatch(_ context.Context, b *entity.StockBatch) error {
	if _, ok := r.st.batches[b.ID]; ok {
		return fmt.Errorf("lote %s ya existe: %w", b.ID, domain.ErrInvalidInput)
	}
	if b.CurrentQuantity < 0 || b.OriginalIntakeQuantity < 0 {
		return fmt.Errorf("lote %s con cantidad negativa: %w", b.ID, domain.ErrInvalidInput)
	}
	r.st.seq++
	r.st.batchSeq[b.ID] = r.st.seq
	r.st.batches[b.ID] = *b
	return nil
}

func (r *ledgerRepo) UpdateBatchQuantity(_ context.Context, id string, current int64, at time.Time) error {
	b, ok := r.st.batches[id]
	if !ok {
		return notFound("lote", id)
	}
	if current < 0 {
		return fmt.Errorf("lote %s quedaría negativo: %w", id, domain.ErrInsufficientStock)
	}
	b.CurrentQuantity = current
	b.UpdatedAt = at
	r.st.batches[id] = b
	return nil
}

func (r *ledgerRepo) GetAllocation(_ context.Context, locationID, productID string) (*entity.LocationAllocation, error) {
	for _, a := range r.st.allocations {
		if a.LocationID == locationID && a.ProductID == productID {
			c := a
			return &c, nil
		}
	}
	return nil, notFound("asignación", locationID+"/"+productID)
}

func (r *ledgerRepo) GetAllocationByID(_ context.Context, id string) (*entity.LocationAllocation, error) {
	a, ok := r.st.allocations[id]
	if !ok {
		return nil, notFound("asignación", id)
	}
	return &a, nil
}

func (r *ledgerRepo) SaveAllocation(_ context.Context, a *entity.LocationAllocation) error {
	if a.SoldQuantity < 0 || a.Quantity < a.SoldQuantity {
		return fmt.Errorf("asignación %s inconsistente: %w", a.ID, domain.ErrInsufficientStock)
	}
	for id, existing := range r.st.allocations {
		if id != a.ID && existing.LocationID == a.LocationID && existing.ProductID == a.ProductID {
			return fmt.Errorf("asignación duplicada %s/%s: %w", a.LocationID, a.ProductID, domain.ErrConcurrentModification)
		}
	}
	r.st.allocations[a.ID] = *a
	return nil
}

type reservationRepo struct{ st *state }

func (r *reservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	if _, ok := r.st.reservations[res.ID]; ok {
		return fmt.Errorf("reserva %s ya existe: %w", res.ID, domain.ErrInvalidInput)
	}
	r.st.reservations[res.ID] = *res
	return nil
}

func (r *reservationRepo) GetByID(_ context.Context, id string) (*entity.Reservation, error) {
	res, ok := r.st.reservations[id]
	if !ok {
		return nil, notFound("reserva", id)
	}
	return &res, nil
}

func (r *reservationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error) {
	return r.GetByID(ctx, id)
}

func (r *reservationRepo) Update(_ context.Context, res *entity.Reservation) error {
	if _, ok := r.st.reservations[res.ID]; !ok {
		return notFound("reserva", res.ID)
	}
	r.st.reservations[res.ID] = *res
	return nil
}

func (r *reservationRepo) SumActive(_ context.Context, locationID, productID string) (int64, error) {
	var total int64
	for _, res := range r.st.reservations {
		if res.Status == entity.ReservationActive && res.LocationID == locationID && res.ProductID == productID {
			total += res.Quantity
		}
	}
	return total, nil
}

func (r *reservationRepo) ExpireDue(_ context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	due := make([]entity.Reservation, 0)
	for _, res := range r.st.reservations {
		if res.IsDue(now) {
			due = append(due, res)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].ExpiresAt.Equal(due[j].ExpiresAt) {
			return due[i].ExpiresAt.Before(due[j].ExpiresAt)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	out := make([]*entity.Reservation, 0, len(due))
	for i := range due {
		res := due[i]
		if err := res.TransitionTo(entity.ReservationExpired, now); err != nil {
			return nil, err
		}
		r.st.reservations[res.ID] = res
		out = append(out, &res)
	}
	return out, nil
}

func (r *reservationRepo) ListBySession(_ context.Context, sessionReference string) ([]*entity.Reservation, error) {
	out := make([]*entity.Reservation, 0)
	for _, res := range r.st.reservations {
		if res.SessionReference == sessionReference {
			c := res
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type transferRepo struct{ st *state }

func copyTransfer(t entity.Transfer) *entity.Transfer {
	t.Lines = append([]entity.TransferLine(nil), t.Lines...)
	return &t
}

func (r *transferRepo) Create(_ context.Context, t *entity.Transfer) error {
	if _, ok := r.st.transfers[t.ID]; ok {
		return fmt.Errorf("traslado %s ya existe: %w", t.ID, domain.ErrInvalidInput)
	}
	r.st.transfers[t.ID] = *copyTransfer(*t)
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	t, ok := r.st.transfers[id]
	if !ok {
		return nil, notFound("traslado", id)
	}
	return copyTransfer(t), nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r *transferRepo) Update(_ context.Context, t *entity.Transfer) error {
	if _, ok := r.st.transfers[t.ID]; !ok {
		return notFound("traslado", t.ID)
	}
	r.st.transfers[t.ID] = *copyTransfer(*t)
	return nil
}

type adjustmentRepo struct{ st *state }

func (r *adjustmentRepo) Create(_ context.Context, a *entity.Adjustment) error {
	if _, ok := r.st.adjustments[a.ID]; ok {
		return fmt.Errorf("ajuste %s ya existe: %w", a.ID, domain.ErrInvalidInput)
	}
	r.st.adjustments[a.ID] = *a
	return nil
}

func (r *adjustmentRepo) GetByID(_ context.Context, id string) (*entity.Adjustment, error) {
	a, ok := r.st.adjustments[id]
	if !ok {
		return nil, notFound("ajuste", id)
	}
	return &a, nil
}

func (r *adjustmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error) {
	return r.GetByID(ctx, id)
}

func (r *adjustmentRepo) Update(_ context.Context, a *entity.Adjustment) error {
	if _, ok := r.st.adjustments[a.ID]; !ok {
		return notFound("ajuste", a.ID)
	}
	r.st.adjustments[a.ID] = *a
	return nil
}
