package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.ReconciliationRepository = (*Store)(nil)

// Snapshot implementa repository.ReconciliationRepository sobre el estado confirmado.
func (s *Store) Snapshot(ctx context.Context, productID string) (*inventory.ReconciliationInput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.snapshot()
	in := &inventory.ReconciliationInput{ProductID: productID, Storefronts: []inventory.StorefrontPosition{}}
	for _, b := range st.batches {
		if b.ProductID == productID {
			in.RecordedIntake += b.OriginalIntakeQuantity
			in.WarehouseCurrent += b.CurrentQuantity
		}
	}
	for _, a := range st.allocations {
		if a.ProductID == productID {
			in.Storefronts = append(in.Storefronts, inventory.StorefrontPosition{
				LocationID: a.LocationID, Quantity: a.Quantity, Sold: a.SoldQuantity,
			})
		}
	}
	sort.Slice(in.Storefronts, func(i, j int) bool { return in.Storefronts[i].LocationID < in.Storefronts[j].LocationID })
	for _, a := range st.adjustments {
		if a.ProductID != productID || a.Status != entity.AdjustmentApplied {
			continue
		}
		switch {
		case entity.IsShrinkageKind(a.Kind):
			in.ShrinkageApplied += a.SignedQuantity
		case entity.CountsAsCorrection(a.Kind):
			in.CorrectionsApplied += a.SignedQuantity
		}
	}
	for _, r := range st.reservations {
		if r.ProductID != productID {
			continue
		}
		switch r.Status {
		case entity.ReservationActive:
			in.ActiveHolds += r.Quantity
		case entity.ReservationCommitted:
			if loc, ok := st.locations[r.LocationID]; ok && loc.IsWarehouse() {
				in.WarehouseSold += r.Quantity
			}
		}
	}
	return in, nil
}

// ListProductIDs implementa repository.ReconciliationRepository.
func (s *Store) ListProductIDs(ctx context.Context, limit, offset int) ([]string, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	seen := map[string]struct{}{}
	for _, b := range s.snapshot().batches {
		seen[b.ProductID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	total := int64(len(ids))
	if offset >= len(ids) {
		return []string{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end], total, nil
}
