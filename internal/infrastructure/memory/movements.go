package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.MovementRepository = (*Store)(nil)

// movements arma la vista derivada del libro sobre el estado confirmado, como la consulta UNION ALL.
func (st *state) movements() []*entity.MovementRecord {
	out := make([]*entity.MovementRecord, 0)
	add := func(rec entity.MovementRecord) {
		if p, ok := st.products[rec.ProductID]; ok {
			rec.ProductName, rec.SKU, rec.CategoryID = p.Name, p.SKU, p.CategoryID
		}
		out = append(out, &rec)
	}
	for _, b := range st.batches {
		if b.OriginalIntakeQuantity > 0 {
			add(entity.MovementRecord{
				ID: b.ID, ReferenceType: entity.MovementIntake, ReferenceID: b.ID,
				LocationID: b.LocationID, ProductID: b.ProductID,
				SignedQuantity: b.OriginalIntakeQuantity, OccurredAt: b.CreatedAt,
			})
		}
	}
	for _, r := range st.reservations {
		if r.Status == entity.ReservationCommitted && r.FinalizedAt != nil {
			add(entity.MovementRecord{
				ID: r.ID, ReferenceType: entity.MovementSale, ReferenceID: r.ID,
				LocationID: r.LocationID, ProductID: r.ProductID,
				SignedQuantity: -r.Quantity, OccurredAt: *r.FinalizedAt,
			})
		}
	}
	for _, t := range st.transfers {
		if t.Status != entity.TransferCompleted || t.CompletedAt == nil {
			continue
		}
		for _, l := range t.Lines {
			add(entity.MovementRecord{
				ID: l.ID, ReferenceType: entity.MovementTransfer, ReferenceID: t.ID,
				LocationID: t.SourceLocationID, ProductID: l.ProductID,
				SignedQuantity: -l.RequestedQuantity, OccurredAt: *t.CompletedAt,
			})
			add(entity.MovementRecord{
				ID: l.ID, ReferenceType: entity.MovementTransfer, ReferenceID: t.ID,
				LocationID: t.DestinationLocationID, ProductID: l.ProductID,
				SignedQuantity: l.RequestedQuantity, OccurredAt: *t.CompletedAt,
			})
		}
	}
	for _, a := range st.adjustments {
		if a.Status == entity.AdjustmentApplied && a.AppliedAt != nil {
			add(entity.MovementRecord{
				ID: a.ID, ReferenceType: entity.MovementAdjustment, ReferenceID: a.ID,
				LocationID: a.LocationID, ProductID: a.ProductID,
				SignedQuantity: a.SignedQuantity, OccurredAt: *a.AppliedAt,
			})
		}
	}
	return out
}

func matches(m *entity.MovementRecord, f repository.MovementFilter) bool {
	if len(f.ProductIDs) > 0 && !contains(f.ProductIDs, m.ProductID) {
		return false
	}
	if f.LocationID != "" && m.LocationID != f.LocationID {
		return false
	}
	if f.CategoryID != "" && m.CategoryID != f.CategoryID {
		return false
	}
	if f.From != nil && m.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !m.OccurredAt.Before(*f.To) {
		return false
	}
	if len(f.ReferenceTypes) > 0 && !contains(f.ReferenceTypes, m.ReferenceType) {
		return false
	}
	if f.Search != "" {
		q := inventory.FoldText(f.Search)
		if !strings.Contains(inventory.FoldText(m.ProductName), q) &&
			!strings.Contains(strings.ToLower(m.SKU), q) &&
			m.ReferenceID != f.Search {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Store) filtered(f repository.MovementFilter) []*entity.MovementRecord {
	all := s.snapshot().movements()
	out := all[:0]
	for _, m := range all {
		if matches(m, f) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.SignedQuantity < b.SignedQuantity
	})
	return out
}

// List implementa repository.MovementRepository.
func (s *Store) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.MovementRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := s.filtered(f)
	if offset >= len(all) {
		return []*entity.MovementRecord{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Count implementa repository.MovementRepository.
func (s *Store) Count(ctx context.Context, f repository.MovementFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(s.filtered(f))), nil
}

// Aggregate implementa repository.MovementRepository.
func (s *Store) Aggregate(ctx context.Context, f repository.MovementFilter, groupBy string) ([]entity.MovementAggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	groups := map[string]*entity.MovementAggregate{}
	for _, m := range s.filtered(f) {
		key := groupKey(m, groupBy)
		g, ok := groups[key]
		if !ok {
			g = &entity.MovementAggregate{Group: key}
			groups[key] = g
		}
		g.Count++
		g.Net += m.SignedQuantity
		if m.SignedQuantity > 0 {
			g.Inbound += m.SignedQuantity
		} else {
			g.Outbound -= m.SignedQuantity
		}
	}
	out := make([]entity.MovementAggregate, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out, nil
}

func groupKey(m *entity.MovementRecord, groupBy string) string {
	t := m.OccurredAt.UTC()
	switch groupBy {
	case repository.GroupByDay:
		return t.Format("2006-01-02")
	case repository.GroupByWeek:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	case repository.GroupByMonth:
		return t.Format("2006-01")
	case repository.GroupByLocation:
		return m.LocationID
	case repository.GroupByCategory:
		return m.CategoryID
	default:
		return m.ReferenceType
	}
}
