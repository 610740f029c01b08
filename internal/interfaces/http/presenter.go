package http

import (
	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-core/internal/domain/inventory"
)

func availabilityDTO(a *inventory.Availability) dto.AvailabilityResponse {
	return dto.AvailabilityResponse{
		LocationID: a.LocationID, ProductID: a.ProductID,
		OnHand: a.OnHand, Reserved: a.Reserved, Available: a.Available,
	}
}

func batchDTO(b *entity.StockBatch) dto.StockBatchResponse {
	return dto.StockBatchResponse{
		ID:                     b.ID,
		LocationID:             b.LocationID,
		ProductID:              b.ProductID,
		OriginalIntakeQuantity: b.OriginalIntakeQuantity,
		CurrentQuantity:        b.CurrentQuantity,
		UnitCost:               b.UnitCost,
		SourceTransferID:       b.SourceTransferID,
		CreatedAt:              b.CreatedAt,
	}
}

func reservationDTO(r *entity.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		ID:               r.ID,
		ProductID:        r.ProductID,
		LocationID:       r.LocationID,
		Quantity:         r.Quantity,
		SessionReference: r.SessionReference,
		Status:           r.Status,
		SaleReference:    r.SaleReference,
		CreatedAt:        r.CreatedAt,
		ExpiresAt:        r.ExpiresAt,
		FinalizedAt:      r.FinalizedAt,
	}
}

func reservationsDTO(list []*entity.Reservation) []dto.ReservationResponse {
	out := make([]dto.ReservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, reservationDTO(r))
	}
	return out
}

func transferDTO(t *entity.Transfer) dto.TransferResponse {
	lines := make([]dto.TransferLineResponse, 0, len(t.Lines))
	for _, l := range t.Lines {
		lines = append(lines, dto.TransferLineResponse{
			ID: l.ID, ProductID: l.ProductID, RequestedQuantity: l.RequestedQuantity, UnitCost: l.UnitCost,
		})
	}
	return dto.TransferResponse{
		ID:                    t.ID,
		SourceLocationID:      t.SourceLocationID,
		DestinationLocationID: t.DestinationLocationID,
		Status:                t.Status,
		Notes:                 t.Notes,
		CreatedBy:             t.CreatedBy,
		CompletedBy:           t.CompletedBy,
		CreatedAt:             t.CreatedAt,
		DispatchedAt:          t.DispatchedAt,
		CompletedAt:           t.CompletedAt,
		CancelledAt:           t.CancelledAt,
		Lines:                 lines,
	}
}

func adjustmentDTO(a *entity.Adjustment) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ID:               a.ID,
		Kind:             a.Kind,
		TargetType:       a.TargetType,
		TargetID:         a.TargetID,
		LocationID:       a.LocationID,
		ProductID:        a.ProductID,
		SignedQuantity:   a.SignedQuantity,
		Status:           a.Status,
		RequiresApproval: a.RequiresApproval,
		Evidence:         a.Evidence,
		Reason:           a.Reason,
		SubmittedBy:      a.SubmittedBy,
		DecidedBy:        a.DecidedBy,
		DecisionNote:     a.DecisionNote,
		CreatedAt:        a.CreatedAt,
		DecidedAt:        a.DecidedAt,
		AppliedAt:        a.AppliedAt,
	}
}

func reportDTO(r *domaininv.ReconciliationReport) dto.ReconciliationReportResponse {
	stores := make([]dto.StorefrontBreakdownDTO, 0, len(r.Storefronts))
	for _, s := range r.Storefronts {
		stores = append(stores, dto.StorefrontBreakdownDTO{
			LocationID: s.LocationID, Quantity: s.Quantity, Sold: s.Sold, SellableNow: s.SellableNow,
		})
	}
	return dto.ReconciliationReportResponse{
		ProductID:          r.ProductID,
		RecordedIntake:     r.RecordedIntake,
		WarehouseCurrent:   r.WarehouseCurrent,
		AllocationTotal:    r.AllocationTotal,
		ShrinkageQuantity:  r.ShrinkageQuantity,
		CorrectionQuantity: r.CorrectionQuantity,
		ReservedQuantity:   r.ReservedQuantity,
		Baseline:           r.Baseline,
		Delta:              r.Delta,
		Status:             r.Status,
		Storefronts:        stores,
	}
}

func movementDTO(m *entity.MovementRecord) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		LocationID:     m.LocationID,
		ProductID:      m.ProductID,
		ProductName:    m.ProductName,
		SKU:            m.SKU,
		CategoryID:     m.CategoryID,
		SignedQuantity: m.SignedQuantity,
		OccurredAt:     m.OccurredAt,
	}
}
