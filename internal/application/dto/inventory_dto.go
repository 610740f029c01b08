package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AvailabilityResponse cantidades de una tupla (ubicación, producto).
type AvailabilityResponse struct {
	LocationID string `json:"location_id"`
	ProductID  string `json:"product_id"`
	OnHand     int64  `json:"on_hand"`
	Reserved   int64  `json:"reserved"`
	Available  int64  `json:"available"`
}

// AdjustStockResponse disponibilidad tras un ajuste crudo y el ajuste MANUAL que lo registra.
type AdjustStockResponse struct {
	AvailabilityResponse
	AdjustmentID string `json:"adjustment_id"`
}

// ReceiveStockRequest body para POST /api/stock/batches.
type ReceiveStockRequest struct {
	LocationID string          `json:"location_id"`
	ProductID  string          `json:"product_id"`
	Quantity   int64           `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

// StockBatchResponse lote de bodega.
type StockBatchResponse struct {
	ID                     string          `json:"id"`
	LocationID             string          `json:"location_id"`
	ProductID              string          `json:"product_id"`
	OriginalIntakeQuantity int64           `json:"original_intake_quantity"`
	CurrentQuantity        int64           `json:"current_quantity"`
	UnitCost               decimal.Decimal `json:"unit_cost"`
	SourceTransferID       string          `json:"source_transfer_id,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
}

// AdjustStockRequest body para POST /api/stock/adjust (ajuste crudo del libro, solo admin).
type AdjustStockRequest struct {
	LocationID string           `json:"location_id"`
	ProductID  string           `json:"product_id"`
	Delta      int64            `json:"delta"`
	Reason     string           `json:"reason"`
	BatchID    string           `json:"batch_id,omitempty"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
}

// ReserveRequest body para POST /api/reservations.
type ReserveRequest struct {
	ProductID        string `json:"product_id"`
	LocationID       string `json:"location_id"`
	Quantity         int64  `json:"quantity"`
	SessionReference string `json:"session_reference"`
	TTLSeconds       int    `json:"ttl_seconds,omitempty"`
}

// CommitReservationRequest body para POST /api/reservations/:id/commit.
type CommitReservationRequest struct {
	SaleReference string `json:"sale_reference"`
}

// ReservationResponse reserva de una línea de carrito.
type ReservationResponse struct {
	ID               string     `json:"id"`
	ProductID        string     `json:"product_id"`
	LocationID       string     `json:"location_id"`
	Quantity         int64      `json:"quantity"`
	SessionReference string     `json:"session_reference"`
	Status           string     `json:"status"`
	SaleReference    string     `json:"sale_reference,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	FinalizedAt      *time.Time `json:"finalized_at,omitempty"`
}

// TransferLineRequest línea solicitada. unit_cost vacío = costo promedio de los lotes consumidos.
type TransferLineRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	SourceLocationID      string                `json:"source_location_id"`
	DestinationLocationID string                `json:"destination_location_id"`
	Lines                 []TransferLineRequest `json:"lines"`
	Notes                 string                `json:"notes,omitempty"`
}

// UpdateNotesRequest body para PATCH /api/transfers/:id/notes.
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// TransferLineResponse línea de traslado.
type TransferLineResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	RequestedQuantity int64           `json:"requested_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
}

// TransferResponse traslado con sus líneas.
type TransferResponse struct {
	ID                    string                 `json:"id"`
	SourceLocationID      string                 `json:"source_location_id"`
	DestinationLocationID string                 `json:"destination_location_id"`
	Status                string                 `json:"status"`
	Notes                 string                 `json:"notes"`
	CreatedBy             string                 `json:"created_by"`
	CompletedBy           string                 `json:"completed_by,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	DispatchedAt          *time.Time             `json:"dispatched_at,omitempty"`
	CompletedAt           *time.Time             `json:"completed_at,omitempty"`
	CancelledAt           *time.Time             `json:"cancelled_at,omitempty"`
	Lines                 []TransferLineResponse `json:"lines"`
}

// SubmitAdjustmentRequest body para POST /api/adjustments.
type SubmitAdjustmentRequest struct {
	Kind           string `json:"kind"`
	TargetType     string `json:"target_type"`
	TargetID       string `json:"target_id"`
	SignedQuantity int64  `json:"signed_quantity"`
	Evidence       string `json:"evidence"`
	Reason         string `json:"reason"`
}

// ReviseAdjustmentRequest body para PATCH /api/adjustments/:id. Campos ausentes no cambian.
type ReviseAdjustmentRequest struct {
	SignedQuantity *int64  `json:"signed_quantity,omitempty"`
	Evidence       *string `json:"evidence,omitempty"`
	Reason         *string `json:"reason,omitempty"`
}

// DecisionRequest body para aprobar o rechazar un ajuste.
type DecisionRequest struct {
	Note string `json:"note"`
}

// AdjustmentResponse ajuste y su estado de aprobación.
type AdjustmentResponse struct {
	ID               string     `json:"id"`
	Kind             string     `json:"kind"`
	TargetType       string     `json:"target_type"`
	TargetID         string     `json:"target_id"`
	LocationID       string     `json:"location_id"`
	ProductID        string     `json:"product_id"`
	SignedQuantity   int64      `json:"signed_quantity"`
	Status           string     `json:"status"`
	RequiresApproval bool       `json:"requires_approval"`
	Evidence         string     `json:"evidence"`
	Reason           string     `json:"reason"`
	SubmittedBy      string     `json:"submitted_by"`
	DecidedBy        string     `json:"decided_by,omitempty"`
	DecisionNote     string     `json:"decision_note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	DecidedAt        *time.Time `json:"decided_at,omitempty"`
	AppliedAt        *time.Time `json:"applied_at,omitempty"`
}

// StorefrontBreakdownDTO posición de una tienda en la conciliación.
type StorefrontBreakdownDTO struct {
	LocationID  string `json:"location_id"`
	Quantity    int64  `json:"quantity"`
	Sold        int64  `json:"sold"`
	SellableNow int64  `json:"sellable_now"`
}

// ReconciliationReportResponse desglose de conciliación de un producto.
type ReconciliationReportResponse struct {
	ProductID          string                   `json:"product_id"`
	RecordedIntake     int64                    `json:"recorded_intake"`
	WarehouseCurrent   int64                    `json:"warehouse_current"`
	AllocationTotal    int64                    `json:"allocation_total"`
	ShrinkageQuantity  int64                    `json:"shrinkage_quantity"`
	CorrectionQuantity int64                    `json:"correction_quantity"`
	ReservedQuantity   int64                    `json:"reserved_quantity"`
	Baseline           int64                    `json:"baseline"`
	Delta              int64                    `json:"delta"`
	Status             string                   `json:"status"`
	Storefronts        []StorefrontBreakdownDTO `json:"storefronts"`
}

// ReconciliationRunResponse conciliación paginada de todos los productos.
type ReconciliationRunResponse struct {
	PageResponse
	Mismatches int                            `json:"mismatches"`
	Reports    []ReconciliationReportResponse `json:"reports"`
}

// MovementResponse fila del libro de movimientos.
type MovementResponse struct {
	ID             string    `json:"id"`
	ReferenceType  string    `json:"reference_type"`
	ReferenceID    string    `json:"reference_id"`
	LocationID     string    `json:"location_id"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	SKU            string    `json:"sku"`
	CategoryID     string    `json:"category_id,omitempty"`
	SignedQuantity int64     `json:"signed_quantity"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// MovementPageResponse página del libro de movimientos.
type MovementPageResponse struct {
	PageResponse
	Items []MovementResponse `json:"items"`
}

// MovementAggregateDTO totales de un grupo.
type MovementAggregateDTO struct {
	Group    string `json:"group"`
	Count    int64  `json:"count"`
	Inbound  int64  `json:"inbound"`
	Outbound int64  `json:"outbound"`
	Net      int64  `json:"net"`
}

// MovementSummaryResponse resumen agrupado del libro de movimientos.
type MovementSummaryResponse struct {
	GroupBy string                 `json:"group_by"`
	Groups  []MovementAggregateDTO `json:"groups"`
}
