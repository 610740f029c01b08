package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-core/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/inventario-core/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventario-core/pkg/jwt"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	ledger *inventory.LedgerUseCase
}

func newTestServer(t *testing.T, lockTimeout time.Duration) *testServer {
	t.Helper()
	store := memory.New(lockTimeout)
	store.AddLocation(entity.Location{ID: "W1", Name: "Bodega central", Kind: entity.LocationKindWarehouse})
	store.AddLocation(entity.Location{ID: "S1", Name: "Tienda centro", Kind: entity.LocationKindStorefront})
	store.AddProduct(entity.Product{ID: "P1", SKU: "CAF-001", Name: "Café molido"})
	store.AddProduct(entity.Product{ID: "P2", SKU: "AZU-001", Name: "Azúcar"})

	log := logger.Nop()
	effects := inventory.NewEffects(nil, cache.NewMemoryCache(), log)
	ledger := inventory.NewLedgerUseCase(store, effects, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:         ledger,
		Reservations:   inventory.NewReservationUseCase(store, effects, log, inventory.ReservationOptions{}),
		Transfers:      inventory.NewTransferUseCase(store, effects, log),
		Adjustments:    inventory.NewAdjustmentUseCase(store, effects, log),
		Reconciliation: inventory.NewReconciliationUseCase(store, log),
		Movements:      inventory.NewMovementUseCase(store, cache.NewMemoryCache(), time.Minute, log),
		JWTSecret:      testJWTSecret,
		Log:            log,
	})
	return &testServer{app: app, store: store, ledger: ledger}
}

func (s *testServer) receive(t *testing.T, locationID, productID string, qty int64) {
	t.Helper()
	_, err := s.ledger.Receive(context.Background(), inventory.ReceiveInput{
		LocationID: locationID, ProductID: productID, Quantity: qty, UnitCost: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
}

func (s *testServer) do(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestReservas_SegundaReservaSinDisponibleRetorna409ConDetalle(t *testing.T) {
	s := newTestServer(t, time.Second)
	s.receive(t, "W1", "P1", 10)

	req := dto.ReserveRequest{ProductID: "P1", LocationID: "W1", Quantity: 10, SessionReference: "carrito-1"}
	resp := s.do(t, http.MethodPost, "/api/reservations", pkgjwt.RoleVendedor, req)
	created := decode[dto.ReservationResponse](t, resp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, entity.ReservationActive, created.Status)

	req.SessionReference = "carrito-2"
	resp = s.do(t, http.MethodPost, "/api/reservations", pkgjwt.RoleVendedor, req)
	errBody := decode[struct {
		Code    string             `json:"code"`
		Details []dto.ShortfallDTO `json:"details"`
	}](t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	require.Len(t, errBody.Details, 1)
	assert.Equal(t, int64(0), errBody.Details[0].Available)
	assert.Equal(t, int64(10), errBody.Details[0].Requested)
}

func TestReservas_CommitDescuentaDelLibro(t *testing.T) {
	s := newTestServer(t, time.Second)
	s.receive(t, "W1", "P1", 10)

	resp := s.do(t, http.MethodPost, "/api/reservations", pkgjwt.RoleVendedor,
		dto.ReserveRequest{ProductID: "P1", LocationID: "W1", Quantity: 4, SessionReference: "carrito-1"})
	created := decode[dto.ReservationResponse](t, resp)

	resp = s.do(t, http.MethodPost, "/api/reservations/"+created.ID+"/commit", pkgjwt.RoleVendedor, nil)
	committed := decode[dto.ReservationResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.ReservationCommitted, committed.Status)

	resp = s.do(t, http.MethodGet, "/api/stock/available?location_id=W1&product_id=P1", pkgjwt.RoleVendedor, nil)
	avail := decode[dto.AvailabilityResponse](t, resp)
	assert.Equal(t, int64(6), avail.OnHand)
	assert.Equal(t, int64(0), avail.Reserved)
	assert.Equal(t, int64(6), avail.Available)

	resp = s.do(t, http.MethodPost, "/api/reservations/"+created.ID+"/release", pkgjwt.RoleVendedor, nil)
	released := decode[dto.ReservationResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.ReservationCommitted, released.Status, "liberar una reserva terminal no la cambia")
}

func TestReservas_InexistenteRetorna404(t *testing.T) {
	s := newTestServer(t, time.Second)
	resp := s.do(t, http.MethodGet, "/api/reservations/no-existe", pkgjwt.RoleVendedor, nil)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestReservas_TTLNegativoRetorna400(t *testing.T) {
	s := newTestServer(t, time.Second)
	resp := s.do(t, http.MethodPost, "/api/reservations", pkgjwt.RoleVendedor,
		dto.ReserveRequest{ProductID: "P1", LocationID: "W1", Quantity: 1, SessionReference: "c", TTLSeconds: -5})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReservas_TTLEnormeSeAcotaAlMaximo(t *testing.T) {
	s := newTestServer(t, time.Second)
	s.receive(t, "W1", "P1", 5)

	resp := s.do(t, http.MethodPost, "/api/reservations", pkgjwt.RoleVendedor,
		dto.ReserveRequest{ProductID: "P1", LocationID: "W1", Quantity: 1, SessionReference: "c", TTLSeconds: 10_000_000_000})
	created := decode[dto.ReservationResponse](t, resp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.WithinDuration(t, created.CreatedAt.Add(2*time.Hour), created.ExpiresAt, time.Second)
}

func TestTraslados_VendedorNoPuedeCrear(t *testing.T) {
	s := newTestServer(t, time.Second)
	resp := s.do(t, http.MethodPost, "/api/transfers", pkgjwt.RoleVendedor, dto.CreateTransferRequest{
		SourceLocationID: "W1", DestinationLocationID: "S1",
		Lines: []dto.TransferLineRequest{{ProductID: "P1", Quantity: 1}},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTraslados_FulfillReportaTodosLosFaltantes(t *testing.T) {
	s := newTestServer(t, time.Second)
	s.receive(t, "W1", "P1", 2)

	resp := s.do(t, http.MethodPost, "/api/transfers", pkgjwt.RoleBodeguero, dto.CreateTransferRequest{
		SourceLocationID: "W1", DestinationLocationID: "S1",
		Lines: []dto.TransferLineRequest{{ProductID: "P1", Quantity: 5}, {ProductID: "P2", Quantity: 3}},
	})
	created := decode[dto.TransferResponse](t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, entity.TransferNew, created.Status)

	resp = s.do(t, http.MethodPost, "/api/transfers/"+created.ID+"/fulfill", pkgjwt.RoleBodeguero, nil)
	errBody := decode[struct {
		Code    string             `json:"code"`
		Details []dto.ShortfallDTO `json:"details"`
	}](t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	assert.Len(t, errBody.Details, 2)

	resp = s.do(t, http.MethodGet, "/api/transfers/"+created.ID, pkgjwt.RoleBodeguero, nil)
	after := decode[dto.TransferResponse](t, resp)
	assert.Equal(t, entity.TransferNew, after.Status, "un traslado rechazado no cambia de estado")
}

func TestTraslados_CancelarCompletadoRetorna409(t *testing.T) {
	s := newTestServer(t, time.Second)
	s.receive(t, "W1", "P1", 5)

	resp := s.do(t, http.MethodPost, "/api/transfers", pkgjwt.RoleManager, dto.CreateTransferRequest{
		SourceLocationID: "W1", DestinationLocationID: "S1",
		Lines: []dto.TransferLineRequest{{ProductID: "P1", Quantity: 5}},
	})
	created := decode[dto.TransferResponse](t, resp)
	resp = s.do(t, http.MethodPost, "/api/transfers/"+created.ID+"/fulfill", pkgjwt.RoleManager, nil)
	done := decode[dto.TransferResponse](t, resp)
	require.Equal(t, entity.TransferCompleted, done.Status)

	resp = s.do(t, http.MethodPost, "/api/transfers/"+created.ID+"/cancel", pkgjwt.RoleManager, nil)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATE_TRANSITION", body.Code)
}

func TestAjustes_AprobarRoboMayorQueElLoteRetorna409(t *testing.T) {
	s := newTestServer(t, time.Second)
	batch, err := s.ledger.Receive(context.Background(), inventory.ReceiveInput{
		LocationID: "W1", ProductID: "P1", Quantity: 3, UnitCost: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	resp := s.do(t, http.MethodPost, "/api/adjustments", pkgjwt.RoleBodeguero, dto.SubmitAdjustmentRequest{
		Kind: entity.AdjustmentTheft, TargetType: entity.AdjustmentTargetBatch, TargetID: batch.ID,
		SignedQuantity: -5, Evidence: "acta-17",
	})
	adj := decode[dto.AdjustmentResponse](t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, entity.AdjustmentPending, adj.Status)

	resp = s.do(t, http.MethodPost, "/api/adjustments/"+adj.ID+"/approve", pkgjwt.RoleBodeguero, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/adjustments/"+adj.ID+"/approve", pkgjwt.RoleManager, nil)
	body := decode[struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}](t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_ADJUSTMENT", body.Code)
	assert.EqualValues(t, 3, body.Details["current"])
	assert.EqualValues(t, -5, body.Details["delta"])

	resp = s.do(t, http.MethodGet, "/api/stock/available?location_id=W1&product_id=P1", pkgjwt.RoleVendedor, nil)
	avail := decode[dto.AvailabilityResponse](t, resp)
	assert.Equal(t, int64(3), avail.OnHand)
}

func TestStock_AjusteCrudoSoloAdmin(t *testing.T) {
	s := newTestServer(t, time.Second)
	req := dto.AdjustStockRequest{LocationID: "W1", ProductID: "P1", Delta: 3, Reason: inventory.ReasonManual}

	resp := s.do(t, http.MethodPost, "/api/stock/adjust", pkgjwt.RoleManager, req)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/stock/adjust", pkgjwt.RoleAdmin, req)
	out := decode[dto.AdjustStockResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), out.Available)
	require.NotEmpty(t, out.AdjustmentID)

	resp = s.do(t, http.MethodGet, "/api/adjustments/"+out.AdjustmentID, pkgjwt.RoleVendedor, nil)
	adj := decode[dto.AdjustmentResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MANUAL", adj.Kind)
	assert.Equal(t, "APPLIED", adj.Status)
	assert.Equal(t, int64(3), adj.SignedQuantity)
	assert.Equal(t, testUserID, adj.SubmittedBy, "el ajuste crudo guarda quién lo hizo")

	resp = s.do(t, http.MethodGet, "/api/movements?location_id=W1&type=adjustment", pkgjwt.RoleVendedor, nil)
	page := decode[dto.MovementPageResponse](t, resp)
	require.Len(t, page.Items, 1)
	assert.Equal(t, out.AdjustmentID, page.Items[0].ReferenceID)
}

func TestStock_BloqueoAgotadoRetorna503ConRetryAfter(t *testing.T) {
	s := newTestServer(t, 50*time.Millisecond)
	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.store.Run(context.Background(), func(context.Context, inventory.TxRepos) error {
			close(holding)
			<-done
			return nil
		})
	}()
	<-holding
	defer close(done)

	resp := s.do(t, http.MethodGet, "/api/stock/available?location_id=W1&product_id=P1", pkgjwt.RoleVendedor, nil)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, "LOCK_TIMEOUT", body.Code)
}

func TestConciliacion_VendedorSinPermiso(t *testing.T) {
	s := newTestServer(t, time.Second)
	resp := s.do(t, http.MethodGet, "/api/reconciliation/products/P1", pkgjwt.RoleVendedor, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/reconciliation/products/P1", pkgjwt.RoleManager, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMovimientos_PaginacionConTotal(t *testing.T) {
	s := newTestServer(t, time.Second)
	for i := 0; i < 60; i++ {
		s.receive(t, "W1", "P1", 1)
	}

	resp := s.do(t, http.MethodGet, "/api/movements?product_id=P1&type=intake&limit=25&offset=50", pkgjwt.RoleManager, nil)
	page := decode[dto.MovementPageResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(60), page.Total)
	assert.Equal(t, 25, page.Limit)
	assert.Equal(t, 50, page.Offset)
	assert.Len(t, page.Items, 10)
}

func TestMovimientos_FechaInvalidaRetorna400(t *testing.T) {
	s := newTestServer(t, time.Second)
	resp := s.do(t, http.MethodGet, "/api/movements?from=ayer", pkgjwt.RoleManager, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMovimientos_ResumenPorUbicacion(t *testing.T) {
	s := newTestServer(t, time.Second)
	s.receive(t, "W1", "P1", 7)
	s.receive(t, "W1", "P2", 3)

	resp := s.do(t, http.MethodGet, fmt.Sprintf("/api/movements/summary?group_by=%s", "location"), pkgjwt.RoleManager, nil)
	summary := decode[dto.MovementSummaryResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, summary.Groups, 1)
	assert.Equal(t, "W1", summary.Groups[0].Group)
	assert.Equal(t, int64(10), summary.Groups[0].Inbound)
}
