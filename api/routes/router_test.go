package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stockroomhq/stockroom-backend/api/controllers"
	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/internal/orders"
	"github.com/stockroomhq/stockroom-backend/internal/reservation"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/pagination"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

type stubInventoryService struct{}

func (stubInventoryService) CreateItem(_ context.Context, input inventory.CreateItemInput) (*models.InventoryItem, error) {
	return &models.InventoryItem{SKUCode: input.SKUCode, OnHandQty: input.OnHandQty}, nil
}

func (stubInventoryService) GetItem(_ context.Context, sku string) (*models.InventoryItem, error) {
	if sku == "missing" {
		return nil, apperrors.New(apperrors.CodeNotFound, "inventory item missing not found")
	}
	return &models.InventoryItem{SKUCode: sku, OnHandQty: 10}, nil
}

func (stubInventoryService) ListItems(context.Context, int, int) ([]models.InventoryItem, error) {
	return []models.InventoryItem{{SKUCode: "iphone_12", OnHandQty: 10}}, nil
}

func (stubInventoryService) SetOnHand(_ context.Context, sku string, qty int) (*models.InventoryItem, error) {
	return &models.InventoryItem{SKUCode: sku, OnHandQty: qty}, nil
}

type stubReservationService struct {
	reserveErr error
}

func (s stubReservationService) ReserveOrder(_ context.Context, input reservation.ReserveOrderInput) ([]types.SKUAvailability, error) {
	if s.reserveErr != nil {
		return nil, s.reserveErr
	}
	out := make([]types.SKUAvailability, 0, len(input.Items))
	for _, item := range input.Items {
		out = append(out, types.SKUAvailability{SKUCode: item.SKUCode, AvailableQty: 4})
	}
	return out, nil
}

func (stubReservationService) TransitionForOrder(context.Context, string, enums.ReservationStatus) ([]models.Reservation, error) {
	return nil, nil
}

func (stubReservationService) Availability(_ context.Context, skus []string) ([]types.SKUAvailability, error) {
	out := make([]types.SKUAvailability, 0, len(skus))
	for _, sku := range skus {
		out = append(out, types.SKUAvailability{SKUCode: sku, AvailableQty: 7})
	}
	return out, nil
}

type stubOrdersService struct{}

func (stubOrdersService) PlaceOrder(_ context.Context, input orders.PlaceOrderInput) (*orders.PlaceOrderResult, error) {
	result := &orders.PlaceOrderResult{
		Order: models.Order{OrderNumber: "ORD-1001", Status: enums.OrderPlaced},
	}
	for _, item := range input.Items {
		result.Order.LineItems = append(result.Order.LineItems, models.OrderLineItem{
			SKUCode: item.SKUCode, Qty: item.Qty, UnitPrice: item.UnitPrice,
		})
		result.Availability = append(result.Availability, types.SKUAvailability{SKUCode: item.SKUCode, AvailableQty: 4})
	}
	return result, nil
}

func (stubOrdersService) UpdateStatus(_ context.Context, orderNumber string, target enums.OrderStatus) (*models.Order, error) {
	return &models.Order{OrderNumber: orderNumber, Status: target}, nil
}

func (stubOrdersService) GetOrder(_ context.Context, orderNumber string) (*models.Order, error) {
	return &models.Order{OrderNumber: orderNumber, Status: enums.OrderPlaced}, nil
}

func (stubOrdersService) ListOrders(context.Context, pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{Orders: []models.Order{{OrderNumber: "ORD-1001"}}}, nil
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: config.AppEnvDev}}
}

func newInventoryHandler(t *testing.T, readiness map[string]controllers.Pinger, reserveErr error) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewInventoryRouter(testConfig(), logg, readiness,
		stubInventoryService{}, stubReservationService{reserveErr: reserveErr})
}

func newOrdersHandler(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewOrdersRouter(testConfig(), logg, map[string]controllers.Pinger{"db": stubPinger{}}, stubOrdersService{})
}

func TestInventoryRouterHealth(t *testing.T) {
	handler := newInventoryHandler(t, map[string]controllers.Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{},
	}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}
}

func TestInventoryRouterReadyFailsWhenDependencyDown(t *testing.T) {
	handler := newInventoryHandler(t, map[string]controllers.Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{err: errors.New("redis down")},
	}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestInventoryRouterCRUDAndAvailability(t *testing.T) {
	handler := newInventoryHandler(t, map[string]controllers.Pinger{"db": stubPinger{}}, nil)

	body := bytes.NewBufferString(`{"skuCode":"iphone_12","onHandQuantity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/inventory", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/inventory/iphone_12", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/inventory/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get missing: expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/availability?sku=iphone_12&sku=pixel_9", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data []types.SKUAvailability `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode availability: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Data[0].AvailableQty != 7 {
		t.Fatalf("unexpected availability %+v", envelope.Data)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/availability", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("availability without skus: expected 400, got %d", rec.Code)
	}
}

func TestReservationEndpointWritesRPCStatus(t *testing.T) {
	reserveErr := apperrors.New(apperrors.CodeNotEnoughItem, "not enough stock for requested items").
		WithDetails([]types.SKUShortfall{{SKUCode: "iphone_12", RequestedQty: 5, AvailableQty: 4}})
	handler := newInventoryHandler(t, map[string]controllers.Pinger{"db": stubPinger{}}, reserveErr)

	body := bytes.NewBufferString(`{"orderNumber":"ORD-1001","items":[{"skuCode":"iphone_12","quantity":5}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", rec.Code, rec.Body.String())
	}
	var statusBody struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Details []json.RawMessage
	}
	if err := json.NewDecoder(rec.Body).Decode(&statusBody); err != nil {
		t.Fatalf("decode rpc status: %v", err)
	}
	if statusBody.Code != 8 { // RESOURCE_EXHAUSTED
		t.Fatalf("unexpected rpc code %d", statusBody.Code)
	}
}

func TestReservationEndpointSuccessEnvelope(t *testing.T) {
	handler := newInventoryHandler(t, map[string]controllers.Pinger{"db": stubPinger{}}, nil)

	body := bytes.NewBufferString(`{"orderNumber":"ORD-1001","items":[{"skuCode":"iphone_12","quantity":5}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data []types.SKUAvailability `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].AvailableQty != 4 {
		t.Fatalf("unexpected availability %+v", envelope.Data)
	}
}

func TestOrdersRouterEndpoints(t *testing.T) {
	handler := newOrdersHandler(t)

	body := bytes.NewBufferString(`{"items":[{"skuCode":"iphone_12","quantity":2,"unitPrice":"999.00"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("place: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/orders/ORD-1001", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/orders?limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}

	statusBody := bytes.NewBufferString(`{"status":"FULFILLED"}`)
	req = httptest.NewRequest(http.MethodPatch, "/v1/orders/ORD-1001/status", statusBody)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	badStatus := bytes.NewBufferString(`{"status":"SHIPPED"}`)
	req = httptest.NewRequest(http.MethodPatch, "/v1/orders/ORD-1001/status", badStatus)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status: expected 400, got %d", rec.Code)
	}
}
