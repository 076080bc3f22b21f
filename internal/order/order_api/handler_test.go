package order_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"grabeat/internal/logger"
	"grabeat/internal/models"
	"grabeat/internal/order"
	"grabeat/internal/order/order_api"
	"grabeat/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateCheckoutSession(ctx context.Context, req models.OrderRequest) (*order.CheckoutResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CheckoutResult), args.Error(1)
}

func (m *MockService) GetOrderBySession(sessionID string) (*models.Order, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockService) VerifyPromocode(code, userEmail string) models.PromocodeCheck {
	args := m.Called(code, userEmail)
	return args.Get(0).(models.PromocodeCheck)
}

func (m *MockService) UpdateOrderStatus(orderID, status string) (*models.Order, error) {
	args := m.Called(orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockService) ListOrders() ([]models.Order, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockService) HandleStripeWebhook(payload []byte, signature string) error {
	args := m.Called(payload, signature)
	return args.Error(0)
}

func setupRouter(svc order_api.Service) *chi.Mux {
	handler := order_api.NewOrderHandler(svc, logger.NewLogger())
	r := chi.NewRouter()
	r.Route("/api/orders", handler.RegisterRoutes)
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.APIResponse {
	var resp utils.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return resp
}

func TestCreateCheckoutSessionEndpoint(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	svc.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&order.CheckoutResult{SessionID: "cs_test_123", OrderID: "order-1"}, nil)

	body, _ := json.Marshal(models.OrderRequest{CustomerName: "Maria Rossi"})
	req := httptest.NewRequest(http.MethodPost, "/api/orders/create-checkout-session", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "success", resp.Status)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "cs_test_123", data["sessionId"])
	assert.Equal(t, "order-1", data["orderId"])
}

func TestCreateCheckoutSessionEndpointErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation failure", order.ErrInvalidRequest, http.StatusBadRequest},
		{"gateway failure", order.ErrPaymentGateway, http.StatusBadGateway},
		{"unexpected failure", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockService)
			router := setupRouter(svc)
			svc.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, tc.err)

			req := httptest.NewRequest(http.MethodPost, "/api/orders/create-checkout-session", bytes.NewReader([]byte(`{}`)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.Equal(t, "error", resp.Status)
		})
	}
}

func TestCreateCheckoutSessionEndpointBadBody(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/orders/create-checkout-session", bytes.NewReader([]byte(`not json`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestOrderSuccessEndpoint(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	svc.On("GetOrderBySession", "cs_test_123").
		Return(&models.Order{ID: "order-1", StripeSessionID: "cs_test_123"}, nil)
	svc.On("GetOrderBySession", "cs_missing").Return(nil, order.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/success?session_id=cs_test_123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/orders/success?session_id=cs_missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Missing session_id never reaches the service.
	req = httptest.NewRequest(http.MethodGet, "/api/orders/success", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNumberOfCalls(t, "GetOrderBySession", 2)
}

func TestVerifyPromocodeEndpoint(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	svc.On("VerifyPromocode", "GRABAB12CD", "maria@example.com").
		Return(models.PromocodeCheck{Valid: true, Message: "Promocode is valid", Discount: 5})

	body, _ := json.Marshal(models.VerifyPromocodeRequest{Code: "GRABAB12CD", UserEmail: "maria@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/orders/verify-promocode", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "Promocode is valid", data["message"])
}

func TestVerifyPromocodeEndpointRequiresBothFields(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	cases := []models.VerifyPromocodeRequest{
		{Code: "", UserEmail: "maria@example.com"},
		{Code: "GRABAB12CD", UserEmail: ""},
		{},
	}

	for _, reqBody := range cases {
		body, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/api/orders/verify-promocode", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, false, data["valid"])
		assert.Equal(t, "Promocode and user email are required", data["message"])
	}

	// The short-circuit never consults the engine.
	svc.AssertNotCalled(t, "VerifyPromocode", mock.Anything, mock.Anything)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	svc.On("UpdateOrderStatus", "order-1", "confirmed").
		Return(&models.Order{ID: "order-1", Status: "confirmed", PaymentStatus: "paid"}, nil)

	body, _ := json.Marshal(models.UpdateOrderStatusRequest{Status: "confirmed"})
	req := httptest.NewRequest(http.MethodPatch, "/api/orders/order-1/status", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, "paid", data["paymentStatus"])
}

func TestStripeWebhookEndpoint(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	svc.On("HandleStripeWebhook", mock.Anything, "valid-sig").Return(nil)
	svc.On("HandleStripeWebhook", mock.Anything, "bad-sig").Return(&order.WebhookError{
		StatusCode:    http.StatusBadRequest,
		PublicError:   "Invalid webhook signature",
		InternalError: "signature mismatch",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/orders/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "valid-sig")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/orders/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "bad-sig")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec)
	assert.Equal(t, "Invalid webhook signature", resp.Message)
}
