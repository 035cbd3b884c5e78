package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quickbasket/internal/domain"
	"quickbasket/internal/middleware"
	"quickbasket/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newOrderRouter(checkout service.CheckoutService, orders service.OrderService) chi.Router {
	logger := zap.NewNop()
	router := chi.NewRouter()
	handler := NewOrderHandler(checkout, orders, logger)
	handler.RegisterRoutes(router, middleware.AuthMiddleware(testJWTSecret, logger))
	return router
}

func jsonRequest(t *testing.T, method, path string, payload map[string]interface{}) *http.Request {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateCheckoutSession(t *testing.T) {
	router := newOrderRouter(&stubCheckoutService{
		session: &service.CheckoutSession{
			SessionID:   "cs_test_1",
			RedirectURL: "https://checkout.example.com/1",
		},
	}, &stubOrderService{})

	req := jsonRequest(t, "POST", "/api/checkout/session", map[string]interface{}{
		"shipping_address": "12 Baker Street",
	})
	req.AddCookie(authCookie(t, uuid.New(), "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Success   bool   `json:"success"`
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if !body.Success || body.SessionID != "cs_test_1" || body.URL == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestCreateCheckoutSession_EmptyCart(t *testing.T) {
	router := newOrderRouter(&stubCheckoutService{sessionErr: service.ErrEmptyCart}, &stubOrderService{})

	req := jsonRequest(t, "POST", "/api/checkout/session", map[string]interface{}{
		"shipping_address": "12 Baker Street",
	})
	req.AddCookie(authCookie(t, uuid.New(), "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateCheckoutSession_ProviderDown(t *testing.T) {
	router := newOrderRouter(&stubCheckoutService{sessionErr: service.ErrPaymentSession}, &stubOrderService{})

	req := jsonRequest(t, "POST", "/api/checkout/session", map[string]interface{}{
		"shipping_address": "12 Baker Street",
	})
	req.AddCookie(authCookie(t, uuid.New(), "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestVerifyPayment(t *testing.T) {
	orderID := uuid.New()
	checkout := &stubCheckoutService{
		confirmed: &service.ConfirmedOrder{ID: orderID, OrderNumber: "QB-1-AAAAA"},
	}
	router := newOrderRouter(checkout, &stubOrderService{})

	// The client may retry verification; the handler passes each call through
	// and the response stays identical.
	for i := 0; i < 2; i++ {
		req := jsonRequest(t, "POST", "/api/checkout/verify", map[string]interface{}{
			"session_id": "cs_test_1",
		})
		req.AddCookie(authCookie(t, uuid.New(), "user"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var body struct {
			Success bool `json:"success"`
			Order   struct {
				ID          string `json:"id"`
				OrderNumber string `json:"orderNumber"`
			} `json:"order"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to parse body: %v", err)
		}
		if !body.Success || body.Order.ID != orderID.String() || body.Order.OrderNumber != "QB-1-AAAAA" {
			t.Errorf("body = %+v", body)
		}
	}

	if checkout.confirmCalls != 2 {
		t.Errorf("confirm calls = %d, want 2", checkout.confirmCalls)
	}
}

func TestVerifyPayment_SessionInQueryParameter(t *testing.T) {
	orderID := uuid.New()
	checkout := &stubCheckoutService{
		confirmed: &service.ConfirmedOrder{ID: orderID, OrderNumber: "QB-1-DDDDD"},
	}
	router := newOrderRouter(checkout, &stubOrderService{})

	req := httptest.NewRequest("POST", "/api/checkout/verify?session_id=cs_test_9", nil)
	req.AddCookie(authCookie(t, uuid.New(), "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Order   struct {
			ID          string `json:"id"`
			OrderNumber string `json:"orderNumber"`
		} `json:"order"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if !body.Success || body.Order.ID != orderID.String() {
		t.Errorf("body = %+v", body)
	}
	if checkout.confirmCalls != 1 {
		t.Errorf("confirm calls = %d, want 1", checkout.confirmCalls)
	}
}

func TestVerifyPayment_NotCompleted(t *testing.T) {
	router := newOrderRouter(&stubCheckoutService{confirmErr: service.ErrPaymentNotCompleted}, &stubOrderService{})

	req := jsonRequest(t, "POST", "/api/checkout/verify", map[string]interface{}{
		"session_id": "cs_test_1",
	})
	req.AddCookie(authCookie(t, uuid.New(), "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestVerifyPayment_MissingSessionID(t *testing.T) {
	router := newOrderRouter(&stubCheckoutService{}, &stubOrderService{})

	req := jsonRequest(t, "POST", "/api/checkout/verify", map[string]interface{}{})
	req.AddCookie(authCookie(t, uuid.New(), "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPlaceOrder(t *testing.T) {
	userID := uuid.New()
	router := newOrderRouter(&stubCheckoutService{
		order: &domain.Order{
			ID:            uuid.New(),
			OrderNumber:   "QB-1-BBBBB",
			UserID:        userID,
			TotalAmount:   decimal.RequireFromString("571.00"),
			PaymentMethod: domain.PaymentMethodCOD,
			Status:        domain.OrderStatusPending,
		},
	}, &stubOrderService{})

	req := jsonRequest(t, "POST", "/api/orders", map[string]interface{}{
		"shipping_address": "12 Baker Street",
	})
	req.AddCookie(authCookie(t, userID, "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	var body struct {
		Success bool          `json:"success"`
		Data    *domain.Order `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if !body.Success || body.Data == nil || body.Data.OrderNumber != "QB-1-BBBBB" {
		t.Errorf("body = %+v", body)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	router := newOrderRouter(&stubCheckoutService{orderErr: service.ErrEmptyCart}, &stubOrderService{})

	req := jsonRequest(t, "POST", "/api/orders", map[string]interface{}{
		"shipping_address": "12 Baker Street",
	})
	req.AddCookie(authCookie(t, uuid.New(), "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListOrders_RequiresLogin(t *testing.T) {
	router := newOrderRouter(&stubCheckoutService{}, &stubOrderService{})

	req := httptest.NewRequest("GET", "/api/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestListOrders(t *testing.T) {
	router := newOrderRouter(&stubCheckoutService{}, &stubOrderService{
		orders: []*domain.Order{
			{ID: uuid.New(), OrderNumber: "QB-2-CCCCC", Status: domain.OrderStatusConfirmed},
		},
	})

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.AddCookie(authCookie(t, uuid.New(), "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Success bool            `json:"success"`
		Data    []*domain.Order `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if !body.Success || len(body.Data) != 1 {
		t.Errorf("body = %+v, want one order", body)
	}
}
