package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/handler"
	"storefront/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "router-test-secret"

type stubOrders struct{ userID string }

func (s *stubOrders) CreateOrder(_ context.Context, userID string, _ *model.CreateOrderRequest) (*model.CreateOrderResponse, error) {
	s.userID = userID
	return &model.CreateOrderResponse{OrderID: uuid.New()}, nil
}

func (s *stubOrders) GetOrder(_ context.Context, userID string, id uuid.UUID) (*model.OrderResponse, error) {
	s.userID = userID
	return &model.OrderResponse{Order: model.Order{ID: id, UserID: userID}}, nil
}

func newTestRouter(orders *stubOrders) http.Handler {
	logger := zerolog.Nop()
	return New(Handlers{
		Shipping: handler.NewShippingHandler(nil, logger),
		Coupon:   handler.NewCouponHandler(nil, logger),
		Order:    handler.NewOrderHandler(orders, logger),
		Payment:  handler.NewPaymentHandler(nil, nil, nil, logger),
	}, secret, logger)
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&stubOrders{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/checkout/orders"},
		{http.MethodGet, "/api/orders/" + uuid.NewString()},
		{http.MethodPost, "/api/payments/preference"},
	}

	r := newTestRouter(&stubOrders{})
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(route.method, route.path, bytes.NewBufferString(`{}`)))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_AuthenticatedOrderRoutes(t *testing.T) {
	orders := &stubOrders{}
	r := newTestRouter(orders)

	body := `{"items":[{"variant_id":1,"product_id":1,"name":"x","price":1,"quantity":1,"color":"","size":""}],"shipping_cost":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout/orders", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, "user-7"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "user-7", orders.userID)

	id := uuid.New()
	req = httptest.NewRequest(http.MethodGet, "/api/orders/"+id.String(), nil)
	req.Header.Set("Authorization", bearer(t, "user-8"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-8", orders.userID)
	assert.Contains(t, w.Body.String(), id.String())
}

func TestRouter_MethodAndPathMismatch(t *testing.T) {
	r := newTestRouter(&stubOrders{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/shipping/quote", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Preflight(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&stubOrders{}).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/checkout/orders", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
