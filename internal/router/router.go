package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Shipping *handler.ShippingHandler
	Coupon   *handler.CouponHandler
	Order    *handler.OrderHandler
	Payment  *handler.PaymentHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, jwtSecret string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	authenticated := middleware.Authenticate(jwtSecret, logger)

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("POST /api/shipping/quote", h.Shipping.Quote)
	mux.HandleFunc("POST /api/coupons/validate", h.Coupon.Validate)

	mux.Handle("POST /api/checkout/orders", authenticated(http.HandlerFunc(h.Order.Create)))
	mux.Handle("GET /api/orders/{id}", authenticated(http.HandlerFunc(h.Order.GetByID)))
	mux.Handle("POST /api/payments/preference", authenticated(http.HandlerFunc(h.Payment.CreatePreference)))

	// Gateway notifications authenticate with their own signature.
	mux.HandleFunc("POST /api/payments/webhook", h.Payment.Webhook)

	// Apply middleware in order: Recovery -> Logging -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
