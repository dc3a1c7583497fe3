package router

import (
	"net/http"

	"curbside/internal/auth"
	"curbside/internal/handler"
	"curbside/internal/hub"
	"curbside/internal/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	checkoutHandler *handler.CheckoutHandler,
	orderHandler *handler.OrderHandler,
	wsHandler *hub.WebSocketHandler,
	verifier auth.Verifier,
	logger zerolog.Logger,
) http.Handler {
	api := http.NewServeMux()

	// Customer side
	api.HandleFunc("POST /api/customer/checkout", checkoutHandler.Checkout)
	api.HandleFunc("GET /api/customer/orders", orderHandler.ListCustomerOrders)
	api.HandleFunc("GET /api/customer/orders/{id}", orderHandler.GetOrder)

	// Partner side
	api.HandleFunc("GET /api/partner/orders", orderHandler.ListPartnerOrders)
	api.HandleFunc("GET /api/partner/orders/{id}", orderHandler.GetOrder)
	api.HandleFunc("POST /api/partner/orders/{id}/{action}", orderHandler.Transition)
	api.HandleFunc("DELETE /api/partner/orders/{id}", orderHandler.Delete)

	// Every /api route requires a credential.
	authed := middleware.BearerAuth(verifier, logger)(api)

	mux := http.NewServeMux()
	mux.Handle("/api/", authed)

	// The websocket endpoint authenticates itself (browser clients pass
	// the token as a query parameter, not a header).
	mux.Handle("GET /api/ws/orders", wsHandler)

	// Health check and metrics (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply middleware in order: Recovery -> Logging -> CORS -> Metrics
	var h http.Handler = mux
	h = middleware.Metrics(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
