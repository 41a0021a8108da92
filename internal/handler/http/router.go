package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mtaasisi/POS-sub013/pkg/health"
	"github.com/Mtaasisi/POS-sub013/pkg/middleware"

	"github.com/Mtaasisi/POS-sub013/internal/service"
)

// NewRouter creates a chi router with all POS service routes registered.
func NewRouter(
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	healthHandler *health.Handler,
	validateToken middleware.TokenValidator,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("pos"))
	r.Use(middleware.Tracing("pos"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// POS API endpoints
	posHandler := NewPOSHandler(cartService, checkoutService, logger)

	r.Route("/api/v1/pos/transactions", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(validateToken))

		r.Post("/", posHandler.OpenTransaction)
		r.Get("/{id}", posHandler.GetTransaction)

		r.Post("/{id}/lines", posHandler.AddLine)
		r.Post("/{id}/lines/external", posHandler.AddExternalLine)
		r.Put("/{id}/lines/{lineId}", posHandler.SetQuantity)
		r.Delete("/{id}/lines/{lineId}", posHandler.RemoveLine)
		r.Delete("/{id}/lines", posHandler.ClearCart)

		r.Put("/{id}/customer", posHandler.SelectCustomer)
		r.Put("/{id}/delivery", posHandler.SetDelivery)
		r.Put("/{id}/payment", posHandler.SetPayment)
		r.Put("/{id}/charges", posHandler.SetCharges)

		r.Post("/{id}/advance", posHandler.Advance)
		r.Post("/{id}/back", posHandler.Back)
		r.Post("/{id}/submit", posHandler.Submit)
		r.Post("/{id}/cancel", posHandler.Cancel)
	})

	return r
}
