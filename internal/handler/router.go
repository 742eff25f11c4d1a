package handler

import (
	"context"
	"net/http"
	"time"

	chathandler "github.com/hernanbl/gandolfo-recordatorios/internal/chat/handler"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/service"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/widget"
	"github.com/hernanbl/gandolfo-recordatorios/internal/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency for /healthz and /readyz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterDeps groups everything the router wires into routes.
// Tokens and Limiter are optional; nil disables them.
type RouterDeps struct {
	Chat    *service.ChatService
	Cookies *chathandler.SessionCookies
	Tokens  *widget.Tokens
	Limiter *RateLimiter
	Checks  []HealthCheck
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(RequestMetricsMiddleware(deps.Metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Health & metrics ---
	r.Get("/healthz", healthzHandler(deps.Checks))
	r.Get("/readyz", readyzHandler(deps.Checks, logger))
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/chat", chatMetricsHandler(deps.Metrics))

		// ============================================================
		// Chat do widget de reservas
		// ============================================================
		r.Route("/chat", func(r chi.Router) {
			r.Use(WidgetTokenMiddleware(deps.Tokens, logger))

			r.Get("/welcome", chathandler.WelcomeHandler(deps.Chat))
			r.Delete("/{sessionId}", chathandler.ResetHandler(deps.Chat, deps.Cookies, logger))

			r.Group(func(r chi.Router) {
				r.Use(RateLimitMiddleware(deps.Limiter, deps.Cookies, deps.Metrics, logger))
				r.Post("/", chathandler.ChatHandler(deps.Chat, deps.Cookies, logger))
				r.Post("/{sessionId}", chathandler.ChatSessionHandler(deps.Chat, logger))
			})
		})
	})

	return r
}

// ============================================================
// Health & Metrics
// ============================================================

func healthzHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, overall := runChecks(r.Context(), checks)
		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler(checks []HealthCheck, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, overall := runChecks(r.Context(), checks)
		if overall != "healthy" {
			logger.Warn("readiness check failed", zap.Any("services", services))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func runChecks(ctx context.Context, checks []HealthCheck) ([]domain.ServiceHealth, string) {
	now := time.Now().Format(time.RFC3339)
	services := []domain.ServiceHealth{
		{Name: "bfa-api", Status: "healthy", LastChecked: now},
	}

	overall := "healthy"
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		start := time.Now()
		err := c.Check(checkCtx)
		cancel()

		status := "healthy"
		if err != nil {
			status = "degraded"
			overall = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name:        c.Name,
			Status:      status,
			LatencyMs:   time.Since(start).Milliseconds(),
			LastChecked: now,
		})
	}
	return services, overall
}

func chatMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetChatSnapshot())
	}
}
