// Package httptransport assembles the HTTP surface: shared middleware, the
// public, anonymous-ingestion and authenticated route groups, health and
// metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	campaignhandler "phishsim/internal/campaign/handler"
	"phishsim/internal/models"
	opshandler "phishsim/internal/ops/handler"
	"phishsim/internal/platform/metrics"
	"phishsim/internal/platform/middleware"
	reporthandler "phishsim/internal/report/handler"
	riskhandler "phishsim/internal/risk/handler"
	tenanthandler "phishsim/internal/tenant/handler"
	trackinghandler "phishsim/internal/tracking/handler"
	traininghandler "phishsim/internal/training/handler"
	"phishsim/pkg/platform/httputil"
	"phishsim/pkg/platform/middleware/auth"
	"phishsim/pkg/platform/middleware/metadata"
	"phishsim/pkg/platform/middleware/requesttime"
)

// Handlers groups the per-context HTTP handlers.
type Handlers struct {
	Tenant   *tenanthandler.Handler
	Campaign *campaignhandler.Handler
	Tracking *trackinghandler.Handler
	Training *traininghandler.Handler
	Risk     *riskhandler.Handler
	Report   *reporthandler.Handler
	Ops      *opshandler.Handler
}

// Config carries what the router needs besides the handlers. Limiter may be
// nil to disable ingress rate limiting; Gatherer defaults to the Prometheus
// default registry.
type Config struct {
	Resolver       auth.ActorResolver
	Limiter        *middleware.IPRateLimiter
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

func NewRouter(h Handlers, cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	if cfg.Metrics != nil {
		r.Use(middleware.LatencyMiddleware(cfg.Metrics))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		h.Tenant.RegisterPublic(r)
		h.Tracking.RegisterWebhook(r)

		// Anonymous recipient traffic is keyed only by tracking token.
		r.Group(func(r chi.Router) {
			if cfg.Limiter != nil {
				r.Use(middleware.RateLimit(cfg.Limiter, cfg.Metrics, logger))
			}
			h.Tracking.RegisterEvents(r)
			h.Training.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireActor(cfg.Resolver, logger))
			h.Tenant.Register(r)
			h.Campaign.Register(r)
			h.Risk.Register(r)
			h.Report.Register(r)
			h.Ops.Register(r)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(logger, string(models.RoleOwner)))
				h.Tenant.RegisterOwner(r)
				h.Risk.RegisterOwner(r)
			})
		})
	})
	return r
}
