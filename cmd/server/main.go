package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"phishsim/internal/audit"
	campaignhandler "phishsim/internal/campaign/handler"
	campaignservice "phishsim/internal/campaign/service"
	opshandler "phishsim/internal/ops/handler"
	opsservice "phishsim/internal/ops/service"
	"phishsim/internal/platform/config"
	"phishsim/internal/platform/httpserver"
	"phishsim/internal/platform/logger"
	"phishsim/internal/platform/metrics"
	"phishsim/internal/platform/middleware"
	reporthandler "phishsim/internal/report/handler"
	reportservice "phishsim/internal/report/service"
	riskhandler "phishsim/internal/risk/handler"
	riskservice "phishsim/internal/risk/service"
	"phishsim/internal/store"
	tenanthandler "phishsim/internal/tenant/handler"
	tenantservice "phishsim/internal/tenant/service"
	trackinghandler "phishsim/internal/tracking/handler"
	trackingservice "phishsim/internal/tracking/service"
	"phishsim/internal/training"
	traininghandler "phishsim/internal/training/handler"
	trainingservice "phishsim/internal/training/service"
	"phishsim/internal/transport/email"
	httptransport "phishsim/internal/transport/http"
	"phishsim/internal/transport/http/schema"
	"phishsim/pkg/platform/circuit"
)

const shutdownTimeout = 10 * time.Second

// main wires the persister, services and HTTP router, then serves until
// SIGINT or SIGTERM.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		JSON:       cfg.IsProduction(),
		StaticKeys: []any{"service", "phishsim", "env", cfg.Environment},
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	persister, closePersister, err := openPersister(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePersister()

	sinks, closeSinks, err := auditSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()
	auditWorker := audit.NewWorker(audit.NewRingBuffer(4096), sinks,
		audit.WithLogger(log),
		audit.WithMetrics(m),
	)

	st, err := store.Open(ctx, persister,
		store.WithLogger(log),
		store.WithCommitHook(auditWorker.Enqueue),
	)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	sender, err := emailSender(ctx, cfg, log)
	if err != nil {
		return err
	}
	renderer := email.NewRenderer()
	catalog := training.DefaultCatalog()
	schemas := schema.MustNew()

	tenants := tenantservice.New(st,
		tenantservice.WithLogger(log),
		tenantservice.WithMetrics(m),
		tenantservice.WithPlatformSimDomain(cfg.PlatformSimDomain),
	)
	campaigns := campaignservice.New(st, sender, renderer, catalog,
		campaignservice.WithLogger(log),
		campaignservice.WithMetrics(m),
		campaignservice.WithConcurrency(cfg.Dispatch.Concurrency),
		campaignservice.WithRecordRetry(cfg.Dispatch.RecordAttempts, cfg.Dispatch.RecordBackoff),
		campaignservice.WithPublicBaseURL(cfg.PublicBaseURL),
	)
	tracking := trackingservice.New(st, catalog,
		trackingservice.WithLogger(log),
		trackingservice.WithMetrics(m),
	)
	trainings := trainingservice.New(st, catalog,
		trainingservice.WithLogger(log),
		trainingservice.WithMetrics(m),
	)
	risk := riskservice.New(st, riskservice.WithLogger(log), riskservice.WithMetrics(m))
	reports := reportservice.New(st, reportservice.WithLogger(log))
	ops := opsservice.New(st, opsservice.WithLogger(log))

	router := httptransport.NewRouter(httptransport.Handlers{
		Tenant:   tenanthandler.New(tenants, log),
		Campaign: campaignhandler.New(campaigns, log),
		Tracking: trackinghandler.New(tracking, schemas, log, m),
		Training: traininghandler.New(trainings, schemas, log, m),
		Risk:     riskhandler.New(risk, log),
		Report:   reporthandler.New(reports, log),
		Ops:      opshandler.New(ops, log),
	}, httptransport.Config{
		Resolver: tenants,
		Limiter:  middleware.NewIPRateLimiter(cfg.Ingest.RatePerSecond, cfg.Ingest.Burst),
		Metrics:  m,
		Gatherer: reg,
		Logger:   log,
	})
	srv := httpserver.New(cfg.Addr, router, cfg.HTTP)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting phishsim",
			"addr", cfg.Addr,
			"store", cfg.Store.Backend,
			"email", cfg.Email.Provider,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func emailSender(ctx context.Context, cfg config.Server, log *slog.Logger) (email.Sender, error) {
	var next email.Sender
	switch cfg.Email.Provider {
	case config.EmailSES:
		ses, err := email.NewSESSender(ctx, cfg.Email.AWSRegion, cfg.Email.FromLocalPart, cfg.PublicBaseURL, email.NewRenderer())
		if err != nil {
			return nil, fmt.Errorf("ses sender: %w", err)
		}
		next = ses
	default:
		next = email.NewLoopbackSender()
	}
	breaker := circuit.New("email-provider",
		circuit.WithFailureThreshold(5),
		circuit.WithCooldown(30*time.Second),
	)
	return email.NewBreakerSender(next, breaker, log), nil
}
