// Package app wires the dashboard: the enrichment client, the services built
// on it, the HTTP router and the background workers.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Deji-py/insta-enricher/internal/config"
	"github.com/Deji-py/insta-enricher/internal/enrichment"
	"github.com/Deji-py/insta-enricher/internal/middleware"
	"github.com/Deji-py/insta-enricher/internal/service/export"
	"github.com/Deji-py/insta-enricher/internal/service/history"
	"github.com/Deji-py/insta-enricher/internal/service/status"
	"github.com/Deji-py/insta-enricher/internal/service/submission"
	"github.com/Deji-py/insta-enricher/internal/ui"
)

// Deps holds what main() must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
	// HTTPClient overrides the backend client's transport (tests).
	HTTPClient *http.Client
}

// Services groups the services the router and workers need.
type Services struct {
	Submission *submission.Service
	History    *history.Service
	Pollers    *status.Registry
	Exporter   *export.Exporter
}

// App is the fully wired dashboard.
type App struct {
	Services  Services
	Client    *enrichment.Client
	Scheduler *export.Scheduler // nil when scheduled export is off
	Limiter   *middleware.RateLimiter

	cfg     *config.Config
	logger  *slog.Logger
	handler *ui.Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires the client and services. Background workers start with Start.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := enrichment.NewClient(cfg.APIURL)
	client.Logger = logger.With("component", "enrichment")
	client.UserAgent = "insta-enricher-dashboard"
	if deps.HTTPClient != nil {
		client.HTTPClient = deps.HTTPClient
	}

	wctx, cancel := context.WithCancel(ctx)
	svcs := Services{
		Submission: submission.NewService(client, logger.With("component", "submission")),
		History:    history.NewService(client, logger.With("component", "history")),
		Pollers: status.NewRegistry(wctx, client, status.RegistryOptions{
			Interval:    cfg.PollInterval,
			IdleTimeout: cfg.PollerIdleTimeout,
			Logger:      logger.With("component", "status"),
		}),
		Exporter: export.NewExporter(client, export.Credentials{
			S3KeyID:          cfg.S3KeyID,
			S3Secret:         cfg.S3Secret,
			S3Endpoint:       cfg.S3Endpoint,
			S3Region:         cfg.S3Region,
			GCSKeyFile:       cfg.GCSKeyFile,
			AzureAccountName: cfg.AzureAccountName,
			AzureAccountKey:  cfg.AzureAccountKey,
		}, logger.With("component", "export")),
	}

	a := &App{
		Services: svcs,
		Client:   client,
		Limiter: middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}),
		cfg:    cfg,
		logger: logger,
		cancel: cancel,
		handler: ui.NewHandler(svcs.Submission, svcs.Pollers, svcs.History, client,
			cfg.PollInterval, cfg.IsProduction()),
	}
	if cfg.ExportEnabled() {
		a.Scheduler = export.NewScheduler(svcs.Exporter, cfg.ExportSchedule, cfg.ExportDest,
			logger.With("component", "export"))
	}
	return a, nil
}

// Start launches the poller sweeper, the limiter sweeper and the export
// scheduler.
func (a *App) Start(ctx context.Context) error {
	if a.Scheduler != nil {
		if err := a.Scheduler.Start(); err != nil {
			return err
		}
	}
	wctx, cancel := context.WithCancel(ctx)
	prev := a.cancel
	a.cancel = func() {
		cancel()
		prev()
	}
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.Services.Pollers.Run(wctx)
	}()
	go func() {
		defer a.wg.Done()
		a.Limiter.Run(wctx)
	}()
	return nil
}

// Router builds the HTTP handler.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(a.logger))
	r.Use(a.Limiter.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui", http.StatusFound)
	})

	r.Route("/ui", func(r chi.Router) {
		ui.MountRoutes(r, a.handler)
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
		ui.MountAPI(r, a.handler)
	})
	return r
}

// Close stops the scheduler and the workers, then closes every poller.
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	a.cancel()
	a.wg.Wait()
	a.Services.Pollers.Close()
}
