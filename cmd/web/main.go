package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"trade-dashboard/internal/config"
	"trade-dashboard/internal/dataset"
	"trade-dashboard/internal/middleware"
	"trade-dashboard/internal/observability"
	"trade-dashboard/internal/pipeline"
	"trade-dashboard/internal/presentation"
	"trade-dashboard/internal/server"
	"trade-dashboard/internal/services"
	"trade-dashboard/internal/ui/templates"
)

var version = "dev"

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

// dashboardHandler renders the page with the default dashboard state already
// filled in, in the dark theme the page starts with. Before a dataset is loaded the page renders empty controls.
func dashboardHandler(analytics *services.Analytics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		props := templates.DashboardProps{}
		if opts, err := analytics.Options(); err == nil {
			props.Options = opts
			if out, err := analytics.Render(ctx, services.Query{Theme: presentation.ThemeDark}); err == nil {
				props.Initial = &out
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(props).Render(ctx, w); err != nil {
			logger.Error("render dashboard", "error", err, "request_id", observability.GetRequestID(ctx))
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newHandler assembles routes and the middleware stack. Tracing and Metrics
// sit innermost so they see the route pattern the mux matched.
func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics, logger),
	}
	srv := server.NewServer(analytics, logger, templateHandlers, server.Options{
		Version:        version,
		MetricsEnabled: cfg.Telemetry.MetricsEnabled,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Tracing(),
		middleware.Metrics(),
	)
	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"data_file", cfg.Data.File,
		"comparator", cfg.Data.Comparator,
	)

	shutdownTracing, err := observability.InitTracing(cfg.Telemetry, version, os.Stdout, logger)
	if err != nil {
		logger.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}

	if !cfg.DataFileExists() {
		logger.Error("dataset file not found", "path", cfg.Data.File)
		os.Exit(1)
	}

	loader, err := dataset.NewLoaderFromConfig(cfg.Data, logger)
	if err != nil {
		logger.Error("failed to prepare dataset loader", "error", err)
		os.Exit(1)
	}

	comparator, err := pipeline.ParseComparator(cfg.Data.Comparator)
	if err != nil {
		logger.Error("invalid comparator", "error", err)
		os.Exit(1)
	}

	analytics := services.NewAnalytics(services.Options{
		Currency:   cfg.Data.CurrencySymbol,
		Comparator: comparator,
		TopN:       cfg.Data.TopN,
		Logger:     logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Data.LoadTimeout)
	err = analytics.LoadFromFile(ctx, loader, cfg.Data.File)
	cancel()
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook("tracing", func(ctx context.Context) error {
		logger.Info("flushing traces")
		return shutdownTracing(ctx)
	})
	gracefulServer.RegisterShutdownHook("analytics", func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "stats", analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
