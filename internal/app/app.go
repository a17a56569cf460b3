// Package app wires configuration into adapters, use cases, and lifecycle
// orchestration.
package app

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"driftwatch/internal/config"
	"driftwatch/internal/domain"
	"driftwatch/internal/infrastructure/dataset"
	"driftwatch/internal/infrastructure/ingest"
	"driftwatch/internal/infrastructure/metrics"
	"driftwatch/internal/infrastructure/scheduler"
	"driftwatch/internal/infrastructure/storage"
	"driftwatch/internal/infrastructure/tracking"
	"driftwatch/internal/infrastructure/weather"
	"driftwatch/internal/logging"
	"driftwatch/internal/ports"
	"driftwatch/internal/server"
	"driftwatch/internal/usecase"
)

// Application holds the assembled components of the service.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	monitor  *usecase.Monitor
	sweeps   *usecase.SweepScheduler
	server   *server.Server
	features []domain.Feature
	db       *sql.DB
}

// New builds a runnable application instance from configuration. Optional
// backends (database, tracking, sample source) degrade to nil adapters when
// unconfigured or unreachable, so the HTTP surface stays available.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, os.Stdout)
	}

	registry := prometheus.NewRegistry()
	sink := metrics.NewPrometheusSink(registry)

	weatherClient := weather.NewClient(
		cfg.Weather.GeocodingURL,
		cfg.Weather.ForecastURL,
		cfg.Weather.CacheTTL,
		logging.Component(baseLogger, "weather"),
	)

	var (
		db         *sql.DB
		repository ports.ReportRepository
	)
	if cfg.Database.DSN != "" {
		opened, err := storage.Open(cfg.Database.DSN)
		if err != nil {
			baseLogger.Warn("database unavailable, reports will not be persisted", "error", err)
		} else {
			db = opened
			repository = storage.NewPostgresRepository(opened)
		}
	}

	var tracker ports.Tracker
	if cfg.Tracking.URI != "" {
		tracker = tracking.NewClient(cfg.Tracking.URI)
	}

	features := make([]domain.Feature, 0, len(cfg.Features))
	for _, f := range cfg.Features {
		features = append(features, domain.Feature{Name: f.Name, Column: f.Column})
	}

	sources := ingest.NewRegistry()
	sources.Register("csv", dataset.NewFileSource(cfg.Source.Reference, cfg.Source.Current))
	sources.Register("html", ingest.NewTableSource(nil, cfg.Source.Reference, cfg.Source.Current))

	var source ports.SampleSource
	if cfg.Source.Reference != "" && cfg.Source.Current != "" {
		resolved, err := sources.Resolve(cfg.Source.Kind)
		if err != nil {
			baseLogger.Warn("sample source disabled", "kind", cfg.Source.Kind, "error", err)
		} else {
			source = resolved
		}
	}

	monitor := usecase.NewMonitor(usecase.MonitorDeps{
		Source:     source,
		Sink:       sink,
		Repository: repository,
		Tracker:    tracker,
		Detector:   cfg.Detector,
		Experiment: cfg.Tracking.Experiment,
		Logger:     logging.Component(baseLogger, "monitor"),
	})

	sweeps := usecase.NewSweepScheduler(
		scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location()),
		monitor,
		features,
	)

	srv := server.New(server.Options{
		Addr:        cfg.Server.Addr,
		Weather:     weatherClient,
		Temperature: sink,
		Detector:    cfg.Detector,
		Gatherer:    registry,
		Logger:      logging.Component(baseLogger, "server"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		monitor:  monitor,
		sweeps:   sweeps,
		server:   srv,
		features: features,
		db:       db,
	}
}

// Run starts the scheduled sweeps and serves HTTP until the context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.sweeps.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := a.sweeps.Stop(context.Background()); err != nil {
			a.logger.Warn("scheduler shutdown failed", "error", err)
		}
	}()

	a.logger.Info("serving", "addr", a.cfg.Server.Addr, "cron", a.cfg.Scheduler.CronExpression)
	return a.server.Run(ctx)
}

// Sweep executes one drift check outside the schedule.
func (a *Application) Sweep(ctx context.Context, checkType string) (usecase.SweepResult, error) {
	return a.monitor.Sweep(ctx, checkType, a.features)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
