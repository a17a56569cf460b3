package ports

import (
	"context"
	"time"

	"driftwatch/internal/domain"
	"driftwatch/internal/drift"
)

// SampleSource pulls reference/current sample pairs for the monitored features.
type SampleSource interface {
	FetchPairs(ctx context.Context, features []domain.Feature) ([]domain.SamplePair, error)
}

// MetricSink records drift reports as named scalar metrics.
type MetricSink interface {
	RecordDrift(feature string, report drift.Report)
}

// ReportRepository persists drift reports for audit and history queries.
type ReportRepository interface {
	SaveReport(ctx context.Context, feature string, report drift.Report) error
	RecentReports(ctx context.Context, feature string, limit int) ([]drift.Report, error)
}

// Tracker talks to the experiment-tracking server: runs, metrics, tags, and
// the model registry.
type Tracker interface {
	EnsureExperiment(ctx context.Context, name string) (string, error)
	CreateRun(ctx context.Context, experimentID, name string) (domain.Run, error)
	LogMetric(ctx context.Context, runID, key string, value float64) error
	LogParam(ctx context.Context, runID, key, value string) error
	SetTag(ctx context.Context, runID, key, value string) error
	EndRun(ctx context.Context, runID string, status domain.RunStatus) error
	TransitionStage(ctx context.Context, model, version string, stage domain.ModelStage) error
	LatestVersions(ctx context.Context, model string, stages []domain.ModelStage) ([]domain.ModelVersion, error)
}

// WeatherProvider resolves cities and fetches upstream weather data.
type WeatherProvider interface {
	Current(ctx context.Context, city, country string) (domain.WeatherReport, error)
	Forecast(ctx context.Context, city, country string) (domain.ForecastReport, error)
}

// Scheduler controls when the monitor sweep executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
