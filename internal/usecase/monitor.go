package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"driftwatch/internal/domain"
	"driftwatch/internal/drift"
	"driftwatch/internal/naming"
	"driftwatch/internal/ports"
)

// MonitorDeps wires all driven adapters into the drift sweep.
type MonitorDeps struct {
	Source     ports.SampleSource
	Sink       ports.MetricSink
	Repository ports.ReportRepository
	Tracker    ports.Tracker
	Detector   drift.Config
	Experiment string
	Logger     *slog.Logger
}

// Monitor runs drift sweeps over the configured features. Optional deps
// (sink, repository, tracker) may be nil; the sweep degrades to pure
// evaluation plus logging.
type Monitor struct {
	source     ports.SampleSource
	sink       ports.MetricSink
	repository ports.ReportRepository
	tracker    ports.Tracker
	detector   drift.Config
	experiment string
	logger     *slog.Logger
}

// SweepResult summarizes one monitoring pass.
type SweepResult struct {
	Reports  map[string]drift.Report
	Drifted  []string
	Detected bool
}

// NewMonitor constructs the orchestration component.
func NewMonitor(deps MonitorDeps) *Monitor {
	detector := deps.Detector
	if detector.Buckets == 0 {
		detector = drift.DefaultConfig()
	}
	return &Monitor{
		source:     deps.Source,
		sink:       deps.Sink,
		repository: deps.Repository,
		tracker:    deps.Tracker,
		detector:   detector,
		experiment: deps.Experiment,
		logger:     deps.Logger,
	}
}

// Sweep pulls reference/current samples for every feature, evaluates drift
// concurrently, and fans each report out to the metric sink, the tracking
// run, and the report store. A feature with malformed samples is logged and
// skipped; the sweep itself only fails when a collaborator fails.
func (m *Monitor) Sweep(ctx context.Context, checkType string, features []domain.Feature) (SweepResult, error) {
	result := SweepResult{Reports: map[string]drift.Report{}}
	if m.source == nil {
		return result, fmt.Errorf("no sample source configured")
	}

	pairs, err := m.source.FetchPairs(ctx, features)
	if err != nil {
		return result, fmt.Errorf("fetch samples: %w", err)
	}

	reports := make([]*drift.Report, len(pairs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := drift.Evaluate(pair.Reference, pair.Current, m.detector)
			if err != nil {
				m.warn("skipping feature", "feature", pair.Feature, "error", err)
				return nil
			}
			mu.Lock()
			reports[i] = &report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("evaluate features: %w", err)
	}

	run, err := m.startRun(ctx, checkType)
	if err != nil {
		return result, err
	}

	if m.tracker != nil {
		if err := m.tracker.LogParam(ctx, run.ID, "n_features", strconv.Itoa(len(pairs))); err != nil {
			return result, m.failRun(ctx, run, fmt.Errorf("log n_features: %w", err))
		}
	}

	for i, pair := range pairs {
		if reports[i] == nil {
			continue
		}
		report := *reports[i]
		clean := naming.CleanFeature(pair.Feature)

		result.Reports[pair.Feature] = report
		if report.Severity == drift.SeveritySignificant {
			result.Detected = true
			result.Drifted = append(result.Drifted, pair.Feature)
			m.warn("drift detected", "feature", pair.Feature, "psi", report.PSI, "ks_p_value", report.KSPValue)
		} else {
			m.debug("feature checked", "feature", pair.Feature, "severity", report.Severity, "psi", report.PSI)
		}

		if m.sink != nil {
			m.sink.RecordDrift(clean, report)
		}
		if err := m.logReport(ctx, run, clean, report); err != nil {
			return result, m.failRun(ctx, run, err)
		}
		if m.repository != nil {
			if err := m.repository.SaveReport(ctx, pair.Feature, report); err != nil {
				return result, m.failRun(ctx, run, fmt.Errorf("persist report %s: %w", pair.Feature, err))
			}
		}
	}

	if err := m.finishRun(ctx, run, result); err != nil {
		return result, err
	}
	return result, nil
}

func (m *Monitor) startRun(ctx context.Context, checkType string) (domain.Run, error) {
	if m.tracker == nil {
		return domain.Run{}, nil
	}

	experimentID, err := m.tracker.EnsureExperiment(ctx, m.experiment)
	if err != nil {
		return domain.Run{}, fmt.Errorf("ensure experiment: %w", err)
	}

	run, err := m.tracker.CreateRun(ctx, experimentID, "drift_check_"+checkType)
	if err != nil {
		return domain.Run{}, fmt.Errorf("create run: %w", err)
	}

	if err := m.tracker.SetTag(ctx, run.ID, "drift_check_type", checkType); err != nil {
		return run, m.failRun(ctx, run, fmt.Errorf("tag run: %w", err))
	}
	return run, nil
}

func (m *Monitor) logReport(ctx context.Context, run domain.Run, feature string, report drift.Report) error {
	if m.tracker == nil {
		return nil
	}
	for key, value := range report.Metrics(feature) {
		if err := m.tracker.LogMetric(ctx, run.ID, key, value); err != nil {
			return fmt.Errorf("log metric %s: %w", key, err)
		}
	}
	return nil
}

func (m *Monitor) finishRun(ctx context.Context, run domain.Run, result SweepResult) error {
	if m.tracker == nil {
		return nil
	}

	detected := 0.0
	if result.Detected {
		detected = 1.0
	}
	if err := m.tracker.LogMetric(ctx, run.ID, "drift_detected", detected); err != nil {
		return m.failRun(ctx, run, fmt.Errorf("log drift_detected: %w", err))
	}
	if err := m.tracker.LogMetric(ctx, run.ID, "num_features_with_drift", float64(len(result.Drifted))); err != nil {
		return m.failRun(ctx, run, fmt.Errorf("log num_features_with_drift: %w", err))
	}
	if len(result.Drifted) > 0 {
		if err := m.tracker.SetTag(ctx, run.ID, "drift_features", strings.Join(result.Drifted, ", ")); err != nil {
			return m.failRun(ctx, run, fmt.Errorf("tag drift_features: %w", err))
		}
	}

	if err := m.tracker.EndRun(ctx, run.ID, domain.RunFinished); err != nil {
		return fmt.Errorf("end run: %w", err)
	}
	m.debug("sweep recorded", "run", run.ID, "features_with_drift", strconv.Itoa(len(result.Drifted)))
	return nil
}

// failRun closes the tracking run as failed and returns the original error.
func (m *Monitor) failRun(ctx context.Context, run domain.Run, err error) error {
	if m.tracker != nil && run.ID != "" {
		if endErr := m.tracker.EndRun(ctx, run.ID, domain.RunFailed); endErr != nil {
			m.warn("cannot close failed run", "run", run.ID, "error", endErr)
		}
	}
	return err
}

func (m *Monitor) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Monitor) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
