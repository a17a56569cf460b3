package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"driftwatch/internal/domain"
	"driftwatch/internal/drift"
)

type fakeSource struct {
	pairs []domain.SamplePair
}

func (f *fakeSource) FetchPairs(_ context.Context, _ []domain.Feature) ([]domain.SamplePair, error) {
	return f.pairs, nil
}

type fakeSink struct {
	mu      sync.Mutex
	records map[string]drift.Report
}

func (f *fakeSink) RecordDrift(feature string, report drift.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.records == nil {
		f.records = map[string]drift.Report{}
	}
	f.records[feature] = report
}

type fakeRepo struct {
	saved []string
}

func (f *fakeRepo) SaveReport(_ context.Context, feature string, _ drift.Report) error {
	f.saved = append(f.saved, feature)
	return nil
}

func (f *fakeRepo) RecentReports(_ context.Context, _ string, _ int) ([]drift.Report, error) {
	return nil, nil
}

type fakeTracker struct {
	runs    int
	metrics map[string]float64
	params  map[string]string
	tags    map[string]string
	ended   domain.RunStatus
}

func (f *fakeTracker) EnsureExperiment(_ context.Context, _ string) (string, error) {
	return "exp-1", nil
}

func (f *fakeTracker) CreateRun(_ context.Context, experimentID, name string) (domain.Run, error) {
	f.runs++
	return domain.Run{ID: "run-1", ExperimentID: experimentID, Name: name, Status: domain.RunRunning}, nil
}

func (f *fakeTracker) LogMetric(_ context.Context, _ string, key string, value float64) error {
	if f.metrics == nil {
		f.metrics = map[string]float64{}
	}
	f.metrics[key] = value
	return nil
}

func (f *fakeTracker) LogParam(_ context.Context, _ string, key, value string) error {
	if f.params == nil {
		f.params = map[string]string{}
	}
	f.params[key] = value
	return nil
}

func (f *fakeTracker) SetTag(_ context.Context, _ string, key, value string) error {
	if f.tags == nil {
		f.tags = map[string]string{}
	}
	f.tags[key] = value
	return nil
}

func (f *fakeTracker) EndRun(_ context.Context, _ string, status domain.RunStatus) error {
	f.ended = status
	return nil
}

func (f *fakeTracker) TransitionStage(_ context.Context, _, _ string, _ domain.ModelStage) error {
	return nil
}

func (f *fakeTracker) LatestVersions(_ context.Context, _ string, _ []domain.ModelStage) ([]domain.ModelVersion, error) {
	return nil, nil
}

func shiftedPair(name string) domain.SamplePair {
	reference := make([]float64, 100)
	current := make([]float64, 100)
	for i := range reference {
		reference[i] = float64(i)
		current[i] = float64(i) + 50
	}
	return domain.SamplePair{Feature: name, Reference: reference, Current: current}
}

func stablePair(name string) domain.SamplePair {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	return domain.SamplePair{Feature: name, Reference: values, Current: values}
}

func TestSweepDetectsDrift(t *testing.T) {
	t.Parallel()

	source := &fakeSource{pairs: []domain.SamplePair{
		stablePair("humidity (pct)"),
		shiftedPair("temperature (C)"),
	}}
	sink := &fakeSink{}
	repo := &fakeRepo{}
	tracker := &fakeTracker{}

	monitor := NewMonitor(MonitorDeps{
		Source:     source,
		Sink:       sink,
		Repository: repo,
		Tracker:    tracker,
		Experiment: "05-Data-Drift-Detection",
	})

	result, err := monitor.Sweep(context.Background(), "normal", nil)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}

	if !result.Detected {
		t.Fatal("expected drift to be detected")
	}
	if diff := cmp.Diff([]string{"temperature (C)"}, result.Drifted); diff != "" {
		t.Fatalf("drifted features mismatch (-want +got):\n%s", diff)
	}
	if result.Reports["humidity (pct)"].Severity != drift.SeverityNone {
		t.Fatalf("expected no drift on stable feature, got %s", result.Reports["humidity (pct)"].Severity)
	}

	// Metrics are logged under sanitized names.
	if _, ok := tracker.metrics["psi_temperature _C"]; !ok {
		keys := make([]string, 0, len(tracker.metrics))
		for k := range tracker.metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t.Fatalf("expected sanitized psi metric, got keys %v", keys)
	}
	if tracker.metrics["drift_detected"] != 1 {
		t.Fatalf("drift_detected = %g, want 1", tracker.metrics["drift_detected"])
	}
	if tracker.metrics["num_features_with_drift"] != 1 {
		t.Fatalf("num_features_with_drift = %g, want 1", tracker.metrics["num_features_with_drift"])
	}
	if tracker.params["n_features"] != "2" {
		t.Fatalf("n_features param = %q, want 2", tracker.params["n_features"])
	}
	if tracker.tags["drift_check_type"] != "normal" {
		t.Fatalf("drift_check_type tag = %q", tracker.tags["drift_check_type"])
	}
	if tracker.tags["drift_features"] != "temperature (C)" {
		t.Fatalf("drift_features tag = %q", tracker.tags["drift_features"])
	}
	if tracker.ended != domain.RunFinished {
		t.Fatalf("run ended with %s, want FINISHED", tracker.ended)
	}

	// Reports are persisted under the raw feature name.
	if diff := cmp.Diff([]string{"humidity (pct)", "temperature (C)"}, repo.saved); diff != "" {
		t.Fatalf("persisted features mismatch (-want +got):\n%s", diff)
	}
}

func TestSweepSkipsMalformedFeature(t *testing.T) {
	t.Parallel()

	source := &fakeSource{pairs: []domain.SamplePair{
		{Feature: "broken", Reference: nil, Current: []float64{1, 2, 3}},
		stablePair("stable"),
	}}
	tracker := &fakeTracker{}

	monitor := NewMonitor(MonitorDeps{Source: source, Tracker: tracker, Experiment: "exp"})

	result, err := monitor.Sweep(context.Background(), "normal", nil)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}

	if _, ok := result.Reports["broken"]; ok {
		t.Fatal("malformed feature should be skipped")
	}
	if _, ok := result.Reports["stable"]; !ok {
		t.Fatal("healthy feature should still be evaluated")
	}
	if result.Detected {
		t.Fatal("no drift expected")
	}
	if tracker.metrics["drift_detected"] != 0 {
		t.Fatalf("drift_detected = %g, want 0", tracker.metrics["drift_detected"])
	}
}

func TestSweepWithoutOptionalDeps(t *testing.T) {
	t.Parallel()

	monitor := NewMonitor(MonitorDeps{Source: &fakeSource{pairs: []domain.SamplePair{stablePair("tm")}}})

	result, err := monitor.Sweep(context.Background(), "normal", nil)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if len(result.Reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(result.Reports))
	}
}

func TestSweepNoSource(t *testing.T) {
	t.Parallel()

	monitor := NewMonitor(MonitorDeps{})
	if _, err := monitor.Sweep(context.Background(), "normal", nil); err == nil {
		t.Fatal("expected error without a sample source")
	}
}
