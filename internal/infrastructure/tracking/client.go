// Package tracking is a REST client for an MLflow-compatible tracking
// server: experiments, runs, metrics, tags, and the model registry.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"driftwatch/internal/domain"
	"driftwatch/internal/ports"
)

const apiPrefix = "/api/2.0/mlflow"

// Client talks to one tracking server. Transient failures (network errors,
// 5xx) are retried with exponential backoff; client errors are not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	now        func() time.Time
}

var _ ports.Tracker = (*Client)(nil)

// NewClient creates a reusable client for the given tracking URI.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxRetries: 3,
		now:        time.Now,
	}
}

// EnsureExperiment returns the ID of the named experiment, creating it when
// the server does not know it yet.
func (c *Client) EnsureExperiment(ctx context.Context, name string) (string, error) {
	var found struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	query := url.Values{"experiment_name": {name}}
	err := c.get(ctx, "/experiments/get-by-name", query, &found)
	if err == nil {
		return found.Experiment.ExperimentID, nil
	}
	if !isNotFound(err) {
		return "", fmt.Errorf("get experiment %s: %w", name, err)
	}

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := c.post(ctx, "/experiments/create", map[string]any{"name": name}, &created); err != nil {
		return "", fmt.Errorf("create experiment %s: %w", name, err)
	}
	return created.ExperimentID, nil
}

// CreateRun starts a new run under the experiment.
func (c *Client) CreateRun(ctx context.Context, experimentID, name string) (domain.Run, error) {
	payload := map[string]any{
		"experiment_id": experimentID,
		"run_name":      name,
		"start_time":    c.now().UnixMilli(),
	}

	var resp struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	if err := c.post(ctx, "/runs/create", payload, &resp); err != nil {
		return domain.Run{}, fmt.Errorf("create run: %w", err)
	}

	return domain.Run{
		ID:           resp.Run.Info.RunID,
		ExperimentID: experimentID,
		Name:         name,
		Status:       domain.RunRunning,
	}, nil
}

// LogMetric records a timestamped scalar metric on the run.
func (c *Client) LogMetric(ctx context.Context, runID, key string, value float64) error {
	payload := map[string]any{
		"run_id":    runID,
		"key":       key,
		"value":     value,
		"timestamp": c.now().UnixMilli(),
		"step":      0,
	}
	if err := c.post(ctx, "/runs/log-metric", payload, nil); err != nil {
		return fmt.Errorf("log metric %s: %w", key, err)
	}
	return nil
}

// LogParam records a run parameter.
func (c *Client) LogParam(ctx context.Context, runID, key, value string) error {
	payload := map[string]any{"run_id": runID, "key": key, "value": value}
	if err := c.post(ctx, "/runs/log-parameter", payload, nil); err != nil {
		return fmt.Errorf("log param %s: %w", key, err)
	}
	return nil
}

// SetTag attaches a tag to the run.
func (c *Client) SetTag(ctx context.Context, runID, key, value string) error {
	payload := map[string]any{"run_id": runID, "key": key, "value": value}
	if err := c.post(ctx, "/runs/set-tag", payload, nil); err != nil {
		return fmt.Errorf("set tag %s: %w", key, err)
	}
	return nil
}

// EndRun terminates the run with the given status.
func (c *Client) EndRun(ctx context.Context, runID string, status domain.RunStatus) error {
	payload := map[string]any{
		"run_id":   runID,
		"status":   string(status),
		"end_time": c.now().UnixMilli(),
	}
	if err := c.post(ctx, "/runs/update", payload, nil); err != nil {
		return fmt.Errorf("end run: %w", err)
	}
	return nil
}

// TransitionStage moves a registered model version to a new registry stage.
func (c *Client) TransitionStage(ctx context.Context, model, version string, stage domain.ModelStage) error {
	payload := map[string]any{
		"name":    model,
		"version": version,
		"stage":   string(stage),
	}
	if err := c.post(ctx, "/model-versions/transition-stage", payload, nil); err != nil {
		return fmt.Errorf("transition %s v%s to %s: %w", model, version, stage, err)
	}
	return nil
}

// LatestVersions lists the newest version of the model per requested stage.
func (c *Client) LatestVersions(ctx context.Context, model string, stages []domain.ModelStage) ([]domain.ModelVersion, error) {
	query := url.Values{"name": {model}}
	for _, stage := range stages {
		query.Add("stages", string(stage))
	}

	var resp struct {
		ModelVersions []struct {
			Name         string `json:"name"`
			Version      string `json:"version"`
			CurrentStage string `json:"current_stage"`
			RunID        string `json:"run_id"`
		} `json:"model_versions"`
	}
	if err := c.get(ctx, "/registered-models/get-latest-versions", query, &resp); err != nil {
		return nil, fmt.Errorf("latest versions of %s: %w", model, err)
	}

	versions := make([]domain.ModelVersion, 0, len(resp.ModelVersions))
	for _, v := range resp.ModelVersions {
		versions = append(versions, domain.ModelVersion{
			Name:    v.Name,
			Version: v.Version,
			Stage:   domain.ModelStage(v.CurrentStage),
			RunID:   v.RunID,
		})
	}
	return versions, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tracking server returned %d: %s", e.code, e.body)
}

func isNotFound(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.code == http.StatusNotFound ||
		strings.Contains(se.body, "RESOURCE_DOES_NOT_EXIST")
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("new request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req, v)
	})
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	return c.retry(ctx, func() error {
		endpoint := c.baseURL + apiPrefix + path + "?" + query.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("new request: %w", err))
		}
		return c.do(req, v)
	})
}

func (c *Client) retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	return backoff.Retry(op, policy)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		serr := &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(payload))}
		// Only server-side failures are worth retrying.
		if resp.StatusCode < http.StatusInternalServerError {
			return backoff.Permanent(serr)
		}
		return serr
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
