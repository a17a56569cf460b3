// Package server exposes the weather proxy and the drift detector over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"driftwatch/internal/drift"
	"driftwatch/internal/ports"
)

// TemperatureRecorder tracks proxied temperature readings, typically backed
// by a Prometheus gauge.
type TemperatureRecorder interface {
	RecordTemperature(celsius float64)
}

// Server routes API requests to the weather provider and the drift core.
type Server struct {
	weather     ports.WeatherProvider
	temperature TemperatureRecorder
	detector    drift.Config
	gatherer    prometheus.Gatherer
	logger      *slog.Logger
	httpServer  *http.Server
}

// Options bundles the server dependencies.
type Options struct {
	Addr        string
	Weather     ports.WeatherProvider
	Temperature TemperatureRecorder
	Detector    drift.Config
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
}

// New builds the server and its routes.
func New(opts Options) *Server {
	detector := opts.Detector
	if detector.Buckets == 0 {
		detector = drift.DefaultConfig()
	}

	s := &Server{
		weather:     opts.Weather,
		temperature: opts.Temperature,
		detector:    detector,
		gatherer:    opts.Gatherer,
		logger:      opts.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/weather/current", s.handleCurrent)
	mux.HandleFunc("GET /api/weather/forecast", s.handleForecast)
	mux.HandleFunc("POST /api/drift/evaluate", s.handleEvaluate)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	if s.weather == nil {
		writeError(w, http.StatusServiceUnavailable, "weather provider not configured")
		return
	}

	city := r.URL.Query().Get("city")
	if city == "" {
		writeError(w, http.StatusBadRequest, "city parameter is required")
		return
	}

	report, err := s.weather.Current(r.Context(), city, r.URL.Query().Get("country"))
	if err != nil {
		s.warn("current weather failed", "city", city, "error", err)
		writeError(w, http.StatusBadGateway, "cannot fetch current weather")
		return
	}

	if s.temperature != nil {
		s.temperature.RecordTemperature(report.Weather.Temperature)
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if s.weather == nil {
		writeError(w, http.StatusServiceUnavailable, "weather provider not configured")
		return
	}

	city := r.URL.Query().Get("city")
	if city == "" {
		writeError(w, http.StatusBadRequest, "city parameter is required")
		return
	}

	report, err := s.weather.Forecast(r.Context(), city, r.URL.Query().Get("country"))
	if err != nil {
		s.warn("forecast failed", "city", city, "error", err)
		writeError(w, http.StatusBadGateway, "cannot fetch forecast")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type evaluateRequest struct {
	Feature   string    `json:"feature"`
	Reference []float64 `json:"reference"`
	Current   []float64 `json:"current"`
}

type evaluateResponse struct {
	Feature string       `json:"feature,omitempty"`
	Report  drift.Report `json:"report"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	report, err := drift.Evaluate(req.Reference, req.Current, s.detector)
	if err != nil {
		if errors.Is(err, drift.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	writeJSON(w, http.StatusOK, evaluateResponse{Feature: req.Feature, Report: report})
}

func (s *Server) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
