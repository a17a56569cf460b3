package ingest

import (
	"fmt"

	"driftwatch/internal/ports"
)

// Registry maps source names (csv, html, ...) to SampleSource implementations
// so the monitored source can be switched from configuration.
type Registry struct {
	sources map[string]ports.SampleSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.SampleSource{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(name string, source ports.SampleSource) {
	if r.sources == nil {
		r.sources = map[string]ports.SampleSource{}
	}
	r.sources[name] = source
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.SampleSource, error) {
	if source, ok := r.sources[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("sample source %s is not registered", name)
}
