// Package metrics owns the process-wide Prometheus registry and the
// instruments the HTTP, database and frontend layers report into.
//
// A single Registry is built at startup and injected everywhere it is needed.
// Tests build a fresh Registry per test.
package metrics

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

// ContentType is the MIME type of the text exposition format served by Render.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// DuplicateNameError is returned when an instrument name is registered twice.
type DuplicateNameError struct {
	Name string
	err  error
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("metric %q already registered", e.Name)
}

func (e *DuplicateNameError) Unwrap() error {
	return e.err
}

// Options configures a Registry.
type Options struct {
	// RuntimeCollectors registers the process and Go runtime collectors.
	RuntimeCollectors bool
	Logger            *slog.Logger
}

// Registry is the process-wide collection of named instruments.
type Registry struct {
	reg    *prometheus.Registry
	logger *slog.Logger

	mu    sync.Mutex
	names map[string]struct{}

	// HTTP golden signals
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestErrorsTotal *prometheus.CounterVec
	ActiveRequests         prometheus.Gauge

	// Database golden signals
	DBQueriesTotal      *prometheus.CounterVec
	DBQueryDuration     *prometheus.HistogramVec
	DBQueryErrorsTotal  *prometheus.CounterVec
	DBActiveConnections prometheus.Gauge

	// Frontend signals
	FrontendPageViewsTotal *prometheus.CounterVec
	FrontendActionDuration *prometheus.HistogramVec
	FrontendErrorsTotal    *prometheus.CounterVec
	FrontendAPICallsTotal  *prometheus.CounterVec
}

// New creates a Registry with the full instrument catalogue registered.
func New(opts Options) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		reg:    prometheus.NewRegistry(),
		logger: logger.With("component", "metrics"),
		names:  make(map[string]struct{}),
	}

	if opts.RuntimeCollectors {
		// The process collector only yields data where procfs (or the
		// platform equivalent) is available; elsewhere it collects nothing.
		if err := r.Register("process", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, err
		}
		if err := r.Register("go", collectors.NewGoCollector()); err != nil {
			return nil, err
		}
	}

	if err := r.registerInstruments(); err != nil {
		return nil, err
	}

	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts Options) *Registry {
	r, err := New(opts)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a collector under name. It fails with *DuplicateNameError
// if the name, or any metric the collector describes, already exists.
func (r *Registry) Register(name string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[name]; exists {
		return &DuplicateNameError{Name: name}
	}

	if err := r.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return &DuplicateNameError{Name: name, err: err}
		}
		return fmt.Errorf("register %s: %w", name, err)
	}

	r.names[name] = struct{}{}
	return nil
}

// Gatherer exposes the underlying registry for read-only consumers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Render writes every registered family in the text exposition format.
// Families are sorted by name and series by label values, so the output is
// deterministic for a given state. A collector that fails to gather is
// logged and left out; only an encoding failure is returned.
func (r *Registry) Render() ([]byte, error) {
	mfs, err := r.reg.Gather()
	if err != nil {
		r.logger.Warn("partial metrics gather", "error", err)
	}

	var buf bytes.Buffer
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, fmt.Errorf("encode metric family %s: %w", mf.GetName(), err)
		}
	}

	return buf.Bytes(), nil
}
