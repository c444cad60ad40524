package metrics

import "github.com/prometheus/client_golang/prometheus"

// Bucket layouts, in seconds.
var (
	HTTPDurationBuckets   = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DBDurationBuckets     = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
	ActionDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
)

// Label sets.
var (
	httpLabels       = []string{"method", "route", "status"}
	dbLabels         = []string{"operation", "table"}
	dbErrorLabels    = []string{"operation", "table", "error_kind"}
	pageViewLabels   = []string{"page", "referrer"}
	actionLabels     = []string{"action", "status"}
	frontErrorLabels = []string{"action", "error_type"}
	apiCallLabels    = []string{"endpoint", "method", "status"}
)

// NewCounterVec builds and registers a labeled counter.
func (r *Registry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (*prometheus.CounterVec, error) {
	c := prometheus.NewCounterVec(opts, labels)
	if err := r.Register(fqName(opts.Namespace, opts.Subsystem, opts.Name), c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewHistogramVec builds and registers a labeled histogram.
func (r *Registry) NewHistogramVec(opts prometheus.HistogramOpts, labels []string) (*prometheus.HistogramVec, error) {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := r.Register(fqName(opts.Namespace, opts.Subsystem, opts.Name), h); err != nil {
		return nil, err
	}
	return h, nil
}

// NewGauge builds and registers an unlabeled gauge.
func (r *Registry) NewGauge(opts prometheus.GaugeOpts) (prometheus.Gauge, error) {
	g := prometheus.NewGauge(opts)
	if err := r.Register(fqName(opts.Namespace, opts.Subsystem, opts.Name), g); err != nil {
		return nil, err
	}
	return g, nil
}

func fqName(namespace, subsystem, name string) string {
	return prometheus.BuildFQName(namespace, subsystem, name)
}

// registerInstruments creates the fixed catalogue. Instrument identities
// never change after startup; only label values vary per observation.
func (r *Registry) registerInstruments() error {
	var err error

	// TRAFFIC / LATENCY / ERRORS / SATURATION for HTTP
	if r.HTTPRequestsTotal, err = r.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, httpLabels); err != nil {
		return err
	}
	if r.HTTPRequestDuration, err = r.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: HTTPDurationBuckets,
	}, httpLabels); err != nil {
		return err
	}
	if r.HTTPRequestErrorsTotal, err = r.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_errors_total",
		Help: "Total failed HTTP requests",
	}, httpLabels); err != nil {
		return err
	}
	if r.ActiveRequests, err = r.NewGauge(prometheus.GaugeOpts{
		Name: "active_requests",
		Help: "Number of active requests",
	}); err != nil {
		return err
	}

	// Database
	if r.DBQueriesTotal, err = r.NewCounterVec(prometheus.CounterOpts{
		Name: "db_queries_total",
		Help: "Total database queries",
	}, dbLabels); err != nil {
		return err
	}
	if r.DBQueryDuration, err = r.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Database query duration in seconds",
		Buckets: DBDurationBuckets,
	}, dbLabels); err != nil {
		return err
	}
	if r.DBQueryErrorsTotal, err = r.NewCounterVec(prometheus.CounterOpts{
		Name: "db_query_errors_total",
		Help: "Total failed database queries",
	}, dbErrorLabels); err != nil {
		return err
	}
	if r.DBActiveConnections, err = r.NewGauge(prometheus.GaugeOpts{
		Name: "db_active_connections",
		Help: "Number of active database connections",
	}); err != nil {
		return err
	}

	// Frontend
	if r.FrontendPageViewsTotal, err = r.NewCounterVec(prometheus.CounterOpts{
		Name: "frontend_page_views_total",
		Help: "Total frontend page views",
	}, pageViewLabels); err != nil {
		return err
	}
	if r.FrontendActionDuration, err = r.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "frontend_action_duration_seconds",
		Help:    "Frontend action duration in seconds",
		Buckets: ActionDurationBuckets,
	}, actionLabels); err != nil {
		return err
	}
	if r.FrontendErrorsTotal, err = r.NewCounterVec(prometheus.CounterOpts{
		Name: "frontend_errors_total",
		Help: "Total frontend errors",
	}, frontErrorLabels); err != nil {
		return err
	}
	if r.FrontendAPICallsTotal, err = r.NewCounterVec(prometheus.CounterOpts{
		Name: "frontend_api_calls_total",
		Help: "Total API calls initiated from frontend",
	}, apiCallLabels); err != nil {
		return err
	}

	return nil
}
