package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rosterwatch/rosterwatch/internal/metrics"
)

// Instrument records traffic, latency, errors and saturation for the wrapped
// handler under the given route label. An empty route falls back to the
// request path.
//
// A panicking handler is not counted; the active request gauge is still
// released and the panic continues to the recovery middleware.
func Instrument(reg *metrics.Registry, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.ActiveRequests.Inc()
			defer reg.ActiveRequests.Dec()

			label := route
			if label == "" {
				label = r.URL.Path
			}

			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			elapsed := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.status)

			reg.HTTPRequestsTotal.WithLabelValues(r.Method, label, status).Inc()
			reg.HTTPRequestDuration.WithLabelValues(r.Method, label, status).Observe(elapsed)
			if wrapped.status >= http.StatusInternalServerError {
				reg.HTTPRequestErrorsTotal.WithLabelValues(r.Method, label, status).Inc()
			}
		})
	}
}
