package frontend

import "github.com/rosterwatch/rosterwatch/internal/metrics"

// Record applies event to reg. It reports whether any instrument changed.
func Record(reg *metrics.Registry, event Event) bool {
	switch e := event.(type) {
	case PageView:
		reg.FrontendPageViewsTotal.WithLabelValues(e.Page, e.Referrer).Inc()
	case Action:
		if !e.HasDuration {
			return false
		}
		reg.FrontendActionDuration.WithLabelValues(e.Action, e.Status).Observe(e.DurationMs / 1000)
	case Error:
		reg.FrontendErrorsTotal.WithLabelValues(e.Action, e.ErrorType).Inc()
	case APICall:
		reg.FrontendAPICallsTotal.WithLabelValues(e.Endpoint, e.Method, e.Status).Inc()
	default:
		return false
	}
	return true
}
