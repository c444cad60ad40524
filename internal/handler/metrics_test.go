package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterwatch/rosterwatch/internal/metrics"
)

func TestMetricsHandler_Metrics(t *testing.T) {
	reg, err := metrics.New(metrics.Options{})
	require.NoError(t, err)
	reg.HTTPRequestsTotal.WithLabelValues("GET", "/api/students", "200").Inc()

	h := NewMetricsHandler(reg, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.Metrics(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, metrics.ContentType, rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "# TYPE http_requests_total counter")
	assert.Contains(t, body, `http_requests_total{method="GET",route="/api/students",status="200"} 1`)
	assert.Contains(t, body, "# TYPE active_requests gauge")
	assert.True(t, strings.HasSuffix(body, "\n"))
}

func TestMetricsHandler_ScrapeIsIdempotent(t *testing.T) {
	reg, err := metrics.New(metrics.Options{})
	require.NoError(t, err)
	reg.DBQueriesTotal.WithLabelValues("SELECT", "students").Add(3)

	h := NewMetricsHandler(reg, discardLogger())

	scrape := func() string {
		rec := httptest.NewRecorder()
		h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Body.String()
	}

	assert.Equal(t, scrape(), scrape())
}
