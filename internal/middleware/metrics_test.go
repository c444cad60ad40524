package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterwatch/rosterwatch/internal/metrics"
)

func newRegistry(t *testing.T) *metrics.Registry {
	t.Helper()
	reg, err := metrics.New(metrics.Options{})
	require.NoError(t, err)
	return reg
}

func histogramCount(t *testing.T, h *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, h.WithLabelValues(labels...).(prometheus.Metric).Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestInstrument_CountsRequests(t *testing.T) {
	reg := newRegistry(t)

	handler := Instrument(reg, "/api/students")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))

	const n = 7
	for i := 0; i < n; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/students", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, float64(n), testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("GET", "/api/students", "200")))
	assert.Equal(t, uint64(n), histogramCount(t, reg.HTTPRequestDuration, "GET", "/api/students", "200"))
	assert.Equal(t, 0, testutil.CollectAndCount(reg.HTTPRequestErrorsTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(reg.ActiveRequests))
}

func TestInstrument_ServerErrorsCounted(t *testing.T) {
	reg := newRegistry(t)

	handler := Instrument(reg, "/api/mock-error")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/mock-error", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("POST", "/api/mock-error", "500")))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.HTTPRequestErrorsTotal.WithLabelValues("POST", "/api/mock-error", "500")))
}

func TestInstrument_ClientErrorsAreNotServerErrors(t *testing.T) {
	reg := newRegistry(t)

	handler := Instrument(reg, "/api/students/:id")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/students/nope", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("GET", "/api/students/:id", "404")))
	assert.Equal(t, 0, testutil.CollectAndCount(reg.HTTPRequestErrorsTotal))
}

func TestInstrument_EmptyRouteUsesPath(t *testing.T) {
	reg := newRegistry(t)

	handler := Instrument(reg, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")))
}

func TestInstrument_GaugeDuringRequest(t *testing.T) {
	reg := newRegistry(t)
	reg.ActiveRequests.Set(2)

	var during float64
	handler := Instrument(reg, "/x")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(reg.ActiveRequests)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, float64(3), during)
	assert.Equal(t, float64(2), testutil.ToFloat64(reg.ActiveRequests))
}

func TestInstrument_PanicReleasesGauge(t *testing.T) {
	reg := newRegistry(t)

	handler := Instrument(reg, "/boom")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	})

	assert.Equal(t, float64(0), testutil.ToFloat64(reg.ActiveRequests))
	assert.Equal(t, 0, testutil.CollectAndCount(reg.HTTPRequestsTotal))
}

func TestInstrument_PanicRecoveredOutside(t *testing.T) {
	reg := newRegistry(t)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	handler := Recoverer(logger)(Instrument(reg, "/boom")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
	assert.Equal(t, float64(0), testutil.ToFloat64(reg.ActiveRequests))
}

func TestInstrument_Concurrent(t *testing.T) {
	reg := newRegistry(t)

	handler := Instrument(reg, "/api/students")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/students", nil))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(workers*perWorker), testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("POST", "/api/students", "201")))
	assert.Equal(t, float64(0), testutil.ToFloat64(reg.ActiveRequests))
}
