package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservations(t *testing.T) {
	m := New()

	m.ObserveRequest("/api/search", http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest("/api/search", http.StatusOK, 20*time.Millisecond)
	m.ObserveBackend(BackendLLM, errors.New("x"), time.Second)
	m.ObserveBackend(BackendSearch, nil, time.Millisecond)
	m.IncFallback()
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/search", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendCalls.WithLabelValues(BackendLLM, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendCalls.WithLabelValues(BackendSearch, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.IncFallback()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "lookuply_fallback_answers_total 1")
}
