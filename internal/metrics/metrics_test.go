package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/sessions/{id}/reset", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/sessions/{id}/reset", "204"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/v1/sessions/abc/reset", http.NoBody))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/sessions/{id}/reset", "204"))
	assert.Equal(t, before+1, after)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", http.NoBody))
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/healthz", "200")), 1.0)
	assert.Positive(t, testutil.CollectAndCount(httpRequestDuration))
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "unknown", routeLabel(""))
	assert.Equal(t, "/v1/answer", routeLabel("/v1/answer"))
}

func TestFailureLabel(t *testing.T) {
	assert.Equal(t, "none", FailureLabel(""))
	assert.Equal(t, "timeout", FailureLabel("timeout"))
}
