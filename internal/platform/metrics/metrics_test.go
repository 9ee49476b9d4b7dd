package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveReport(t *testing.T) {
	m := New()
	m.ObserveReport("rendered", 1500*time.Millisecond)
	m.ObserveReport("rendered", 200*time.Millisecond)
	m.ObserveReport("cached", 3*time.Millisecond)

	if got := testutil.ToFloat64(m.reports.WithLabelValues("rendered")); got != 2 {
		t.Errorf("rendered = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.reports.WithLabelValues("cached")); got != 1 {
		t.Errorf("cached = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.reportDuration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/items/1", "/api/items/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/items/:id", "204")); got != 2 {
		t.Errorf("templated route count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("unmatched count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.httpInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "campus_assets_http_requests_total") {
		t.Error("exposition is missing the request counter")
	}
}
