package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Visit(ResultOK)
	m.Visit(ResultOK)
	m.Visit(ResultNotFound)
	m.Completion(ResultOK)
	m.LinkCreated()
	m.SlugCollision()
	m.AdminLogin(ResultDenied)

	if got := testutil.ToFloat64(m.visits.WithLabelValues(ResultOK)); got != 2 {
		t.Errorf("visits ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.visits.WithLabelValues(ResultNotFound)); got != 1 {
		t.Errorf("visits not_found = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.linksCreated); got != 1 {
		t.Errorf("links created = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/go/{slug}", 200, 15*time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `funnel_http_requests_total{code="200",method="GET",route="/go/{slug}"} 1`) {
		t.Errorf("exposition missing request counter:\n%s", body)
	}
}

func TestInstancesDoNotCollide(t *testing.T) {
	// A second registry must not panic on duplicate registration.
	_ = New()
	_ = New()
}
