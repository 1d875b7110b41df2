package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "funnel"

// Outcome labels for the funnel counters.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
	ResultDenied   = "denied"
)

// Metrics owns a private registry so that several instances (tests) never collide.
type Metrics struct {
	registry *prometheus.Registry

	visits          *prometheus.CounterVec
	completions     *prometheus.CounterVec
	linksCreated    prometheus.Counter
	slugCollisions  prometheus.Counter
	adminLogins     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.visits = m.registerCounter("visits_total", "Visits to /go/{slug} by result", []string{"result"})
	m.completions = m.registerCounter("completions_total", "Completions via /redirect/{slug} by result", []string{"result"})
	m.adminLogins = m.registerCounter("admin_logins_total", "Admin login attempts by result", []string{"result"})
	m.httpRequests = m.registerCounter("http_requests_total", "HTTP requests", []string{"method", "route", "code"})

	m.linksCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "links_created_total",
		Help:      "Links created",
	})
	m.slugCollisions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slug_collisions_total",
		Help:      "Slug draws rejected by the store as duplicates",
	})
	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.registry.MustRegister(
		m.linksCreated,
		m.slugCollisions,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) registerCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	m.registry.MustRegister(counter)
	return counter
}

func (m *Metrics) Visit(result string)      { m.visits.WithLabelValues(result).Inc() }
func (m *Metrics) Completion(result string) { m.completions.WithLabelValues(result).Inc() }
func (m *Metrics) AdminLogin(result string) { m.adminLogins.WithLabelValues(result).Inc() }
func (m *Metrics) LinkCreated()             { m.linksCreated.Inc() }
func (m *Metrics) SlugCollision()           { m.slugCollisions.Inc() }

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry (used by tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
