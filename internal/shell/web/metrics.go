package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

// Metrics holds the board's prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	// requests counts HTTP requests.
	// Labels: method, route (chi route pattern), status
	requests *prometheus.CounterVec

	// duration measures HTTP request latency.
	// Labels: method, route
	duration *prometheus.HistogramVec

	// posts counts created posts.
	// Labels: kind (question, answer)
	posts *prometheus.CounterVec

	// votes counts recorded votes.
	// Labels: kind (question, answer)
	votes *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg and serves them from gatherer.
// Pass a fresh prometheus.NewRegistry() for both in tests.
func NewMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askboard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "askboard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		posts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askboard",
			Subsystem: "board",
			Name:      "posts_total",
			Help:      "Total questions and answers created",
		}, []string{"kind"}),
		votes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askboard",
			Subsystem: "board",
			Name:      "votes_total",
			Help:      "Total votes recorded",
		}, []string{"kind"}),
	}
}

// Handler serves the collected metrics in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) postCreated(kind string) {
	if m != nil {
		m.posts.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) voteRecorded(kind string) {
	if m != nil {
		m.votes.WithLabelValues(kind).Inc()
	}
}
