package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	routes      *prometheus.CounterVec
	fitDuration prometheus.Histogram
	fitSessions *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_http_requests_total",
			Help: "HTTP requests handled by the planning API.",
		}, []string{"endpoint", "code"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "planner_http_request_duration_seconds",
			Help:    "Latency of the planning API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		routes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_routes_total",
			Help: "Discrete route searches by search algorithm and outcome.",
		}, []string{"search", "found"}),
		fitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_fit_duration_seconds",
			Help:    "Wall time of curve fitting sessions.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		fitSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_fit_sessions_total",
			Help: "Curve fitting sessions by outcome.",
		}, []string{"outcome"}),
	}
}

// instrument counts requests and observes latency for one endpoint.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)

		s.metrics.latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		s.metrics.requests.WithLabelValues(endpoint, strconv.Itoa(ww.Status())).Inc()
	}
}
