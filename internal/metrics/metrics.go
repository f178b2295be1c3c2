package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Query cache
	QueryHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsbook_query_cache_hits_total",
			Help: "Reads served from a fresh cache entry",
		},
		[]string{"query"},
	)
	QueryMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsbook_query_cache_misses_total",
			Help: "Reads that needed a fetch (missing, stale or invalidated entry)",
		},
		[]string{"query"},
	)
	QueryDeduplicated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsbook_query_deduplicated_total",
			Help: "Reads that joined an in-flight fetch instead of issuing one",
		},
		[]string{"query"},
	)
	QueryFetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsbook_query_fetch_errors_total",
			Help: "Fetches that failed",
		},
		[]string{"query"},
	)

	// Backend HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsbook_backend_requests_total",
			Help: "Requests sent to the backend",
		},
		[]string{"method", "path", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sportsbook_backend_request_duration_seconds",
			Help:    "Latency of backend requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Booking workflow
	ReservationsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsbook_reservations_submitted_total",
			Help: "Reservation submissions by outcome",
		},
		[]string{"outcome"}, // success|failure
	)

	// Stub backend
	StubRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsbook_stub_requests_total",
			Help: "Requests served by the stub backend",
		},
		[]string{"method", "route", "status"},
	)
	StubLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sportsbook_stub_request_duration_seconds",
			Help:    "Stub backend handler latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registerOnce sync.Once
)

// Handler serves the default registry
var Handler = promhttp.Handler

// Register adds all collectors to reg (prometheus.DefaultRegisterer when nil).
// Only the first call has an effect.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			QueryHits,
			QueryMisses,
			QueryDeduplicated,
			QueryFetchErrors,
			RequestsTotal,
			RequestLatency,
			ReservationsSubmitted,
			StubRequests,
			StubLatency,
		)
	})
}
