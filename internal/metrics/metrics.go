package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "skytravel"

// Metrics holds all prometheus metrics
type Metrics struct {
	SearchDuration   prometheus.Histogram
	SearchResults    prometheus.Histogram
	SearchCacheHits  *prometheus.CounterVec
	HoldAttempts     *prometheus.CounterVec
	HoldsPurged      prometheus.Counter
	TicketsFinalized prometheus.Counter
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in
// binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time taken to enumerate and rank itineraries",
			Buckets:   prometheus.DefBuckets,
		}),
		SearchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of itineraries returned per search",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
		SearchCacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_lookups_total",
			Help:      "Itinerary cache lookups by result",
		}, []string{"result"}),
		HoldAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hold_attempts_total",
			Help:      "Seat hold attempts by outcome",
		}, []string{"outcome"}),
		HoldsPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "holds_purged_total",
			Help:      "Expired holds deleted by the periodic sweep",
		}),
		TicketsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_finalized_total",
			Help:      "Holds converted into tickets",
		}),
	}
}
