package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
	StatusError  = "error"
)

type Manager struct {
	// counters
	CounterAggregateQueries *prometheus.CounterVec
	CounterCacheHits        prometheus.Counter

	// histograms
	HistAggregateQueryDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("fitstats", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitstats", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterAggregateQueries := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "aggregate_queries",
		Help:      "The total number of aggregate queries, by data type and outcome",
	}, []string{"data_type", "status"})
	counterCacheHits := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "aggregate_cache_hits",
		Help:      "The total number of aggregate responses served from cache",
	})

	histAggregateQueryDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "aggregate_query_duration_seconds",
			Help:      "Duration of aggregate queries, including the remote round trip",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	return &Manager{
		CounterAggregateQueries:    counterAggregateQueries,
		CounterCacheHits:           counterCacheHits,
		HistAggregateQueryDuration: histAggregateQueryDuration,
	}
}

// ObserveQuery records the outcome and duration of one aggregate query.
func (m *Manager) ObserveQuery(dataType, status string, seconds float64) {
	m.CounterAggregateQueries.WithLabelValues(dataType, status).Inc()
	m.HistAggregateQueryDuration.Observe(seconds)
}
