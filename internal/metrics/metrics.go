// Package metrics exposes Prometheus collectors for search operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search kinds, used as the "kind" label value.
const (
	KindSPT = "spt"
	KindCPT = "cpt"
	KindVs  = "vs"
)

// Metrics groups the search collectors. A nil *Metrics records nothing.
type Metrics struct {
	searches *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	results  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geodata",
			Name:      "searches_total",
			Help:      "Searches executed, by report kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geodata",
			Name:      "search_failures_total",
			Help:      "Searches that returned an error, by report kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geodata",
			Name:      "search_duration_seconds",
			Help:      "Wall time of a search including child fetches and assembly.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		results: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geodata",
			Name:      "search_results",
			Help:      "Reports returned per search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		}, []string{"kind"}),
	}
	reg.MustRegister(m.searches, m.failures, m.duration, m.results)
	return m
}

// ObserveSearch records one finished search.
func (m *Metrics) ObserveSearch(kind string, hits int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(kind).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		m.failures.WithLabelValues(kind).Inc()
		return
	}
	m.results.WithLabelValues(kind).Observe(float64(hits))
}
