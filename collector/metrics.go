package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the lister.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestDuration prometheus.Histogram
	FetchesTotal    *prometheus.CounterVec
	URLsTotal       *prometheus.CounterVec
	ShardsTotal     *prometheus.CounterVec
	TitlesTotal     *prometheus.CounterVec
	DuplicatesTotal prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lister_request_duration_seconds",
			Help:    "HTTP request latency for sitemap fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lister_sitemap_fetches_total",
			Help: "Total sitemap fetches by outcome.",
		},
		[]string{"outcome"},
	)
	urls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lister_urls_total",
			Help: "Total shard URL entries by disposition.",
		},
		[]string{"disposition"},
	)
	shards := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lister_shards_total",
			Help: "Total shards processed by outcome.",
		},
		[]string{"outcome"},
	)
	titles := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lister_title_lookups_total",
			Help: "Item name resolutions by source.",
		},
		[]string{"source"},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lister_duplicate_items_total",
			Help: "Items dropped by id deduplication.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lister_errors_total",
			Help: "Total fetch errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requestDuration, fetches, urls, shards, titles, duplicates, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RequestDuration: requestDuration,
		FetchesTotal:    fetches,
		URLsTotal:       urls,
		ShardsTotal:     shards,
		TitlesTotal:     titles,
		DuplicatesTotal: duplicates,
		ErrorsTotal:     errorsTotal,
	}
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncFetch increments the sitemap fetch counter for an outcome.
func (m *Metrics) IncFetch(outcome string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
}

// IncURL increments the URL disposition counter.
func (m *Metrics) IncURL(disposition string) {
	if m == nil {
		return
	}
	m.URLsTotal.WithLabelValues(disposition).Inc()
}

// IncShard increments the shard outcome counter.
func (m *Metrics) IncShard(outcome string) {
	if m == nil {
		return
	}
	m.ShardsTotal.WithLabelValues(outcome).Inc()
}

// IncTitle increments the name-resolution counter for a source.
func (m *Metrics) IncTitle(source string) {
	if m == nil {
		return
	}
	m.TitlesTotal.WithLabelValues(source).Inc()
}

// AddDuplicates adds to the deduplication counter.
func (m *Metrics) AddDuplicates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DuplicatesTotal.Add(float64(n))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
