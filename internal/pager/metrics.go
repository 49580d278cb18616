package pager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the pager.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   prometheus.Counter
	FailuresTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	ItemsTotal      prometheus.Counter
	Collections     prometheus.Counter
	PagesPerRun     prometheus.Histogram
}

// NewMetrics constructs all pager metrics and registers them on registry.
//
// A nil registry gets a dedicated one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	requests := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "songyears",
			Subsystem: "pager",
			Name:      "requests_total",
			Help:      "Total page fetches sent to the source.",
		},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "songyears",
			Subsystem: "pager",
			Name:      "page_failures_total",
			Help:      "Page fetches that degraded to an empty page, by error type.",
		},
		[]string{"error_type"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "songyears",
			Subsystem: "pager",
			Name:      "request_duration_seconds",
			Help:      "Latency of single page fetches.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	items := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "songyears",
			Subsystem: "pager",
			Name:      "items_total",
			Help:      "Items returned across all collections.",
		},
	)
	collections := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "songyears",
			Subsystem: "pager",
			Name:      "collections_total",
			Help:      "Completed collections.",
		},
	)
	pagesPerRun := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "songyears",
			Subsystem: "pager",
			Name:      "pages_per_collection",
			Help:      "Distribution of page fetches per collection.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		},
	)

	registry.MustRegister(requests, failures, duration, items, collections, pagesPerRun)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		FailuresTotal:   failures,
		RequestDuration: duration,
		ItemsTotal:      items,
		Collections:     collections,
		PagesPerRun:     pagesPerRun,
	}
}

// IncRequest increments the page fetch counter.
func (m *Metrics) IncRequest() {
	if m == nil {
		return
	}
	m.RequestsTotal.Inc()
}

// IncFailure increments the failure counter for an error type label.
func (m *Metrics) IncFailure(errorType string) {
	if m == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(errorType).Inc()
}

// ObserveDuration records a page fetch duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// ObserveCollection records the outcome of a finished collection.
func (m *Metrics) ObserveCollection(r Report) {
	if m == nil {
		return
	}
	m.Collections.Inc()
	m.ItemsTotal.Add(float64(r.Items))
	m.PagesPerRun.Observe(float64(r.Pages))
}
