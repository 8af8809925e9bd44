// Package metrics defines the Prometheus metric collectors used by the
// indexer and the query executor and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	DocsIndexedTotal   prometheus.Counter
	DocsDeletedTotal   prometheus.Counter
	DocTableSize       prometheus.Gauge
	IndexMemoryBytes   prometheus.Gauge
	NumTerms           prometheus.Gauge
	GCRunsTotal        prometheus.Counter
	GCEntriesRemoved   prometheus.Counter
	GCBytesCollected   prometheus.Counter
	GCDuration         prometheus.Histogram
	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount prometheus.Histogram
	QueryTimeoutsTotal *prometheus.CounterVec
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	ConsumerMessages   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg, or with the
// default registry when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents indexed.",
			},
		),
		DocsDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_deleted_total",
				Help: "Total documents deleted.",
			},
		),
		DocTableSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "doc_table_live_documents",
				Help: "Number of live documents in the document table.",
			},
		),
		IndexMemoryBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_memory_bytes",
				Help: "Estimated bytes held by inverted indexes and the document table.",
			},
		),
		NumTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_terms",
				Help: "Number of distinct terms in the term dictionary.",
			},
		),
		GCRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "index_gc_runs_total",
				Help: "Total garbage collection passes.",
			},
		),
		GCEntriesRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "index_gc_entries_removed_total",
				Help: "Postings of deleted documents removed by garbage collection.",
			},
		),
		GCBytesCollected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "index_gc_bytes_collected_total",
				Help: "Posting bytes reclaimed by garbage collection.",
			},
		),
		GCDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_gc_duration_seconds",
				Help:    "Duration of one garbage collection pass.",
				Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, timeout, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of matching documents per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 1000, 10000},
			},
		),
		QueryTimeoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_timeouts_total",
				Help: "Queries that hit the timeout, by timeout policy.",
			},
			[]string{"policy"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		ConsumerMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consumer_messages_total",
				Help: "Document events consumed by operation and status.",
			},
			[]string{"op", "status"},
		),
	}

	reg.MustRegister(
		m.DocsIndexedTotal,
		m.DocsDeletedTotal,
		m.DocTableSize,
		m.IndexMemoryBytes,
		m.NumTerms,
		m.GCRunsTotal,
		m.GCEntriesRemoved,
		m.GCBytesCollected,
		m.GCDuration,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.QueryTimeoutsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.ConsumerMessages,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
