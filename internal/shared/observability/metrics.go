package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyfront_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	ParseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyfront_parse_failures_total",
		Help: "Total number of parse failures, including re-parsed fragments.",
	}, []string{"kind"})

	PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyfront_pass_seconds",
		Help:    "Time spent in one normalization pass over one source.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pass"})

	SourcesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyfront_sources_processed_total",
		Help: "Total number of sources run through the normalization pipeline.",
	})

	SourcesDeferredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyfront_sources_deferred_total",
		Help: "Total number of sources deferred on an unindexed wildcard import.",
	})

	CallGraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyfront_callgraph_edges_total",
		Help: "Number of edges in the most recently built call graph.",
	})

	CallGraphComponents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyfront_callgraph_components_total",
		Help: "Number of strongly connected components in the last partition.",
	})

	ErrorsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyfront_errors_emitted_total",
		Help: "Total number of diagnostics emitted, by error name.",
	}, []string{"name"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyfront_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyfront_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})
)
