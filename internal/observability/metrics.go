// Package observability defines the Prometheus metrics of the indexer.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesIndexedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpreflect_files_indexed_total",
		Help: "Total number of PHP files extracted into the registry.",
	})

	FilesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpreflect_files_skipped_total",
		Help: "Total number of files skipped because their content hash was unchanged.",
	})

	IndexErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phpreflect_index_errors_total",
		Help: "Total number of files that failed to index, by phase.",
	}, []string{"phase"})

	ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "phpreflect_parse_seconds",
		Help:    "Time spent parsing and extracting a single file.",
		Buckets: prometheus.DefBuckets,
	})

	IndexDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "phpreflect_index_seconds",
		Help:    "Time spent on one IndexFiles call.",
		Buckets: prometheus.DefBuckets,
	})

	SymbolsExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpreflect_symbols_extracted_total",
		Help: "Total number of declarations written to the registry.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpreflect_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// Error phases.
const (
	PhasePrepare = "prepare"
	PhaseExtract = "extract"
	PhaseCommit  = "commit"
)
