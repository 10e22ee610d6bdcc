// Package metrics provides Prometheus metrics for disassembly and reassembly runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "xmldisassembler"
)

// Document metrics track whole-document operations.
var (
	// DocumentsTotal is the number of documents processed by operation and outcome.
	DocumentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_total",
		Help:      "Total number of documents processed",
	}, []string{"operation", "outcome"})

	// OperationDuration is a histogram of per-document operation duration in seconds.
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of a single document operation in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"operation"})

	// ErrorsTotal is the number of failed operations by error kind.
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total number of failed operations",
	}, []string{"operation", "kind"})
)

// Fragment metrics track files written during disassembly.
var (
	// FragmentsWrittenTotal is the number of fragment files written by format.
	FragmentsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fragments_written_total",
		Help:      "Total number of fragment files written",
	}, []string{"format"})

	// MultiLevelEntriesTotal counts multi-level splits applied and collapsed.
	MultiLevelEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "multi_level_entries_total",
		Help:      "Total number of multi-level entries applied or collapsed",
	}, []string{"operation"})
)

// Watch metrics track the watch command.
var (
	// WatchEventsTotal is the number of coalesced file events by type.
	WatchEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watch_events_total",
		Help:      "Total number of coalesced watch events",
	}, []string{"type"})

	// WatchRunsThrottled counts runs delayed by the rate limiter.
	WatchRunsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watch_runs_throttled_total",
		Help:      "Total number of watch runs delayed by the rate limiter",
	})
)
