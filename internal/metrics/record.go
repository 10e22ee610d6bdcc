package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
)

// Outcome labels for DocumentsTotal.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// RecordDocument records one document operation.
func RecordDocument(operation string, duration time.Duration, skipped bool, err error) {
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
		ErrorsTotal.WithLabelValues(operation, errs.KindOf(err)).Inc()
	case skipped:
		outcome = OutcomeSkipped
	}
	DocumentsTotal.WithLabelValues(operation, outcome).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFragments records fragment files written in a format.
func RecordFragments(format string, n int) {
	if n > 0 {
		FragmentsWrittenTotal.WithLabelValues(format).Add(float64(n))
	}
}

// RecordWatchEvent records a coalesced watch event.
func RecordWatchEvent(eventType string) {
	WatchEventsTotal.WithLabelValues(eventType).Inc()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile writes the default registry in text exposition format to path,
// for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
