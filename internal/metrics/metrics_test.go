package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
)

func TestMetricsHandler(t *testing.T) {
	RecordDocument("disassemble", time.Millisecond, false, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "xmldisassembler_") {
		t.Error("response should contain xmldisassembler_ metrics")
	}
}

func TestRecordDocument(t *testing.T) {
	tests := []struct {
		name    string
		skipped bool
		err     error
		outcome string
	}{
		{"success", false, nil, OutcomeOK},
		{"skipped", true, nil, OutcomeSkipped},
		{"error", false, errs.Malformed("parse", "a.xml", errors.New("bad")), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := DocumentsTotal.WithLabelValues("test", tt.outcome)
			before := testutil.ToFloat64(counter)
			RecordDocument("test", 10*time.Millisecond, tt.skipped, tt.err)
			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("documents_total{outcome=%q} delta = %v, want 1", tt.outcome, got)
			}
		})
	}

	if got := testutil.ToFloat64(ErrorsTotal.WithLabelValues("test", "malformed_document")); got < 1 {
		t.Errorf("errors_total{kind=malformed_document} = %v, want >= 1", got)
	}
}

func TestRecordFragments(t *testing.T) {
	counter := FragmentsWrittenTotal.WithLabelValues("yaml")
	before := testutil.ToFloat64(counter)
	RecordFragments("yaml", 3)
	RecordFragments("yaml", 0)
	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("fragments_written_total delta = %v, want 3", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordWatchEvent("modify")
	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "xmldisassembler_watch_events_total") {
		t.Error("textfile should contain xmldisassembler_watch_events_total")
	}
}
