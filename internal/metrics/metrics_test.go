package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCheck(t *testing.T) {
	m := NewMetrics()
	m.ObserveCheck("Daily", ResultAlert, 1, 4)
	m.ObserveCheck("Daily", ResultFailed, 2, 4)
	m.ObserveCheck("Daily", ResultFailed, 3, 4)

	if got := testutil.ToFloat64(m.ChecksTotal.WithLabelValues("Daily", ResultFailed)); got != 2 {
		t.Errorf("expected 2 failed checks, got %v", got)
	}
	if got := testutil.ToFloat64(m.ScanProgress); got != 0.75 {
		t.Errorf("expected progress 0.75, got %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := NewMetrics()
	m.ObserveCycle(90*time.Second, time.Unix(1700000000, 0))

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"touchsentinel_cycles_total 1", "touchsentinel_last_cycle_end_timestamp_seconds 1.7e+09"} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in metrics output", want)
		}
	}
}
