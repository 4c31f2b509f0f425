package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check outcomes used as the "result" label.
const (
	ResultAlert   = "alert"
	ResultClear   = "clear"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"

	ResultEligible   = "eligible"
	ResultIneligible = "ineligible"
)

// Metrics holds the Prometheus collectors for scans and screening.
type Metrics struct {
	Registry *prometheus.Registry

	ChecksTotal   *prometheus.CounterVec // labels: timeframe, result
	CycleDuration prometheus.Histogram
	CyclesTotal   prometheus.Counter
	ScanProgress  prometheus.Gauge // completed checks / total in the current cycle
	LastCycleEnd  prometheus.Gauge

	ScreenTotal *prometheus.CounterVec // labels: result
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "touchsentinel_checks_total",
			Help: "Ticker/timeframe checks by outcome",
		}, []string{"timeframe", "result"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "touchsentinel_cycle_duration_seconds",
			Help:    "Wall time of a full scan cycle",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10s .. ~85m
		}),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "touchsentinel_cycles_total",
			Help: "Completed scan cycles",
		}),
		ScanProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "touchsentinel_scan_progress_ratio",
			Help: "Fraction of checks completed in the current cycle",
		}),
		LastCycleEnd: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "touchsentinel_last_cycle_end_timestamp_seconds",
			Help: "Unix time the last scan cycle finished",
		}),
		ScreenTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "touchsentinel_screen_tickers_total",
			Help: "Screened tickers by outcome",
		}, []string{"result"}),
	}

	m.Registry.MustRegister(
		m.ChecksTotal,
		m.CycleDuration,
		m.CyclesTotal,
		m.ScanProgress,
		m.LastCycleEnd,
		m.ScreenTotal,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveCheck counts one ticker/timeframe check.
func (m *Metrics) ObserveCheck(timeframe, result string, done, total int) {
	m.ChecksTotal.WithLabelValues(timeframe, result).Inc()
	if total > 0 {
		m.ScanProgress.Set(float64(done) / float64(total))
	}
}

// ObserveCycle records a finished cycle.
func (m *Metrics) ObserveCycle(d time.Duration, end time.Time) {
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(d.Seconds())
	m.LastCycleEnd.Set(float64(end.Unix()))
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server for m on addr.
func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start serves in the background.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] metrics server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("[WARN] metrics server shutdown: %v", err)
	}
}
