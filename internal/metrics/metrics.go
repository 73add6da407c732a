package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"BreakoutScanner/internal/model"
)

// Scan outcomes used as the status label.
const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
	StatusError  = "error"
)

// Registry holds the Prometheus collectors for breakout scans.
// A nil *Registry is valid and records nothing.
type Registry struct {
	Scans        *prometheus.CounterVec
	Trades       prometheus.Counter
	Skipped      *prometheus.CounterVec
	ScanDuration prometheus.Histogram
}

// NewRegistry creates the collectors and registers them with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		Scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakout_scans_total",
				Help: "Ticker scans by outcome",
			},
			[]string{"status"},
		),
		Trades: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "breakout_trades_total",
				Help: "Simulated breakout trades produced",
			},
		),
		Skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakout_skipped_total",
				Help: "Qualifying breakouts that could not be simulated, by reason",
			},
			[]string{"reason"},
		),
		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "breakout_scan_duration_seconds",
				Help:    "Fetch plus analysis time per ticker",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
	}
	reg.MustRegister(r.Scans, r.Trades, r.Skipped, r.ScanDuration)
	return r
}

// ObserveReport records the outcome of one ticker scan.
func (r *Registry) ObserveReport(report *model.TickerReport, elapsed time.Duration) {
	if r == nil || report == nil {
		return
	}
	r.ScanDuration.Observe(elapsed.Seconds())
	switch {
	case report.Err != nil:
		r.Scans.WithLabelValues(StatusError).Inc()
		return
	case report.NoData:
		r.Scans.WithLabelValues(StatusNoData).Inc()
		return
	}
	r.Scans.WithLabelValues(StatusOK).Inc()
	if report.Result == nil {
		return
	}
	r.Trades.Add(float64(len(report.Result.Trades)))
	for _, s := range report.Result.Skipped {
		r.Skipped.WithLabelValues(string(s.Reason)).Inc()
	}
}
