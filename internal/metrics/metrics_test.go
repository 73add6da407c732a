package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"BreakoutScanner/internal/model"
)

func TestObserveReport(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	r.ObserveReport(&model.TickerReport{
		Symbol: "AAPL",
		Result: &model.ScanResult{
			Trades:  make([]model.TradeRecord, 3),
			Skipped: []model.SkippedBreakout{{Reason: model.SkipZeroEntryPrice}},
		},
	}, 20*time.Millisecond)
	r.ObserveReport(&model.TickerReport{Symbol: "NOPE", NoData: true}, time.Millisecond)
	r.ObserveReport(&model.TickerReport{Symbol: "BAD", Err: errors.New("boom")}, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Scans.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Scans.WithLabelValues(StatusNoData)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Scans.WithLabelValues(StatusError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Trades))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Skipped.WithLabelValues(string(model.SkipZeroEntryPrice))))
}

func TestObserveReport_NilRegistry(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveReport(&model.TickerReport{}, time.Second)
	})
}
