package notifier

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"BreakoutScanner/internal/model"
)

func reportWithTrades(n int) *model.TickerReport {
	trades := make([]model.TradeRecord, n)
	for i := range trades {
		trades[i] = model.TradeRecord{
			EntryDate:  time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			ExitDate:   time.Date(2024, 1, 11+i, 0, 0, 0, 0, time.UTC),
			EntryPrice: 100, ExitPrice: 105, ReturnPct: 5, VolumeRatio: 2.5,
		}
	}
	return &model.TickerReport{
		Symbol:  "AAPL",
		Start:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Params:  model.DefaultParams(),
		Result:  &model.ScanResult{Trades: trades},
		Summary: model.SummaryStatistics{TotalTrades: n, WinRate: 100, AverageReturn: 5, MaxReturn: 5, MinReturn: 5},
	}
}

func TestFormatTickerReport(t *testing.T) {
	msg := FormatTickerReport(reportWithTrades(8), 3)

	assert.Contains(t, msg, "Analysis for AAPL")
	assert.Contains(t, msg, "2024-01-01 → 2024-12-31")
	assert.Contains(t, msg, "Win rate: 100.00%")
	assert.Contains(t, msg, "Recent trades</b> (3 of 8)")
	assert.Contains(t, msg, "2024-01-08 100.00 → 2024-01-18 105.00  +5.00%")
	assert.NotContains(t, msg, "2024-01-01 100.00")
}

func TestFormatTickerReport_Variants(t *testing.T) {
	assert.Contains(t, FormatTickerReport(&model.TickerReport{Symbol: "ZZZ", NoData: true}, 5), "No data found for <b>ZZZ</b>")
	assert.Contains(t, FormatTickerReport(reportWithTrades(0), 5), "No breakout conditions found for <b>AAPL</b>")
	assert.Contains(t, FormatTickerReport(&model.TickerReport{Symbol: "X", Err: errors.New("a < b")}, 5), "a &lt; b")
}

func TestFormatDigest(t *testing.T) {
	msg := FormatDigest([]*model.TickerReport{
		reportWithTrades(2),
		{Symbol: "NONE", NoData: true},
		{Symbol: "BAD", Err: errors.New("x")},
	}, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, msg, "2024-07-01")
	assert.Contains(t, msg, "AAPL: 2 trades, win 100%, avg +5.00%")
	assert.Contains(t, msg, "NONE: no data")
	assert.Contains(t, msg, "BAD: error")
}
