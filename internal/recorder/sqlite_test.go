package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutScanner/internal/model"
)

func sampleReport(symbol string) *model.TickerReport {
	return &model.TickerReport{
		Symbol: symbol,
		Start:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Params: model.DefaultParams(),
		Bars:   140,
		Result: &model.ScanResult{
			Trades: []model.TradeRecord{
				{
					EntryDate: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), EntryPrice: 50.25,
					ExitDate: time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC), ExitPrice: 52.1,
					ReturnPct: 3.68, VolumeRatio: 2.41, EntryIndex: 24, ExitIndex: 34, HoldingDays: 10,
				},
			},
			Skipped: []model.SkippedBreakout{{Index: 60, Reason: model.SkipZeroEntryPrice}},
		},
		Summary: model.SummaryStatistics{TotalTrades: 1, WinRate: 100, AverageReturn: 3.68, MaxReturn: 3.68, MinReturn: 3.68},
	}
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "scans.db"))
	require.NoError(t, err)
	defer rec.Close()

	run := NewRunRecord(sampleReport("AAPL"))
	require.NotEmpty(t, run.ID)
	assert.Equal(t, 1, run.Skipped)
	require.NoError(t, rec.RecordRun(run))
	require.NoError(t, rec.RecordRun(NewRunRecord(sampleReport("MSFT"))))

	runs, err := rec.RecentRuns("AAPL", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Start, got.Start)
	assert.Equal(t, run.Params, got.Params)
	assert.Equal(t, run.Summary, got.Summary)
	assert.Equal(t, 1, got.Skipped)
	require.Len(t, got.Trades, 1)
	assert.Equal(t, run.Trades[0], got.Trades[0])
}

func TestSQLiteRecorder_RecentRunsNewestFirst(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "scans.db"))
	require.NoError(t, err)
	defer rec.Close()

	first := NewRunRecord(sampleReport("AAPL"))
	first.CreatedAt = time.Now().Add(-time.Hour).UTC()
	second := NewRunRecord(sampleReport("AAPL"))
	require.NoError(t, rec.RecordRun(first))
	require.NoError(t, rec.RecordRun(second))

	runs, err := rec.RecentRuns("AAPL", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.ID, runs[0].ID)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, rec.RecordRun(NewRunRecord(sampleReport("AAPL"))))
	runs, err := rec.RecentRuns("AAPL", 5)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, rec.Close())
}
