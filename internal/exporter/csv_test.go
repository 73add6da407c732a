package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutScanner/internal/model"
)

func sampleTrades() []model.TradeRecord {
	return []model.TradeRecord{
		{
			EntryDate:   time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC),
			EntryPrice:  103,
			ExitDate:    time.Date(2024, 4, 4, 0, 0, 0, 0, time.UTC),
			ExitPrice:   110.5,
			ReturnPct:   7.28,
			VolumeRatio: 2.73,
		},
		{
			EntryDate:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			EntryPrice:  98.1,
			ExitDate:    time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC),
			ExitPrice:   95,
			ReturnPct:   -3.16,
			VolumeRatio: 3,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTrades()))

	want := "Entry_Date,Entry_Price,Exit_Date,Exit_Price,Return_Pct,Volume_Ratio\n" +
		"2024-03-21,103.00,2024-04-04,110.50,7.28,2.73\n" +
		"2024-05-02,98.10,2024-05-16,95.00,-3.16,3.00\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_NoTradesWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Entry_Date,Entry_Price,Exit_Date,Exit_Price,Return_Pct,Volume_Ratio\n", buf.String())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "AAPL_breakout_analysis.csv", FileName("AAPL"))
	assert.Equal(t, "BRK_B_breakout_analysis.csv", FileName("BRK/B"))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	report := &model.TickerReport{Symbol: "TCS.NS", Result: &model.ScanResult{Trades: sampleTrades()}}

	path, err := WriteFile(dir, report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "TCS.NS_breakout_analysis.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-05-02,98.10")

	_, err = WriteFile(dir, &model.TickerReport{Symbol: "X", NoData: true})
	assert.Error(t, err)
}
