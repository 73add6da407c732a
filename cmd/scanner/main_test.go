package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutScanner/internal/model"
)

func runAnalyze(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{"analyze", "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestAnalyze_MockProviderWritesCSV(t *testing.T) {
	dir := t.TempDir()
	out, err := runAnalyze(t, "--provider", "mock", "--tickers", "aapl",
		"--start", "2024-01-01", "--end", "2024-06-01", "--csv-dir", dir, "--max-trades", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Analysis for AAPL")
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "Recent trades (2 of")
	_, err = os.Stat(filepath.Join(dir, "AAPL_breakout_analysis.csv"))
	assert.NoError(t, err)
}

func TestAnalyze_RejectsBadInput(t *testing.T) {
	_, err := runAnalyze(t, "--provider", "mock", "--tickers", "AAPL", "--volume", "10")
	assert.ErrorContains(t, err, "volume threshold")

	_, err = runAnalyze(t, "--provider", "mock", "--tickers", "AAPL", "--start", "2024-05-01", "--end", "2024-01-01")
	assert.ErrorContains(t, err, "before")

	_, err = runAnalyze(t, "--provider", "mock", "--start", "2024-13-01", "--tickers", "AAPL")
	assert.ErrorContains(t, err, "invalid --start")
}

func TestPlainReport(t *testing.T) {
	r := &model.TickerReport{Symbol: "A&B", NoData: true}
	assert.Equal(t, "⚠️ No data found for A&B. Please check the symbol.", plainReport(r, 0))
}
