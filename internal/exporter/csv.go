package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"BreakoutScanner/internal/model"
)

// Header is the fixed column order of the trade export.
var Header = []string{"Entry_Date", "Entry_Price", "Exit_Date", "Exit_Price", "Return_Pct", "Volume_Ratio"}

// WriteCSV writes trades in entry order with a header row.
func WriteCSV(w io.Writer, trades []model.TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tr := range trades {
		row := []string{
			tr.EntryDate.Format(model.DateLayout),
			formatNumber(tr.EntryPrice),
			tr.ExitDate.Format(model.DateLayout),
			formatNumber(tr.ExitPrice),
			formatNumber(tr.ReturnPct),
			formatNumber(tr.VolumeRatio),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", row[0], err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FileName returns the export file name for a symbol.
func FileName(symbol string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, symbol)
	return safe + "_breakout_analysis.csv"
}

// WriteFile writes the report's trades to dir/<SYMBOL>_breakout_analysis.csv and returns the path.
func WriteFile(dir string, report *model.TickerReport) (string, error) {
	if report == nil || report.Result == nil {
		return "", fmt.Errorf("export %s: no result", symbolOf(report))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(report.Symbol))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := WriteCSV(f, report.Result.Trades); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}

func symbolOf(r *model.TickerReport) string {
	if r == nil {
		return ""
	}
	return r.Symbol
}
