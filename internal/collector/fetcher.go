package collector

import (
	"context"
	"errors"
	"sort"
	"time"

	"BreakoutScanner/internal/model"
)

// ErrNoData means the provider had nothing for the symbol and range. Callers skip the symbol.
var ErrNoData = errors.New("no data")

// Fetcher defines the interface for fetching daily market data.
// Implementations return bars in ascending date order, one per trading day.
type Fetcher interface {
	FetchDailyRange(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}

// calendarDate truncates t to midnight UTC of its calendar date in t's location.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// orderBars sorts bars by date and collapses bars sharing a date, keeping the later one.
func orderBars(bars []model.OHLCV) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && b.Time.Equal(out[n-1].Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
