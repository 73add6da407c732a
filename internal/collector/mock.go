package collector

import (
	"context"
	"fmt"
	"time"

	"BreakoutScanner/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols present in Data are served from it; any other symbol gets generated bars
// when Price is set and ErrNoData otherwise.
type MockFetcher struct {
	Price float64
	Data  map[string][]model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyRange(_ context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Data[symbol]; ok {
		var out []model.OHLCV
		for _, b := range bars {
			if !b.Time.Before(calendarDate(start)) && !b.Time.After(calendarDate(end)) {
				out = append(out, b)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
		}
		return out, nil
	}
	if m.Price <= 0 {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
	}
	return generateMockBars(m.Price, start, end), nil
}

// generateMockBars produces one bar per weekday with a slow drift and a volume spike
// with a 4% gain every 17th bar.
func generateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	var bars []model.OHLCV
	p := basePrice
	i := 0
	for d := calendarDate(start); !d.After(calendarDate(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		volume := 1000000.0
		if i%17 == 16 {
			p *= 1.04
			volume *= 3
		} else {
			p *= 1 + float64(i%5-2)*0.002
		}
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: volume,
		})
		i++
	}
	return bars
}
