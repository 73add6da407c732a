package breakout

import (
	"time"

	"BreakoutScanner/internal/model"
)

var seriesStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// flatBars returns n bars with a constant close and volume on consecutive days.
func flatBars(n int, close, volume float64) []model.OHLCV {
	out := make([]model.OHLCV, n)
	for i := range out {
		out[i] = model.OHLCV{
			Time:   seriesStart.AddDate(0, 0, i),
			Open:   close,
			High:   close,
			Low:    close,
			Close:  close,
			Volume: volume,
		}
	}
	return out
}

// spike sets bar i to the given close and volume and carries the close forward.
func spike(b []model.OHLCV, i int, close, volume float64) {
	b[i].Volume = volume
	for j := i; j < len(b); j++ {
		b[j].Open, b[j].High, b[j].Low, b[j].Close = close, close, close, close
	}
}
