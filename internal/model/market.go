package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds raw daily price data for one symbol.
type PriceSeries struct {
	Symbol    string
	DailyBars []OHLCV
	Start     time.Time
	End       time.Time
	FetchedAt time.Time
}

// DateLayout is the calendar date format used in exports and reports.
const DateLayout = "2006-01-02"
