package model

import "time"

// Params configures a breakout scan. Thresholds are percentages: 200 means 2.0x volume,
// 2.0 means a 2% daily gain.
type Params struct {
	VolumeThresholdPct float64 `json:"volume_threshold_pct" yaml:"volume_threshold_pct"`
	PriceThresholdPct  float64 `json:"price_threshold_pct" yaml:"price_threshold_pct"`
	HoldingPeriodDays  int     `json:"holding_period_days" yaml:"holding_period_days"`
}

// DefaultParams returns the stock thresholds: 200% volume, 2% price, 10 day hold.
func DefaultParams() Params {
	return Params{
		VolumeThresholdPct: 200,
		PriceThresholdPct:  2.0,
		HoldingPeriodDays:  10,
	}
}

// TradeRecord is one simulated trade entered on a breakout close.
// Prices, ratio and return are rounded to 2 decimals when the record is created.
type TradeRecord struct {
	EntryDate   time.Time `json:"entry_date"`
	EntryPrice  float64   `json:"entry_price"`
	ExitDate    time.Time `json:"exit_date"`
	ExitPrice   float64   `json:"exit_price"`
	ReturnPct   float64   `json:"return_pct"`
	VolumeRatio float64   `json:"volume_ratio"`
	EntryIndex  int       `json:"entry_index"`
	ExitIndex   int       `json:"exit_index"`
	HoldingDays int       `json:"holding_days"`
}

// SkipReason says why a qualifying breakout produced no trade.
type SkipReason string

const (
	SkipZeroEntryPrice  SkipReason = "ZERO_ENTRY_PRICE"
	SkipIndexOutOfRange SkipReason = "INDEX_OUT_OF_RANGE"
)

// SkippedBreakout is a qualifying day that could not be simulated.
type SkippedBreakout struct {
	Date   time.Time  `json:"date"`
	Index  int        `json:"index"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// ScanResult is the detector output: trades in ascending entry order plus any skipped days.
type ScanResult struct {
	Trades  []TradeRecord     `json:"trades"`
	Skipped []SkippedBreakout `json:"skipped"`
}

// SummaryStatistics aggregates the trades of one run. All values are rounded to 2 decimals.
type SummaryStatistics struct {
	TotalTrades   int     `json:"total_trades"`
	WinRate       float64 `json:"win_rate"`
	AverageReturn float64 `json:"average_return"`
	MaxReturn     float64 `json:"max_return"`
	MinReturn     float64 `json:"min_return"`
	StdDev        float64 `json:"std_dev"`
}

// TickerReport bundles everything produced for one symbol in one run.
type TickerReport struct {
	Symbol  string            `json:"symbol"`
	Start   time.Time         `json:"start"`
	End     time.Time         `json:"end"`
	Params  Params            `json:"params"`
	Bars    int               `json:"bars"`
	Result  *ScanResult       `json:"result,omitempty"`
	Summary SummaryStatistics `json:"summary"`
	NoData  bool              `json:"no_data"`
	Err     error             `json:"-"`
}
