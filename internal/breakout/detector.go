package breakout

import (
	"errors"
	"fmt"
	"math"

	"BreakoutScanner/internal/calculator"
	"BreakoutScanner/internal/model"
)

var (
	// ErrInvalidParameter is returned for thresholds or holding periods that cannot produce a meaningful run.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidSeries is returned for series that are unordered or carry negative or non-finite values.
	ErrInvalidSeries = errors.New("invalid series")
)

// ValidateParams checks the scan parameters. Minimums stricter than these are the caller's to enforce.
func ValidateParams(p model.Params) error {
	if p.HoldingPeriodDays < 1 {
		return fmt.Errorf("%w: holding period must be at least 1 day, got %d", ErrInvalidParameter, p.HoldingPeriodDays)
	}
	if !isFinite(p.VolumeThresholdPct) || p.VolumeThresholdPct < 0 {
		return fmt.Errorf("%w: volume threshold must be a non-negative percentage, got %v", ErrInvalidParameter, p.VolumeThresholdPct)
	}
	if !isFinite(p.PriceThresholdPct) || p.PriceThresholdPct < 0 {
		return fmt.Errorf("%w: price threshold must be a non-negative percentage, got %v", ErrInvalidParameter, p.PriceThresholdPct)
	}
	return nil
}

func validateSeries(bars []model.OHLCV) error {
	for i, b := range bars {
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if !isFinite(v) || v < 0 {
				return fmt.Errorf("%w: bar %d (%s) has value %v", ErrInvalidSeries, i, b.Time.Format(model.DateLayout), v)
			}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d (%s) does not follow %s", ErrInvalidSeries, i,
				b.Time.Format(model.DateLayout), bars[i-1].Time.Format(model.DateLayout))
		}
	}
	return nil
}

// Detect scans the bars for breakout days and simulates a fixed-hold trade from each one.
//
// A bar qualifies when its volume ratio exceeds VolumeThresholdPct/100 and its daily return
// exceeds PriceThresholdPct/100, both strictly. Bars without a 20-bar volume history never
// qualify. Each qualifying bar yields its own trade, so holding windows may overlap. A trade
// whose hold runs past the series end exits on the last bar.
//
// Breakouts that cannot be simulated are listed in ScanResult.Skipped and the scan continues.
func Detect(bars []model.OHLCV, params model.Params) (*model.ScanResult, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	if err := validateSeries(bars); err != nil {
		return nil, err
	}

	result := &model.ScanResult{
		Trades:  []model.TradeRecord{},
		Skipped: []model.SkippedBreakout{},
	}
	if len(bars) < calculator.VolumeWindow {
		return result, nil
	}

	derived := calculator.Derive(bars)
	volumeCut := params.VolumeThresholdPct / 100
	priceCut := params.PriceThresholdPct / 100

	for t, d := range derived {
		if !qualifies(d, volumeCut, priceCut) {
			continue
		}
		trade, err := simulate(bars, derived, t, params.HoldingPeriodDays)
		if err != nil {
			result.Skipped = append(result.Skipped, skippedFrom(bars, t, err))
			continue
		}
		result.Trades = append(result.Trades, trade)
	}
	return result, nil
}

// Analyze runs Detect and summarizes the trades it produced.
func Analyze(bars []model.OHLCV, params model.Params) (*model.ScanResult, model.SummaryStatistics, error) {
	result, err := Detect(bars, params)
	if err != nil {
		return nil, model.SummaryStatistics{}, err
	}
	return result, Summarize(result.Trades), nil
}

func qualifies(d calculator.DerivedPoint, volumeCut, priceCut float64) bool {
	return d.HasRatio && d.HasReturn && d.VolumeRatio > volumeCut && d.DailyReturn > priceCut
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
