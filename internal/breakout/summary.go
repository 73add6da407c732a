package breakout

import (
	"math"

	"BreakoutScanner/internal/calculator"
	"BreakoutScanner/internal/model"
)

// Summarize aggregates trade returns. An empty input yields the zero value.
// StdDev is the sample standard deviation and is 0 for a single trade.
// The statistics are computed from the stored, already rounded ReturnPct values.
func Summarize(trades []model.TradeRecord) model.SummaryStatistics {
	if len(trades) == 0 {
		return model.SummaryStatistics{}
	}

	n := float64(len(trades))
	wins := 0
	sum := 0.0
	maxReturn := math.Inf(-1)
	minReturn := math.Inf(1)
	for _, tr := range trades {
		r := tr.ReturnPct
		if r > 0 {
			wins++
		}
		sum += r
		maxReturn = math.Max(maxReturn, r)
		minReturn = math.Min(minReturn, r)
	}
	mean := sum / n

	var stdDev float64
	if len(trades) > 1 {
		var sq float64
		for _, tr := range trades {
			d := tr.ReturnPct - mean
			sq += d * d
		}
		stdDev = math.Sqrt(sq / (n - 1))
	}

	return model.SummaryStatistics{
		TotalTrades:   len(trades),
		WinRate:       calculator.Round2(float64(wins) / n * 100),
		AverageReturn: calculator.Round2(mean),
		MaxReturn:     calculator.Round2(maxReturn),
		MinReturn:     calculator.Round2(minReturn),
		StdDev:        calculator.Round2(stdDev),
	}
}
