package breakout

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutScanner/internal/calculator"
	"BreakoutScanner/internal/model"
)

func TestDetect_FlatSeriesHasNoBreakouts(t *testing.T) {
	result, summary, err := Analyze(flatBars(25, 100, 1000), model.DefaultParams())

	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, model.SummaryStatistics{}, summary)
}

func TestDetect_SingleVolumeSpike(t *testing.T) {
	b := flatBars(21, 100, 1000)
	spike(b, 20, 103, 3000)

	result, err := Detect(b, model.DefaultParams())

	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	tr := result.Trades[0]
	assert.Equal(t, b[20].Time, tr.EntryDate)
	assert.Equal(t, 103.0, tr.EntryPrice)
	// trailing mean is 1100, so the ratio is 3000/1100
	assert.Equal(t, 2.73, tr.VolumeRatio)
	// the spike is the last bar: the hold collapses to zero days
	assert.Equal(t, b[20].Time, tr.ExitDate)
	assert.Equal(t, 0, tr.HoldingDays)
	assert.Equal(t, 0.0, tr.ReturnPct)
}

func TestDetect_FullHoldingPeriod(t *testing.T) {
	b := flatBars(40, 100, 1000)
	spike(b, 20, 103, 3000)
	spike(b, 25, 110, 1000)

	result, err := Detect(b, model.DefaultParams())

	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	tr := result.Trades[0]
	assert.Equal(t, 20, tr.EntryIndex)
	assert.Equal(t, 30, tr.ExitIndex)
	assert.Equal(t, 10, tr.HoldingDays)
	assert.Equal(t, b[30].Time, tr.ExitDate)
	assert.Equal(t, 110.0, tr.ExitPrice)
	assert.Equal(t, 6.8, tr.ReturnPct)
}

func TestDetect_ExitClampedToLastBar(t *testing.T) {
	b := flatBars(40, 100, 1000)
	spike(b, 36, 103, 3000)
	b[39].Close = 98.5

	result, err := Detect(b, model.DefaultParams())

	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	tr := result.Trades[0]
	assert.Equal(t, b[39].Time, tr.ExitDate)
	assert.Equal(t, 39, tr.ExitIndex)
	assert.Equal(t, 3, tr.HoldingDays)
	assert.Equal(t, 98.5, tr.ExitPrice)
	assert.Equal(t, -4.37, tr.ReturnPct)
}

func TestDetect_ShortSeriesIsEmpty(t *testing.T) {
	b := flatBars(19, 100, 1000)
	spike(b, 18, 120, 50000)

	result, summary, err := Analyze(b, model.DefaultParams())

	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Equal(t, model.SummaryStatistics{}, summary)

	result, err = Detect(nil, model.DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
}

func TestDetect_ThresholdsAreStrict(t *testing.T) {
	// 19 bars of 1000 and one of 19000 average to 1900: the ratio is exactly 10.
	b := flatBars(20, 100, 1000)
	spike(b, 19, 103, 19000)

	result, err := Detect(b, model.Params{VolumeThresholdPct: 1000, PriceThresholdPct: 2, HoldingPeriodDays: 5})
	require.NoError(t, err)
	assert.Empty(t, result.Trades, "ratio equal to the threshold must not qualify")

	result, err = Detect(b, model.Params{VolumeThresholdPct: 999, PriceThresholdPct: 2, HoldingPeriodDays: 5})
	require.NoError(t, err)
	assert.Len(t, result.Trades, 1)

	// (102-100)/100 is exactly the 2% threshold
	b = flatBars(20, 100, 1000)
	spike(b, 19, 102, 19000)
	result, err = Detect(b, model.Params{VolumeThresholdPct: 200, PriceThresholdPct: 2, HoldingPeriodDays: 5})
	require.NoError(t, err)
	assert.Empty(t, result.Trades, "return equal to the threshold must not qualify")
}

func TestDetect_OverlappingBreakoutsAreNotMerged(t *testing.T) {
	b := flatBars(35, 100, 1000)
	spike(b, 20, 103, 3000)
	spike(b, 21, 106.09, 5000)

	result, err := Detect(b, model.DefaultParams())

	require.NoError(t, err)
	require.Len(t, result.Trades, 2)
	assert.Equal(t, 20, result.Trades[0].EntryIndex)
	assert.Equal(t, 21, result.Trades[1].EntryIndex)
	assert.True(t, result.Trades[0].ExitIndex > result.Trades[1].EntryIndex)
	assert.Equal(t, 3.85, result.Trades[1].VolumeRatio)
}

func TestDetect_InvalidParameters(t *testing.T) {
	b := flatBars(25, 100, 1000)
	tests := []struct {
		name   string
		params model.Params
	}{
		{"zero holding period", model.Params{VolumeThresholdPct: 200, PriceThresholdPct: 2, HoldingPeriodDays: 0}},
		{"negative holding period", model.Params{VolumeThresholdPct: 200, PriceThresholdPct: 2, HoldingPeriodDays: -3}},
		{"negative volume threshold", model.Params{VolumeThresholdPct: -1, PriceThresholdPct: 2, HoldingPeriodDays: 10}},
		{"negative price threshold", model.Params{VolumeThresholdPct: 200, PriceThresholdPct: -0.5, HoldingPeriodDays: 10}},
		{"NaN volume threshold", model.Params{VolumeThresholdPct: math.NaN(), PriceThresholdPct: 2, HoldingPeriodDays: 10}},
		{"infinite price threshold", model.Params{VolumeThresholdPct: 200, PriceThresholdPct: math.Inf(1), HoldingPeriodDays: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Detect(b, tt.params)
			assert.ErrorIs(t, err, ErrInvalidParameter)
			assert.Nil(t, result)
		})
	}
}

func TestDetect_InvalidSeries(t *testing.T) {
	unordered := flatBars(25, 100, 1000)
	unordered[10].Time = unordered[9].Time
	_, err := Detect(unordered, model.DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidSeries)

	negative := flatBars(25, 100, 1000)
	negative[3].Volume = -5
	_, err = Detect(negative, model.DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidSeries)

	nan := flatBars(25, 100, 1000)
	nan[7].Close = math.NaN()
	_, err = Detect(nan, model.DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidSeries)
}

func TestDetect_Idempotent(t *testing.T) {
	b := randomWalk(rand.New(rand.NewSource(7)), 250)
	params := model.Params{VolumeThresholdPct: 150, PriceThresholdPct: 1, HoldingPeriodDays: 7}

	r1, s1, err := Analyze(b, params)
	require.NoError(t, err)
	r2, s2, err := Analyze(b, params)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, s1, s2)
}

func TestDetect_RandomWalkProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 20; run++ {
		b := randomWalk(rng, 60+rng.Intn(200))
		hold := 1 + rng.Intn(15)
		params := model.Params{VolumeThresholdPct: 120, PriceThresholdPct: 0.5, HoldingPeriodDays: hold}

		result, summary, err := Analyze(b, params)
		require.NoError(t, err)

		last := len(b) - 1
		prev := -1
		for _, tr := range result.Trades {
			assert.Greater(t, tr.EntryIndex, prev, "trades must be in entry order")
			prev = tr.EntryIndex
			if tr.EntryIndex+hold > last {
				assert.Equal(t, last, tr.ExitIndex)
			} else {
				assert.Equal(t, hold, tr.ExitIndex-tr.EntryIndex)
			}
			assert.Equal(t, b[tr.ExitIndex].Time, tr.ExitDate)
		}

		assert.Equal(t, len(result.Trades), summary.TotalTrades)
		assert.GreaterOrEqual(t, summary.WinRate, 0.0)
		assert.LessOrEqual(t, summary.WinRate, 100.0)
		if summary.TotalTrades > 0 {
			assert.GreaterOrEqual(t, summary.AverageReturn, summary.MinReturn)
			assert.LessOrEqual(t, summary.AverageReturn, summary.MaxReturn)
		}
	}
}

func TestSimulate_ZeroEntryPriceIsSkipped(t *testing.T) {
	b := flatBars(25, 100, 1000)
	b[21].Close = 0

	_, err := simulate(b, make([]calculator.DerivedPoint, len(b)), 21, 5)
	require.Error(t, err)

	s := skippedFrom(b, 21, err)
	assert.Equal(t, model.SkipZeroEntryPrice, s.Reason)
	assert.Equal(t, b[21].Time, s.Date)
}

func TestSimulate_IndexOutOfRangeIsSkipped(t *testing.T) {
	b := flatBars(25, 100, 1000)

	_, err := simulate(b, make([]calculator.DerivedPoint, len(b)), 30, 5)
	require.Error(t, err)

	s := skippedFrom(b, 30, err)
	assert.Equal(t, model.SkipIndexOutOfRange, s.Reason)
	assert.True(t, s.Date.IsZero())
}

func randomWalk(rng *rand.Rand, n int) []model.OHLCV {
	b := flatBars(n, 50, 1000)
	price := 50.0
	for i := range b {
		price *= 1 + (rng.Float64()-0.48)*0.06
		vol := 500 + rng.Float64()*1500
		if rng.Intn(8) == 0 {
			vol *= 3
		}
		b[i].Open, b[i].High, b[i].Low, b[i].Close = price, price*1.01, price*0.99, price
		b[i].Volume = vol
	}
	return b
}
