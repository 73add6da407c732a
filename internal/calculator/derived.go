package calculator

import (
	"time"

	"BreakoutScanner/internal/model"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// VolumeWindow is the trailing window of the volume moving average.
const VolumeWindow = 20

// DerivedPoint holds the fields computed for one bar over the whole series.
// A Has* flag is false where the field has no value.
type DerivedPoint struct {
	VolumeMA20  float64
	DailyReturn float64
	VolumeRatio float64
	HasVolumeMA bool
	HasReturn   bool
	HasRatio    bool
}

// NewTimeSeries converts ordered daily bars into a techan series.
func NewTimeSeries(bars []model.OHLCV) *techan.TimeSeries {
	series := techan.NewTimeSeries()
	for _, b := range bars {
		candle := techan.NewCandle(techan.NewTimePeriod(b.Time, 24*time.Hour))
		candle.OpenPrice = big.NewDecimal(b.Open)
		candle.ClosePrice = big.NewDecimal(b.Close)
		candle.MaxPrice = big.NewDecimal(b.High)
		candle.MinPrice = big.NewDecimal(b.Low)
		candle.Volume = big.NewDecimal(b.Volume)
		// AddCandle rejects periods that overlap, which exchange-local dates can do around DST.
		series.Candles = append(series.Candles, candle)
	}
	return series
}

// Derive computes the 20-bar volume moving average, the close-to-close return and the
// volume ratio for every bar. The moving average at t covers bars [t-19, t].
func Derive(bars []model.OHLCV) []DerivedPoint {
	out := make([]DerivedPoint, len(bars))
	if len(bars) == 0 {
		return out
	}

	series := NewTimeSeries(bars)
	volumeMA := techan.NewSimpleMovingAverage(techan.NewVolumeIndicator(series), VolumeWindow)

	for i := range bars {
		p := &out[i]
		if i > 0 && bars[i-1].Close != 0 {
			p.DailyReturn = (bars[i].Close - bars[i-1].Close) / bars[i-1].Close
			p.HasReturn = true
		}
		if i < VolumeWindow-1 {
			continue
		}
		p.VolumeMA20 = volumeMA.Calculate(i).Float()
		p.HasVolumeMA = true
		if p.VolumeMA20 > 0 {
			p.VolumeRatio = bars[i].Volume / p.VolumeMA20
			p.HasRatio = true
		}
	}
	return out
}
