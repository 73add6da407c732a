package breakout

import (
	"errors"
	"fmt"

	"BreakoutScanner/internal/calculator"
	"BreakoutScanner/internal/model"
)

// simulationError carries the skip reason for a breakout that produced no trade.
type simulationError struct {
	reason model.SkipReason
	detail string
}

func (e *simulationError) Error() string {
	return fmt.Sprintf("%s: %s", e.reason, e.detail)
}

// simulate enters at the close of bar t and exits holdDays bars later, or on the last bar.
func simulate(bars []model.OHLCV, derived []calculator.DerivedPoint, t, holdDays int) (model.TradeRecord, error) {
	last := len(bars) - 1
	if t < 0 || t > last || len(derived) != len(bars) {
		return model.TradeRecord{}, &simulationError{
			reason: model.SkipIndexOutOfRange,
			detail: fmt.Sprintf("entry index %d outside series of %d bars", t, len(bars)),
		}
	}

	exit := last
	if holdDays < last-t {
		exit = t + holdDays
	}

	entry := bars[t]
	if entry.Close == 0 {
		return model.TradeRecord{}, &simulationError{
			reason: model.SkipZeroEntryPrice,
			detail: "entry close is zero",
		}
	}
	exitBar := bars[exit]
	returnPct := (exitBar.Close - entry.Close) / entry.Close * 100

	return model.TradeRecord{
		EntryDate:   entry.Time,
		EntryPrice:  calculator.Round2(entry.Close),
		ExitDate:    exitBar.Time,
		ExitPrice:   calculator.Round2(exitBar.Close),
		ReturnPct:   calculator.Round2(returnPct),
		VolumeRatio: calculator.Round2(derived[t].VolumeRatio),
		EntryIndex:  t,
		ExitIndex:   exit,
		HoldingDays: exit - t,
	}, nil
}

func skippedFrom(bars []model.OHLCV, t int, err error) model.SkippedBreakout {
	s := model.SkippedBreakout{Index: t, Reason: model.SkipIndexOutOfRange, Detail: err.Error()}
	var simErr *simulationError
	if errors.As(err, &simErr) {
		s.Reason = simErr.reason
		s.Detail = simErr.detail
	}
	if t >= 0 && t < len(bars) {
		s.Date = bars[t].Time
	}
	return s
}
