package recorder

import (
	"time"

	"github.com/google/uuid"

	"BreakoutScanner/internal/model"
)

// RunRecord is one persisted scan of one symbol.
type RunRecord struct {
	ID        string
	Symbol    string
	Start     time.Time
	End       time.Time
	Params    model.Params
	Bars      int
	Summary   model.SummaryStatistics
	Trades    []model.TradeRecord
	Skipped   int
	CreatedAt time.Time
}

// NewRunRecord builds a record from a completed report under a fresh run ID.
func NewRunRecord(report *model.TickerReport) *RunRecord {
	run := &RunRecord{
		ID:        uuid.NewString(),
		Symbol:    report.Symbol,
		Start:     report.Start,
		End:       report.End,
		Params:    report.Params,
		Bars:      report.Bars,
		Summary:   report.Summary,
		CreatedAt: time.Now().UTC(),
	}
	if report.Result != nil {
		run.Trades = report.Result.Trades
		run.Skipped = len(report.Result.Skipped)
	}
	return run
}

// Recorder persists scan history for later analysis.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecentRuns(symbol string, limit int) ([]RunRecord, error)
	Close() error
}
