package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"BreakoutScanner/internal/breakout"
	"BreakoutScanner/internal/metrics"
	"BreakoutScanner/internal/model"
)

// Collector orchestrates data fetching and breakout analysis.
type Collector struct {
	Fetcher    Fetcher
	WarmupDays int // calendar days fetched before start so the volume average is defined at start
	Workers    int
	Metrics    *metrics.Registry
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, warmupDays, workers int, reg *metrics.Registry) *Collector {
	if workers < 1 {
		workers = 1
	}
	return &Collector{Fetcher: fetcher, WarmupDays: warmupDays, Workers: workers, Metrics: reg}
}

// Analyze fetches daily bars for symbol and runs the breakout scan on them.
// The report is never nil; a provider without data marks it NoData instead of failing it.
func (c *Collector) Analyze(ctx context.Context, symbol string, start, end time.Time, params model.Params) *model.TickerReport {
	began := time.Now()
	report := &model.TickerReport{Symbol: symbol, Start: start, End: end, Params: params}
	defer func() { c.Metrics.ObserveReport(report, time.Since(began)) }()

	bars, err := c.Fetcher.FetchDailyRange(ctx, symbol, start.AddDate(0, 0, -c.WarmupDays), end)
	if errors.Is(err, ErrNoData) || (err == nil && len(bars) == 0) {
		log.Warn().Str("symbol", symbol).Str("provider", c.Fetcher.Name()).Msg("no data found, skipping symbol")
		report.NoData = true
		return report
	}
	if err != nil {
		report.Err = fmt.Errorf("fetch %s: %w", symbol, err)
		log.Error().Err(err).Str("symbol", symbol).Str("provider", c.Fetcher.Name()).Msg("fetch failed")
		return report
	}
	report.Bars = len(bars)

	result, summary, err := breakout.Analyze(bars, params)
	if err != nil {
		report.Err = fmt.Errorf("analyze %s: %w", symbol, err)
		log.Error().Err(err).Str("symbol", symbol).Msg("analysis failed")
		return report
	}
	report.Result = result
	report.Summary = summary

	for _, s := range result.Skipped {
		log.Warn().
			Str("symbol", symbol).
			Str("date", s.Date.Format(model.DateLayout)).
			Str("reason", string(s.Reason)).
			Str("detail", s.Detail).
			Msg("could not calculate returns for breakout")
	}
	log.Info().
		Str("symbol", symbol).
		Int("bars", len(bars)).
		Int("trades", len(result.Trades)).
		Int("skipped", len(result.Skipped)).
		Msg("scan complete")
	return report
}

// AnalyzeAll scans every symbol with at most Workers scans in flight.
// Reports are returned in the order of symbols.
func (c *Collector) AnalyzeAll(ctx context.Context, symbols []string, start, end time.Time, params model.Params) []*model.TickerReport {
	reports := make([]*model.TickerReport, len(symbols))
	workers := c.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				reports[i] = &model.TickerReport{Symbol: symbol, Start: start, End: end, Params: params, Err: err}
				return
			}
			reports[i] = c.Analyze(ctx, symbol, start, end, params)
		}(i, symbol)
	}
	wg.Wait()
	return reports
}
