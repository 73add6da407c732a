package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"BreakoutScanner/internal/collector"
	"BreakoutScanner/internal/config"
	"BreakoutScanner/internal/exporter"
	"BreakoutScanner/internal/model"
	"BreakoutScanner/internal/notifier"
	"BreakoutScanner/internal/recorder"
)

// Sender delivers formatted reports.
type Sender interface {
	Enabled() bool
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options configures what a scheduled scan covers.
type Options struct {
	Tickers      []string
	Params       model.Params
	LookbackDays int
	ExportDir    string // empty disables CSV export
	MaxTrades    int
}

// Scheduler runs the periodic breakout scan and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  Sender
	Recorder  recorder.Recorder
	Options   Options
	Ctx       context.Context
	Now       func() time.Time

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, sender Sender, rec recorder.Recorder, opts Options) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  sender,
		Recorder:  rec,
		Options:   opts,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// Register adds the scan job under a six-field cron expression.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	log.Info().Str("cron", scanCron).Int("tickers", len(s.Options.Tickers)).Msg("scan task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// window returns the trailing lookback window ending today.
func (s *Scheduler) window() (time.Time, time.Time) {
	now := s.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -s.Options.LookbackDays), end
}

// RunNow scans every configured ticker, then records, exports and reports the results.
// Overlapping runs are skipped.
func (s *Scheduler) RunNow() []*model.TickerReport {
	if !s.running.TryLock() {
		log.Warn().Msg("scan already running, skipping")
		return nil
	}
	defer s.running.Unlock()

	start, end := s.window()
	log.Info().
		Strs("tickers", s.Options.Tickers).
		Str("start", start.Format(model.DateLayout)).
		Str("end", end.Format(model.DateLayout)).
		Msg("scheduled scan started")

	reports := s.Collector.AnalyzeAll(s.Ctx, s.Options.Tickers, start, end, s.Options.Params)
	for _, r := range reports {
		s.persist(r)
	}

	if s.Notifier != nil && s.Notifier.Enabled() {
		s.trySend(notifier.FormatDigest(reports, s.Now()))
		for _, r := range reports {
			if r.Err == nil && !r.NoData && r.Result != nil && len(r.Result.Trades) > 0 {
				s.trySend(notifier.FormatTickerReport(r, s.Options.MaxTrades))
			}
		}
	}
	return reports
}

func (s *Scheduler) persist(r *model.TickerReport) {
	if r.Err != nil || r.NoData || r.Result == nil {
		return
	}
	if err := s.Recorder.RecordRun(recorder.NewRunRecord(r)); err != nil {
		log.Error().Err(err).Str("symbol", r.Symbol).Msg("record run")
	}
	if s.Options.ExportDir == "" {
		return
	}
	path, err := exporter.WriteFile(s.Options.ExportDir, r)
	if err != nil {
		log.Error().Err(err).Str("symbol", r.Symbol).Msg("export csv")
		return
	}
	log.Info().Str("symbol", r.Symbol).Str("path", path).Msg("results exported")
}

// HandleCommand processes a bot command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	arg := strings.Join(fields[1:], ",")

	switch strings.ToLower(fields[0]) {
	case "/scan":
		symbols := config.ParseTickers(arg)
		if len(symbols) == 0 {
			return "Usage: /scan SYMBOL[,SYMBOL...]"
		}
		start, end := s.window()
		var b strings.Builder
		for i, r := range s.Collector.AnalyzeAll(ctx, symbols, start, end, s.Options.Params) {
			s.persist(r)
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(notifier.FormatTickerReport(r, s.Options.MaxTrades))
		}
		return b.String()
	case "/last":
		symbols := config.ParseTickers(arg)
		if len(symbols) != 1 {
			return "Usage: /last SYMBOL"
		}
		runs, err := s.Recorder.RecentRuns(symbols[0], 1)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbols[0]).Msg("load recent runs")
			return "Could not load run history."
		}
		if len(runs) == 0 {
			return fmt.Sprintf("No recorded runs for %s.", symbols[0])
		}
		return notifier.FormatTickerReport(reportFromRun(&runs[0]), s.Options.MaxTrades)
	case "/tickers":
		if len(s.Options.Tickers) == 0 {
			return "No tickers configured."
		}
		return "Scheduled tickers: " + strings.Join(s.Options.Tickers, ", ")
	case "/run":
		go s.RunNow()
		return "Scan started."
	default:
		return notifier.HelpText
	}
}

func reportFromRun(run *recorder.RunRecord) *model.TickerReport {
	return &model.TickerReport{
		Symbol:  run.Symbol,
		Start:   run.Start,
		End:     run.End,
		Params:  run.Params,
		Bars:    run.Bars,
		Result:  &model.ScanResult{Trades: run.Trades},
		Summary: run.Summary,
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
