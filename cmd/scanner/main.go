package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"BreakoutScanner/internal/api"
	"BreakoutScanner/internal/collector"
	"BreakoutScanner/internal/config"
	"BreakoutScanner/internal/exporter"
	"BreakoutScanner/internal/metrics"
	"BreakoutScanner/internal/model"
	"BreakoutScanner/internal/notifier"
	"BreakoutScanner/internal/recorder"
	"BreakoutScanner/internal/scheduler"
)

var cfgPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("scanner failed")
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scanner",
		Short:         "Volume breakout scanner and trade simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultPath, "path to config file")
	root.AddCommand(newAnalyzeCmd(), newServeCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	ds := cfg.DataSource
	switch ds.Provider {
	case "yahoo":
		return collector.NewYahooFetcher(ds.Proxy, ds.RequestsPerSecond, ds.Timeout), nil
	case "rest":
		return collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, ds.Proxy, ds.RequestsPerSecond, ds.Timeout), nil
	case "mock":
		return &collector.MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", ds.Provider)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		tickers, start, end string
		volume, price       float64
		hold                int
		provider, csvDir    string
		maxTrades           int
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Scan tickers for volume breakouts and print the simulated trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("volume") {
				cfg.Analysis.VolumeThresholdPct = volume
			}
			if cmd.Flags().Changed("price") {
				cfg.Analysis.PriceThresholdPct = price
			}
			if cmd.Flags().Changed("hold") {
				cfg.Analysis.HoldingPeriodDays = hold
			}
			if provider != "" {
				cfg.DataSource.Provider = provider
			}
			if tickers != "" {
				cfg.Tickers = config.ParseTickers(tickers)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			if len(cfg.Tickers) == 0 {
				return fmt.Errorf("no tickers given")
			}

			now := time.Now()
			endDate, startDate := today(now), today(now).AddDate(0, 0, -cfg.Analysis.LookbackDays)
			if start != "" {
				if startDate, err = time.Parse(model.DateLayout, start); err != nil {
					return fmt.Errorf("invalid --start %q: %w", start, err)
				}
			}
			if end != "" {
				if endDate, err = time.Parse(model.DateLayout, end); err != nil {
					return fmt.Errorf("invalid --end %q: %w", end, err)
				}
			}
			if err := config.ValidateDateRange(startDate, endDate, now); err != nil {
				return err
			}

			fetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			col := collector.NewCollector(fetcher, cfg.Analysis.WarmupDays, cfg.Workers, nil)
			reports := col.AnalyzeAll(cmd.Context(), cfg.Tickers, startDate, endDate, cfg.Params())

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range reports {
				fmt.Fprintln(out, plainReport(r, maxTrades))
				if r.Err != nil {
					failed++
					continue
				}
				if csvDir != "" && !r.NoData {
					path, err := exporter.WriteFile(csvDir, r)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Results saved to %s\n\n", path)
				}
			}
			if failed == len(reports) {
				return fmt.Errorf("all %d scans failed", failed)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&tickers, "tickers", "", "comma separated symbols, e.g. AAPL,TSLA,TCS.NS")
	f.StringVar(&start, "start", "", "start date YYYY-MM-DD (default: lookback_days before today)")
	f.StringVar(&end, "end", "", "end date YYYY-MM-DD (default: today)")
	f.Float64Var(&volume, "volume", 200, "volume threshold in percent of the 20-day average")
	f.Float64Var(&price, "price", 2.0, "daily price change threshold in percent")
	f.IntVar(&hold, "hold", 10, "holding period in trading days")
	f.StringVar(&provider, "provider", "", "data provider: yahoo, rest or mock")
	f.StringVar(&csvDir, "csv-dir", "", "write <SYMBOL>_breakout_analysis.csv files into this directory")
	f.IntVar(&maxTrades, "max-trades", 0, "limit printed trades per symbol (0 = all)")
	return cmd
}

// plainReport renders a report for the terminal by stripping the Telegram markup.
func plainReport(r *model.TickerReport, maxTrades int) string {
	replacer := strings.NewReplacer("<b>", "", "</b>", "", "&lt;", "<", "&gt;", ">", "&amp;", "&", "&#34;", "\"", "&#39;", "'")
	return replacer.Replace(notifier.FormatTickerReport(r, maxTrades))
}

func today(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func newServeCmd() *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled scan, Telegram bot and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			log.Info().Msg("BreakoutScanner starting")

			fetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			log.Info().Str("provider", fetcher.Name()).Msg("data source ready")

			promReg := prometheus.NewRegistry()
			promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			col := collector.NewCollector(fetcher, cfg.Analysis.WarmupDays, cfg.Workers, metrics.NewRegistry(promReg))

			var rec recorder.Recorder
			if cfg.Database.SQLitePath != "" {
				if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
					log.Warn().Err(err).Msg("create database directory")
				}
				sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
				if err != nil {
					log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
					rec = recorder.NewNoopRecorder()
				} else {
					rec = sr
				}
			} else {
				rec = recorder.NewNoopRecorder()
			}
			defer rec.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy)
			sched := scheduler.NewScheduler(ctx, col, tn, rec, scheduler.Options{
				Tickers:      cfg.Tickers,
				Params:       cfg.Params(),
				LookbackDays: cfg.Analysis.LookbackDays,
				ExportDir:    cfg.Export.Dir,
				MaxTrades:    cfg.Telegram.MaxTrades,
			})
			if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn.Enabled() {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			} else {
				log.Warn().Msg("telegram not configured, notifications disabled")
			}

			srv := api.NewServer(cfg.HTTP.ListenAddr, col, cfg.Params(), cfg.Analysis.LookbackDays, promReg)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			if runOnStart || os.Getenv("RUN_ON_START") == "true" {
				log.Info().Msg("running scan on start")
				go sched.RunNow()
			}

			log.Info().Msg("BreakoutScanner is running, press Ctrl+C to stop")
			select {
			case <-ctx.Done():
				log.Info().Msg("shutdown signal received, stopping")
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("http shutdown")
			}
			log.Info().Msg("BreakoutScanner stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "run the scan once at startup")
	return cmd
}

