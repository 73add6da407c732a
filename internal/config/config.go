package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"BreakoutScanner/internal/model"
)

// Lower bounds accepted for user-supplied scan parameters.
const (
	MinVolumeThresholdPct = 50
	MinPriceThresholdPct  = 0.1
	MinHoldingPeriodDays  = 1
)

// Config holds all application configuration.
type Config struct {
	Tickers  []string `yaml:"tickers"`
	Analysis struct {
		model.Params `yaml:",inline"`

		LookbackDays int `yaml:"lookback_days"`
		WarmupDays   int `yaml:"warmup_days"` // calendar days fetched before the window start
	} `yaml:"analysis"`
	DataSource struct {
		Provider          string        `yaml:"provider"` // yahoo, rest or mock
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		Proxy             string        `yaml:"proxy"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Timeout           time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Workers  int `yaml:"workers"`
	Telegram struct {
		BotToken  string `yaml:"bot_token"`
		ChatID    string `yaml:"chat_id"`
		MaxTrades int    `yaml:"max_trades"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"http"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
	LogLevel string `yaml:"log_level"`
}

// Load reads .env (if present), then the YAML file, then environment overrides, then defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TICKERS"); v != "" {
		c.Tickers = ParseTickers(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.DataSource.Proxy = v
	}
	if v := os.Getenv("VOLUME_THRESHOLD_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Analysis.VolumeThresholdPct = f
		}
	}
	if v := os.Getenv("PRICE_THRESHOLD_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Analysis.PriceThresholdPct = f
		}
	}
	if v := os.Getenv("HOLDING_PERIOD_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.HoldingPeriodDays = n
		}
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		c.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_LISTEN_ADDR"); v != "" {
		c.HTTP.ListenAddr = v
	}
	if v := os.Getenv("EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) applyDefaults() {
	def := model.DefaultParams()
	if c.Analysis.VolumeThresholdPct == 0 {
		c.Analysis.VolumeThresholdPct = def.VolumeThresholdPct
	}
	if c.Analysis.PriceThresholdPct == 0 {
		c.Analysis.PriceThresholdPct = def.PriceThresholdPct
	}
	if c.Analysis.HoldingPeriodDays == 0 {
		c.Analysis.HoldingPeriodDays = def.HoldingPeriodDays
	}
	if c.Analysis.LookbackDays == 0 {
		c.Analysis.LookbackDays = 365
	}
	if c.Analysis.WarmupDays == 0 {
		c.Analysis.WarmupDays = 30
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 30 22 * * 1-5"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.Telegram.MaxTrades == 0 {
		c.Telegram.MaxTrades = 5
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/breakout_scanner.db"
	}
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = "127.0.0.1:8080"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "exports"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Tickers = ParseTickers(strings.Join(c.Tickers, ","))
}

// Params returns the configured scan parameters.
func (c *Config) Params() model.Params {
	return c.Analysis.Params
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if err := ValidateParams(c.Params()); err != nil {
		return err
	}
	if c.Analysis.LookbackDays < 1 {
		return fmt.Errorf("analysis.lookback_days must be positive")
	}
	if c.Analysis.WarmupDays < 0 {
		return fmt.Errorf("analysis.warmup_days must not be negative")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	return nil
}

// ValidateParams applies the user-facing lower bounds to scan parameters.
func ValidateParams(p model.Params) error {
	if p.VolumeThresholdPct < MinVolumeThresholdPct {
		return fmt.Errorf("volume threshold must be at least %d%%, got %g", MinVolumeThresholdPct, p.VolumeThresholdPct)
	}
	if p.PriceThresholdPct < MinPriceThresholdPct {
		return fmt.Errorf("price threshold must be at least %g%%, got %g", MinPriceThresholdPct, p.PriceThresholdPct)
	}
	if p.HoldingPeriodDays < MinHoldingPeriodDays {
		return fmt.Errorf("holding period must be at least %d day, got %d", MinHoldingPeriodDays, p.HoldingPeriodDays)
	}
	return nil
}

// ParseTickers splits a comma separated list, upper-cases and trims each entry,
// and drops empties and duplicates.
func ParseTickers(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(s, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ValidateDateRange requires start before end and end not after today.
func ValidateDateRange(start, end, now time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("start date %s must be before end date %s",
			start.Format(model.DateLayout), end.Format(model.DateLayout))
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if end.After(today) {
		return fmt.Errorf("end date %s cannot be in the future", end.Format(model.DateLayout))
	}
	return nil
}
