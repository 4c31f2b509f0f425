package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // resample.location must resolve without system zoneinfo

	"TouchSentinel/internal/calculator"
	"TouchSentinel/internal/model"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// CronParser accepts standard five-field specs with an optional leading seconds field.
var CronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// DefaultTimeframes is the scan table used when the config file sets none.
func DefaultTimeframes() []model.Timeframe {
	return []model.Timeframe{
		{Label: "Weekly", Interval: "1wk", Lookback: "5y"},
		{Label: "Daily", Interval: "1d", Lookback: "5y"},
		{Label: "4-Hour (resampled)", Interval: "1h", Lookback: "730d", Resample: 4 * time.Hour},
		{Label: "1-Hour", Interval: "1h", Lookback: "730d"},
	}
}

// Config holds all application configuration.
type Config struct {
	Monitor struct {
		TickerFile    string            `yaml:"ticker_file"`
		EMAPeriod     int               `yaml:"ema_period"`
		SleepInterval time.Duration     `yaml:"sleep_interval"`
		Cron          string            `yaml:"cron"` // overrides sleep_interval when set
		Timeframes    []model.Timeframe `yaml:"timeframes"`
	} `yaml:"monitor"`
	Resample struct {
		Location string         `yaml:"location"`
		Offset   *time.Duration `yaml:"offset"` // nil means the 1h default; "0s" anchors at midnight
	} `yaml:"resample"`
	Screener struct {
		InputCSV           string        `yaml:"input_csv"`
		Column             string        `yaml:"column"`
		OutputFile         string        `yaml:"output_file"`
		Suffix             string        `yaml:"suffix"`
		MarketCapThreshold float64       `yaml:"market_cap_threshold"`
		QueryDelay         time.Duration `yaml:"query_delay"`
	} `yaml:"screener"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
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

	// Environment variable overrides
	if v := os.Getenv("TICKER_FILE"); v != "" {
		cfg.Monitor.TickerFile = v
		cfg.Screener.OutputFile = v
	}
	if v := os.Getenv("SLEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse SLEEP_INTERVAL: %w", err)
		}
		cfg.Monitor.SleepInterval = d
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Defaults
	if cfg.Monitor.TickerFile == "" {
		cfg.Monitor.TickerFile = "eligible_stocks.txt"
	}
	if cfg.Monitor.EMAPeriod == 0 {
		cfg.Monitor.EMAPeriod = 200
	}
	if cfg.Monitor.SleepInterval == 0 {
		cfg.Monitor.SleepInterval = 30 * time.Minute
	}
	if len(cfg.Monitor.Timeframes) == 0 {
		cfg.Monitor.Timeframes = DefaultTimeframes()
	}
	if cfg.Resample.Location == "" {
		cfg.Resample.Location = "Asia/Kolkata"
	}
	if cfg.Resample.Offset == nil {
		offset := time.Hour
		cfg.Resample.Offset = &offset
	}
	if cfg.Screener.InputCSV == "" {
		cfg.Screener.InputCSV = "Ticker_List_NSE_India.csv"
	}
	if cfg.Screener.Column == "" {
		cfg.Screener.Column = "Yahoo_Equivalent_Code"
	}
	if cfg.Screener.OutputFile == "" {
		cfg.Screener.OutputFile = cfg.Monitor.TickerFile
	}
	if cfg.Screener.Suffix == "" {
		cfg.Screener.Suffix = ".NS"
	}
	if cfg.Screener.MarketCapThreshold == 0 {
		cfg.Screener.MarketCapThreshold = 20000 * 1e7 // 20,000 crore
	}
	if cfg.Screener.QueryDelay == 0 {
		cfg.Screener.QueryDelay = 100 * time.Millisecond
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/touch_sentinel.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Monitor.EMAPeriod <= 0 {
		return fmt.Errorf("monitor.ema_period must be positive")
	}
	if c.Monitor.Cron == "" && c.Monitor.SleepInterval <= 0 {
		return fmt.Errorf("monitor.sleep_interval must be positive")
	}
	if c.Monitor.Cron != "" {
		if _, err := CronParser.Parse(c.Monitor.Cron); err != nil {
			return fmt.Errorf("monitor.cron: %w", err)
		}
	}
	for i, tf := range c.Monitor.Timeframes {
		if tf.Label == "" || tf.Interval == "" || tf.Lookback == "" {
			return fmt.Errorf("monitor.timeframes[%d]: label, interval and lookback are required", i)
		}
		if tf.Resample < 0 {
			return fmt.Errorf("monitor.timeframes[%d]: resample must not be negative", i)
		}
	}
	if _, err := time.LoadLocation(c.Resample.Location); err != nil {
		return fmt.Errorf("resample.location: %w", err)
	}
	if c.Screener.MarketCapThreshold <= 0 {
		return fmt.Errorf("screener.market_cap_threshold must be positive")
	}
	if c.Screener.QueryDelay < 0 {
		return fmt.Errorf("screener.query_delay must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Anchor returns the resampling bucket anchor.
func (c *Config) Anchor() (calculator.Anchor, error) {
	loc, err := time.LoadLocation(c.Resample.Location)
	if err != nil {
		return calculator.Anchor{}, fmt.Errorf("resample.location: %w", err)
	}
	var offset time.Duration
	if c.Resample.Offset != nil {
		offset = *c.Resample.Offset
	}
	return calculator.Anchor{Location: loc, Offset: offset}, nil
}

// Schedule returns when the monitor wakes after a finished cycle.
func (c *Config) Schedule() (cron.Schedule, error) {
	if c.Monitor.Cron != "" {
		return CronParser.Parse(c.Monitor.Cron)
	}
	return cron.Every(c.Monitor.SleepInterval), nil
}
