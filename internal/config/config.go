package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Data source providers.
const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
	ProviderMock  = "mock" // generated prices, no network
)

// Config holds all application configuration.
type Config struct {
	ReportingCurrency string   `yaml:"reporting_currency"`
	HistoryPeriod     string   `yaml:"history_period"`
	FxLookback        string   `yaml:"fx_lookback"`
	Workers           int      `yaml:"workers"`
	OutputDir         string   `yaml:"output_dir"`
	Formats           []string `yaml:"formats"`
	DataSource        struct {
		Provider  string `yaml:"provider"`
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		RateLimit int    `yaml:"rate_limit"` // requests per second, 0 = unlimited
	} `yaml:"data_source"`
	AI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"ai"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		ReportCron string `yaml:"report_cron"`
		PollCron   string `yaml:"poll_cron"`
	} `yaml:"schedule"`
	Watch struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"watch"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Publish struct {
		S3Bucket string `yaml:"s3_bucket"`
		S3Prefix string `yaml:"s3_prefix"`
		Region   string `yaml:"region"`
	} `yaml:"publish"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env, then the YAML file at path, then applies environment overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

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
	str := map[string]*string{
		"GEMINI_API_KEY":     &c.AI.APIKey,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"REPORTING_CURRENCY": &c.ReportingCurrency,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"HTTPS_PROXY":        &c.Proxy,
		"LOG_LEVEL":          &c.Log.Level,
		"REPORT_CRON":        &c.Schedule.ReportCron,
		"S3_BUCKET":          &c.Publish.S3Bucket,
		"DATA_BASE_URL":      &c.DataSource.BaseURL,
		"DATA_API_KEY":       &c.DataSource.APIKey,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

func (c *Config) applyDefaults() {
	c.ReportingCurrency = strings.ToUpper(strings.TrimSpace(c.ReportingCurrency))
	if c.ReportingCurrency == "" {
		c.ReportingCurrency = "EUR"
	}
	if c.HistoryPeriod == "" {
		c.HistoryPeriod = "6y"
	}
	if c.FxLookback == "" {
		c.FxLookback = "5d"
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{"xlsx", "csv", "markdown"}
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = ProviderREST
		}
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 30 22 * * 1-5"
	}
	if c.Schedule.PollCron == "" {
		c.Schedule.PollCron = "0 * * * * *"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stock_analyzer.db"
	}
	if c.Watch.StateFile == "" {
		c.Watch.StateFile = "data/watch_state.json"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !currencyCode.MatchString(c.ReportingCurrency) {
		return fmt.Errorf("reporting_currency %q is not a 3-letter currency code", c.ReportingCurrency)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the %s provider", ProviderREST)
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.DataSource.RateLimit < 0 {
		return fmt.Errorf("data_source.rate_limit must not be negative")
	}
	for _, f := range c.Formats {
		switch f {
		case "xlsx", "csv", "markdown":
		default:
			return fmt.Errorf("unknown output format %q", f)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether run summaries are sent to Telegram.
func (c *Config) TelegramEnabled() bool { return c.Telegram.BotToken != "" }

// AIEnabled reports whether a narrative summary is generated.
func (c *Config) AIEnabled() bool { return c.AI.APIKey != "" }

// PublishEnabled reports whether reports are uploaded to S3.
func (c *Config) PublishEnabled() bool { return c.Publish.S3Bucket != "" }
