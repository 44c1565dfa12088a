package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"StockAnalyzer/internal/collector"
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/fx"
	"StockAnalyzer/internal/logger"
	"StockAnalyzer/internal/notifier"
	"StockAnalyzer/internal/pipeline"
	"StockAnalyzer/internal/publish"
	"StockAnalyzer/internal/recorder"
	"StockAnalyzer/internal/report"
	"StockAnalyzer/internal/summary"
)

// common holds the flags shared by every command.
type common struct {
	configPath string
	currency   string
	workers    int
	verbose    bool
}

func (c *common) setFlags(f *flag.FlagSet) {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	f.StringVar(&c.configPath, "config", def, "Path to the YAML config file.")
	f.StringVar(&c.currency, "currency", "", "Reporting currency, overrides the config (e.g. EUR, USD).")
	f.IntVar(&c.workers, "workers", 0, "Number of securities fetched concurrently, overrides the config.")
	f.BoolVar(&c.verbose, "v", false, "Debug logging.")
}

// load reads and validates the configuration and builds the logger.
func (c *common) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if c.currency != "" {
		cfg.ReportingCurrency = c.currency
	}
	if c.workers > 0 {
		cfg.Workers = c.workers
	}
	if c.verbose {
		cfg.Log.Level = "debug"
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("config validation: %w", err)
	}
	return cfg, log, nil
}

// app is the wired object graph of one process.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	runner   *pipeline.Runner
	recorder recorder.Recorder
	notifier notifier.Notifier
}

func (a *app) Close() error { return a.recorder.Close() }

func newFetchers(cfg *config.Config, log zerolog.Logger) (collector.Fetcher, collector.InfoFetcher) {
	switch cfg.DataSource.Provider {
	case config.ProviderREST:
		f := collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RateLimit)
		return f, f
	case config.ProviderMock:
		m := &collector.MockFetcher{Price: 100, Quotes: map[string]float64{}}
		return m, m
	default:
		yahoo := collector.NewYahooFetcher(cfg.Proxy, log, collector.WithRateLimit(cfg.DataSource.RateLimit))
		return yahoo, collector.InfoChain{collector.NewYFinanceInfo(cfg.DataSource.RateLimit, log), yahoo}
	}
}

func newRecorder(cfg *config.Config, log zerolog.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
		log.Warn().Err(err).Msg("create database dir failed, using noop recorder")
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

// newApp wires the pipeline. outputDir defaults to the directory of the tickers file.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, tickersFile string, noAI bool) (*app, error) {
	fetcher, info := newFetchers(cfg, log)
	log.Info().Str("data_source", fetcher.Name()).Str("reporting_currency", cfg.ReportingCurrency).Msg("starting")

	norm := fx.NewNormalizer(fetcher, cfg.ReportingCurrency, cfg.FxLookback, log)
	col := collector.NewCollector(fetcher, info, norm, cfg.HistoryPeriod, cfg.Workers, log)

	var gen summary.Generator
	if cfg.AIEnabled() && !noAI {
		g, err := summary.NewGeminiGenerator(ctx, cfg.AI.APIKey, cfg.AI.Model, log)
		if err != nil {
			log.Warn().Err(err).Msg("AI analysis disabled")
		} else {
			gen = g
		}
	}

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(tickersFile)
	}

	var pub publish.Publisher = publish.NoopPublisher{}
	if cfg.PublishEnabled() {
		p, err := publish.NewS3Publisher(ctx, cfg.Publish.S3Bucket, cfg.Publish.S3Prefix, cfg.Publish.Region, log)
		if err != nil {
			return nil, err
		}
		pub = p
	}

	var n notifier.Notifier = notifier.NoopNotifier{}
	if cfg.TelegramEnabled() {
		n = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
	}

	rec := newRecorder(cfg, log)
	runner := pipeline.NewRunner(pipeline.Deps{
		Collector:  col,
		Writer:     report.NewWriter(outDir, cfg.Formats, log),
		Summarizer: summary.NewSummarizer(gen, log),
		Recorder:   rec,
		Publisher:  pub,
		Notifier:   n,
	}, log)

	return &app{cfg: cfg, log: log, runner: runner, recorder: rec, notifier: n}, nil
}
