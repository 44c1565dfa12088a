package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/calculator"
	"StockAnalyzer/internal/fx"
	"StockAnalyzer/internal/model"
)

// DefaultCurrency is assumed when neither the info nor the price feed reports one.
const DefaultCurrency = "USD"

// Collector orchestrates data fetching and metric computation for a list of tickers.
type Collector struct {
	Fetcher Fetcher
	Info    InfoFetcher // optional
	FX      *fx.Normalizer
	Period  string
	Workers int

	log zerolog.Logger
}

// NewCollector creates a new Collector. workers < 1 means sequential.
func NewCollector(fetcher Fetcher, info InfoFetcher, norm *fx.Normalizer, period string, workers int, log zerolog.Logger) *Collector {
	if workers < 1 {
		workers = 1
	}
	if period == "" {
		period = "6y"
	}
	return &Collector{
		Fetcher: fetcher,
		Info:    info,
		FX:      norm,
		Period:  period,
		Workers: workers,
		log:     log.With().Str("component", "collector").Logger(),
	}
}

type outcome struct {
	metrics *model.SecurityMetrics
	failure *model.FailureRecord
	notes   []string
}

// Collect analyzes every entry independently, then resolves FX rates once for all
// currencies seen. Successes and failures keep the input order. ErrNoSecurities is
// returned together with the batch when every entry failed.
func (c *Collector) Collect(ctx context.Context, entries []model.TickerEntry) (*model.Batch, error) {
	if len(entries) == 0 {
		return nil, apperrors.ErrNoTickers
	}

	results := make([]outcome, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)
	for i, entry := range entries {
		g.Go(func() error {
			m, notes, err := c.analyze(gctx, entry)
			if err != nil {
				c.log.Warn().Str("symbol", entry.Symbol).Err(err).Msg("security failed")
				results[i] = outcome{failure: &model.FailureRecord{
					Symbol:  entry.Symbol,
					Error:   err.Error(),
					Shares:  entry.Shares,
					BuyDate: entry.BuyDate,
				}}
				return nil
			}
			results[i] = outcome{metrics: m, notes: notes}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &model.Batch{}
	var currencies []string
	for _, r := range results {
		if r.failure != nil {
			batch.Failures = append(batch.Failures, *r.failure)
			continue
		}
		batch.Securities = append(batch.Securities, *r.metrics)
		batch.Notes = append(batch.Notes, r.notes...)
		currencies = append(currencies, r.metrics.Currency)
	}
	c.log.Info().Int("ok", len(batch.Securities)).Int("failed", len(batch.Failures)).Msg("collection finished")

	if len(batch.Securities) == 0 {
		return batch, apperrors.ErrNoSecurities
	}

	table, warnings := c.FX.Build(ctx, currencies)
	batch.Rates = table
	batch.Notes = append(batch.Notes, warnings...)
	for i := range batch.Securities {
		batch.Securities[i].FxRate = table.Rate(batch.Securities[i].Currency)
	}
	return batch, nil
}

// analyze fetches and computes the metrics of a single security.
func (c *Collector) analyze(ctx context.Context, entry model.TickerEntry) (*model.SecurityMetrics, []string, error) {
	series, err := c.Fetcher.FetchHistory(ctx, entry.Symbol, c.Period)
	if err != nil {
		return nil, nil, err
	}
	if series.Empty() {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrNoHistory, entry.Symbol)
	}

	var info model.Fundamentals
	if c.Info != nil {
		info, err = c.Info.FetchInfo(ctx, entry.Symbol)
		if err != nil {
			c.log.Warn().Str("symbol", entry.Symbol).Err(err).Msg("info unavailable, continuing with price data only")
			info = model.Fundamentals{}
		}
	}

	series = calculator.Normalize(series)
	last := series.Last()

	m := &model.SecurityMetrics{
		Symbol:        entry.Symbol,
		Name:          displayName(info, entry.Symbol),
		Currency:      currency(info, series),
		CurrentPrice:  last.Close,
		AsOf:          last.Time,
		Returns:       calculator.Returns(series.Bars),
		Shares:        entry.Shares,
		BuyDate:       entry.BuyDate,
		FxRate:        1.0,
		Country:       info.Country,
		Sector:        info.Sector,
		Industry:      info.Industry,
		MarketCap:     info.MarketCap,
		PERatio:       info.PERatio,
		Beta:          info.Beta,
		DividendYield: info.DividendYield,
	}
	if high, low, err := calculator.Calculate52WeekRange(series.Bars); err == nil {
		m.Week52High = null.FloatFrom(high)
		m.Week52Low = null.FloatFrom(low)
	}

	var notes []string
	if entry.BuyDate.Valid {
		want := entry.BuyDate.Time.Format("2006-01-02")
		res, err := calculator.ResolveBuyPrice(series.Bars, entry.BuyDate.Time)
		switch {
		case errors.Is(err, apperrors.ErrBuyDateBeyondHistory):
			notes = append(notes, fmt.Sprintf("%s: buy date %s is beyond available history", entry.Symbol, want))
		case err != nil:
			notes = append(notes, fmt.Sprintf("%s: buy price unavailable: %v", entry.Symbol, err))
		default:
			m.BuyPrice = null.FloatFrom(res.Price)
			m.BuyTradeDate = null.TimeFrom(res.Date)
			m.BuyDateAdjusted = res.Substituted
			if res.Substituted {
				notes = append(notes, fmt.Sprintf("%s: %s was not a trading day, using %s",
					entry.Symbol, want, res.Date.Format("2006-01-02")))
			}
		}
	}
	return m, notes, nil
}

func displayName(info model.Fundamentals, symbol string) string {
	if n := strings.TrimSpace(info.LongName); n != "" {
		return n
	}
	if n := strings.TrimSpace(info.ShortName); n != "" {
		return n
	}
	return symbol
}

func currency(info model.Fundamentals, series model.PriceSeries) string {
	if c := fx.Canonical(info.Currency); c != "" {
		return c
	}
	if c := fx.Canonical(series.Currency); c != "" {
		return c
	}
	return DefaultCurrency
}
