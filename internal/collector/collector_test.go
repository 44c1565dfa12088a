package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/fx"
	"StockAnalyzer/internal/model"
)

func series(symbol, cur string, start time.Time, closes ...float64) model.PriceSeries {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return model.PriceSeries{Symbol: symbol, Currency: cur, Bars: bars}
}

func newTestCollector(m *MockFetcher, workers int) *Collector {
	norm := fx.NewNormalizer(m, "EUR", "5d", zerolog.Nop())
	return NewCollector(m, m, norm, "6y", workers, zerolog.Nop())
}

var start = time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

func TestCollectKeepsOrderAndContainsFailures(t *testing.T) {
	for _, workers := range []int{1, 4} {
		m := &MockFetcher{
			Series: map[string]model.PriceSeries{
				"A": series("A", "USD", start, 10, 11, 12, 13, 14, 15, 16, 17),
				"C": series("C", "EUR", start, 20, 21, 22, 23, 24, 25, 26, 27),
			},
			Errors: map[string]error{"B": errors.New("boom")},
			Quotes: map[string]float64{"USDEUR=X": 0.9},
		}
		c := newTestCollector(m, workers)
		batch, err := c.Collect(context.Background(), []model.TickerEntry{
			{Symbol: "A"}, {Symbol: "B"}, {Symbol: "C"},
		})
		require.NoError(t, err)
		require.Len(t, batch.Securities, 2)
		assert.Equal(t, "A", batch.Securities[0].Symbol)
		assert.Equal(t, "C", batch.Securities[1].Symbol)
		require.Len(t, batch.Failures, 1)
		assert.Equal(t, "B", batch.Failures[0].Symbol)
		assert.Contains(t, batch.Failures[0].Error, "boom")

		assert.Equal(t, 0.9, batch.Securities[0].FxRate)
		assert.Equal(t, 1.0, batch.Securities[1].FxRate)
		assert.Equal(t, 1, m.Calls("USDEUR=X"))
	}
}

func TestCollectEmptyHistoryIsFailure(t *testing.T) {
	m := &MockFetcher{
		Series: map[string]model.PriceSeries{
			"A":     series("A", "EUR", start, 10, 11),
			"EMPTY": {Symbol: "EMPTY"},
		},
	}
	batch, err := newTestCollector(m, 1).Collect(context.Background(), []model.TickerEntry{{Symbol: "EMPTY"}, {Symbol: "A"}})
	require.NoError(t, err)
	require.Len(t, batch.Failures, 1)
	assert.Equal(t, "EMPTY", batch.Failures[0].Symbol)
}

func TestCollectAllFailed(t *testing.T) {
	m := &MockFetcher{Errors: map[string]error{"X": errors.New("down")}}
	batch, err := newTestCollector(m, 1).Collect(context.Background(), []model.TickerEntry{{Symbol: "X"}})
	assert.ErrorIs(t, err, apperrors.ErrNoSecurities)
	require.NotNil(t, batch)
	assert.Len(t, batch.Failures, 1)
}

func TestCollectNoEntries(t *testing.T) {
	_, err := newTestCollector(&MockFetcher{}, 1).Collect(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrNoTickers)
}

func TestCollectMetrics(t *testing.T) {
	m := &MockFetcher{
		Series: map[string]model.PriceSeries{
			"AAA": series("AAA", "usd", start, 100, 101, 102, 103, 104, 105, 106, 110),
		},
		Infos: map[string]model.Fundamentals{
			"AAA": {ShortName: "Triple A", Country: "United States", Sector: "Technology", PERatio: null.FloatFrom(21.5)},
		},
		Quotes: map[string]float64{"USDEUR=X": 0.5},
	}
	beforeFirstBar := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	batch, err := newTestCollector(m, 1).Collect(context.Background(), []model.TickerEntry{
		{Symbol: "AAA", Shares: null.FloatFrom(10), BuyDate: null.TimeFrom(beforeFirstBar)},
	})
	require.NoError(t, err)
	require.Len(t, batch.Securities, 1)
	s := batch.Securities[0]

	assert.Equal(t, "Triple A", s.Name)
	assert.Equal(t, "USD", s.Currency)
	assert.Equal(t, 110.0, s.CurrentPrice)
	assert.InDelta(t, 0.10, s.Return("1W").Float64, 1e-12)
	assert.False(t, s.Return("1Y").Valid)
	assert.Equal(t, 111.0, s.Week52High.Float64)
	assert.Equal(t, 99.0, s.Week52Low.Float64)
	assert.Equal(t, 100.0, s.BuyPrice.Float64)
	assert.True(t, s.BuyDateAdjusted)
	assert.Equal(t, 21.5, s.PERatio.Float64)
	assert.False(t, s.MarketCap.Valid)
	assert.Equal(t, "United States", s.Country)

	assert.Equal(t, "1100", s.TotalValue().Decimal.String())
	assert.Equal(t, "550", s.ReportingValue().Decimal.String())
	require.Len(t, batch.Notes, 1)
	assert.Contains(t, batch.Notes[0], "not a trading day")
}

func TestCollectBuyDateBeyondHistory(t *testing.T) {
	m := &MockFetcher{Series: map[string]model.PriceSeries{"AAA": series("AAA", "EUR", start, 10, 11)}}
	late := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	batch, err := newTestCollector(m, 1).Collect(context.Background(), []model.TickerEntry{
		{Symbol: "AAA", Shares: null.FloatFrom(1), BuyDate: null.TimeFrom(late)},
	})
	require.NoError(t, err)
	require.Len(t, batch.Securities, 1)
	assert.False(t, batch.Securities[0].BuyPrice.Valid)
	assert.Empty(t, batch.Failures)
	require.Len(t, batch.Notes, 1)
	assert.Contains(t, batch.Notes[0], "beyond available history")
}

func TestDisplayNamePrecedence(t *testing.T) {
	assert.Equal(t, "Long", displayName(model.Fundamentals{LongName: "Long", ShortName: "Short"}, "SYM"))
	assert.Equal(t, "Short", displayName(model.Fundamentals{ShortName: "Short"}, "SYM"))
	assert.Equal(t, "SYM", displayName(model.Fundamentals{}, "SYM"))
}

func TestCurrencyFallback(t *testing.T) {
	assert.Equal(t, "GBP", currency(model.Fundamentals{Currency: "GBP"}, model.PriceSeries{Currency: "USD"}))
	assert.Equal(t, "SEK", currency(model.Fundamentals{}, model.PriceSeries{Currency: "sek"}))
	assert.Equal(t, DefaultCurrency, currency(model.Fundamentals{}, model.PriceSeries{}))
	assert.Equal(t, "GBp", currency(model.Fundamentals{Currency: "GBp"}, model.PriceSeries{Currency: "GBP"}))
	assert.Equal(t, "ZAc", currency(model.Fundamentals{}, model.PriceSeries{Currency: "ZAc"}))
}

func TestCollectPenceQuotedHolding(t *testing.T) {
	m := &MockFetcher{
		Series: map[string]model.PriceSeries{
			"LLOY.L": series("LLOY.L", "GBp", start, 70, 71, 72),
			"BP.L":   series("BP.L", "GBP", start, 4, 5),
		},
		Infos:  map[string]model.Fundamentals{"LLOY.L": {LongName: "Lloyds Banking Group", Currency: "GBp"}},
		Quotes: map[string]float64{"GBPEUR=X": 1.17},
	}
	batch, err := newTestCollector(m, 2).Collect(context.Background(), []model.TickerEntry{
		{Symbol: "LLOY.L", Shares: null.FloatFrom(100)},
		{Symbol: "BP.L", Shares: null.FloatFrom(10)},
	})
	require.NoError(t, err)
	require.Len(t, batch.Securities, 2)
	assert.Empty(t, batch.Notes)

	pence := batch.Securities[0]
	assert.Equal(t, "GBp", pence.Currency)
	assert.InDelta(t, 0.0117, pence.FxRate, 1e-12)
	assert.Equal(t, "7200", pence.TotalValue().Decimal.String())
	assert.InDelta(t, 84.24, pence.ReportingValue().Decimal.InexactFloat64(), 1e-9)

	pounds := batch.Securities[1]
	assert.Equal(t, "GBP", pounds.Currency)
	assert.Equal(t, 1.17, pounds.FxRate)
	assert.Zero(t, m.Calls("GBpEUR=X"))
}

func TestInfoChain(t *testing.T) {
	empty := &MockFetcher{}
	full := &MockFetcher{Infos: map[string]model.Fundamentals{"AAA": {LongName: "Triple A Corp"}}}

	info, err := InfoChain{empty, full}.FetchInfo(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, "Triple A Corp", info.LongName)

	_, err = InfoChain{empty}.FetchInfo(context.Background(), "AAA")
	assert.ErrorIs(t, err, apperrors.ErrFetchFailed)

	_, err = InfoChain{}.FetchInfo(context.Background(), "AAA")
	assert.ErrorIs(t, err, apperrors.ErrFetchFailed)
}

func TestFundamentalFieldMapping(t *testing.T) {
	pe := nonZero(-12.5)
	assert.True(t, pe.Valid)
	assert.Equal(t, -12.5, pe.Float64)
	assert.False(t, nonZero(0).Valid)

	yield := nonNegative(0)
	assert.True(t, yield.Valid)
	assert.Zero(t, yield.Float64)
	assert.Equal(t, 0.031, nonNegative(0.031).Float64)
	assert.False(t, nonNegative(-0.01).Valid)

	assert.False(t, positive(0).Valid)
}
