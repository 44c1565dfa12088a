package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

// DefaultYahooBaseURL is the Yahoo Finance chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
// Its chart responses also carry the names and currency used as an info fallback.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps input symbol to Yahoo ticker

	limiter *rate.Limiter
	log     zerolog.Logger
}

// YahooOption configures a YahooFetcher.
type YahooOption func(*YahooFetcher)

// WithBaseURL points the fetcher at another host.
func WithBaseURL(u string) YahooOption {
	return func(f *YahooFetcher) { f.BaseURL = u }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond int) YahooOption {
	return func(f *YahooFetcher) {
		if perSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(f *YahooFetcher) { f.Client = c }
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string, log zerolog.Logger, opts ...YahooOption) *YahooFetcher {
	f := &YahooFetcher{
		BaseURL: DefaultYahooBaseURL,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		log: log.With().Str("component", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string `json:"currency"`
				LongName             string `json:"longName"`
				ShortName            string `json:"shortName"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// chartResult is a decoded chart response.
type chartResult struct {
	series    model.PriceSeries
	longName  string
	shortName string
}

func at(vals []*float64, i int) float64 {
	return atOr(vals, i, 0)
}

// atOr returns vals[i], or def when the value is missing or null.
func atOr(vals []*float64, i int, def float64) float64 {
	if i >= len(vals) || vals[i] == nil {
		return def
	}
	return *vals[i]
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) (*chartResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo %s: %v", apperrors.ErrFetchFailed, symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo read body: %v", apperrors.ErrFetchFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: yahoo %s: status %d", apperrors.ErrFetchFailed, symbol, resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%w: yahoo decode: %v", apperrors.ErrFetchFailed, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error: %s", apperrors.ErrFetchFailed, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNoHistory, symbol)
	}

	result := chart.Chart.Result[0]
	loc := time.UTC
	if tz := result.Meta.ExchangeTimezoneName; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			f.log.Debug().Str("tz", tz).Err(err).Msg("unknown exchange timezone")
		}
	}

	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).In(loc),
			Open:   atOr(quote.Open, i, c),
			High:   atOr(quote.High, i, c),
			Low:    atOr(quote.Low, i, c),
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNoHistory, symbol)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return &chartResult{
		series: model.PriceSeries{
			Symbol:    symbol,
			Currency:  result.Meta.Currency,
			Bars:      bars,
			FetchedAt: time.Now(),
		},
		longName:  result.Meta.LongName,
		shortName: result.Meta.ShortName,
	}, nil
}

// FetchHistory returns daily bars in the exchange's local timezone.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol, period string) (model.PriceSeries, error) {
	res, err := f.fetchChart(ctx, symbol, "1d", period)
	if err != nil {
		return model.PriceSeries{}, err
	}
	f.log.Debug().Str("symbol", symbol).Int("bars", len(res.series.Bars)).Msg("history fetched")
	return res.series, nil
}

func (f *YahooFetcher) FetchLatestClose(ctx context.Context, symbol, lookback string) (float64, error) {
	res, err := f.fetchChart(ctx, symbol, "1d", lookback)
	if err != nil {
		return 0, err
	}
	return res.series.Last().Close, nil
}

// FetchInfo returns the names and currency carried by the chart metadata.
func (f *YahooFetcher) FetchInfo(ctx context.Context, symbol string) (model.Fundamentals, error) {
	res, err := f.fetchChart(ctx, symbol, "1d", "5d")
	if err != nil {
		return model.Fundamentals{}, err
	}
	return model.Fundamentals{
		LongName:  res.longName,
		ShortName: res.shortName,
		Currency:  res.series.Currency,
	}, nil
}
