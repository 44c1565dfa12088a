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

	"github.com/guregu/null/v6"
	"golang.org/x/time/rate"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

// RESTFetcher implements Fetcher and InfoFetcher against a generic market data REST API.
//
//	GET {base}/api/v1/bars/daily?symbol=S&period=P  -> [{timestamp,open,high,low,close,volume}]
//	GET {base}/api/v1/info?symbol=S                 -> {name,short_name,currency,...}
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	limiter *rate.Limiter
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, perSecond int) *RESTFetcher {
	f := &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
	if perSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
	return f
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape of a bar.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type restInfo struct {
	Name          string   `json:"name"`
	ShortName     string   `json:"short_name"`
	Currency      string   `json:"currency"`
	Country       string   `json:"country"`
	Sector        string   `json:"sector"`
	Industry      string   `json:"industry"`
	MarketCap     *float64 `json:"market_cap"`
	PERatio       *float64 `json:"pe_ratio"`
	Beta          *float64 `json:"beta"`
	DividendYield *float64 `json:"dividend_yield"`
}

func (f *RESTFetcher) get(ctx context.Context, endpoint string, out any) error {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d, body: %s", apperrors.ErrFetchFailed, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", apperrors.ErrFetchFailed, err)
	}
	return nil
}

func (f *RESTFetcher) FetchHistory(ctx context.Context, symbol, period string) (model.PriceSeries, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&period=%s",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(period))
	var raw []restBar
	if err := f.get(ctx, endpoint, &raw); err != nil {
		return model.PriceSeries{}, fmt.Errorf("fetch bars %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: %s", apperrors.ErrNoHistory, symbol)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0),
			Open:   orClose(rb.Open, rb.Close),
			High:   orClose(rb.High, rb.Close),
			Low:    orClose(rb.Low, rb.Close),
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}, nil
}

// orClose substitutes the close for a price field the provider left out.
func orClose(v, c float64) float64 {
	if v == 0 {
		return c
	}
	return v
}

func (f *RESTFetcher) FetchLatestClose(ctx context.Context, symbol, lookback string) (float64, error) {
	s, err := f.FetchHistory(ctx, symbol, lookback)
	if err != nil {
		return 0, err
	}
	return s.Last().Close, nil
}

func (f *RESTFetcher) FetchInfo(ctx context.Context, symbol string) (model.Fundamentals, error) {
	endpoint := fmt.Sprintf("%s/api/v1/info?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	var ri restInfo
	if err := f.get(ctx, endpoint, &ri); err != nil {
		return model.Fundamentals{}, fmt.Errorf("fetch info %s: %w", symbol, err)
	}
	return model.Fundamentals{
		LongName:      ri.Name,
		ShortName:     ri.ShortName,
		Currency:      ri.Currency,
		Country:       ri.Country,
		Sector:        ri.Sector,
		Industry:      ri.Industry,
		MarketCap:     null.FloatFromPtr(ri.MarketCap),
		PERatio:       null.FloatFromPtr(ri.PERatio),
		Beta:          null.FloatFromPtr(ri.Beta),
		DividendYield: null.FloatFromPtr(ri.DividendYield),
	}, nil
}
