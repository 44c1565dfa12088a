package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/calculator"
)

const chartBody = `{"chart":{"result":[{
  "meta":{"currency":"USD","longName":"Apple Inc.","shortName":"Apple","exchangeTimezoneName":"America/New_York"},
  "timestamp":[1704292200,1704205800,1704378600],
  "indicators":{"quote":[{
    "open":[185.0,187.0,null],
    "high":[186.0,188.0,null],
    "low":[183.0,184.0,null],
    "close":[184.25,185.64,null],
    "volume":[58414500,82488700,null]}]}}],"error":null}}`

func TestYahooFetchHistory(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", zerolog.Nop(), WithBaseURL(srv.URL), WithRateLimit(100))
	s, err := f.FetchHistory(context.Background(), "AAPL", "6y")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Contains(t, gotQuery, "range=6y")
	assert.Equal(t, "USD", s.Currency)
	require.Len(t, s.Bars, 2) // null bar skipped
	assert.True(t, s.Bars[0].Time.Before(s.Bars[1].Time))
	assert.Equal(t, 185.64, s.Bars[0].Close)
	assert.Equal(t, 188.0, s.Bars[0].High)
	assert.Equal(t, "America/New_York", s.Bars[0].Time.Location().String())

	info, err := f.FetchInfo(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", info.LongName)
	assert.Equal(t, "Apple", info.ShortName)
}

func TestYahooNullHighLowFallsBackToClose(t *testing.T) {
	const body = `{"chart":{"result":[{
  "meta":{"currency":"USD","exchangeTimezoneName":"America/New_York"},
  "timestamp":[1704205800,1704292200,1704378600],
  "indicators":{"quote":[{
    "open":[100.0,null,103.0],
    "high":[101.0,null,104.0],
    "low":[99.0,null,102.0],
    "close":[100.5,101.5,103.5],
    "volume":[1000,null,1200]}]}}],"error":null}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", zerolog.Nop(), WithBaseURL(srv.URL))
	s, err := f.FetchHistory(context.Background(), "AAPL", "6y")
	require.NoError(t, err)
	require.Len(t, s.Bars, 3)
	assert.Equal(t, 101.5, s.Bars[1].Open)
	assert.Equal(t, 101.5, s.Bars[1].High)
	assert.Equal(t, 101.5, s.Bars[1].Low)
	assert.Zero(t, s.Bars[1].Volume)

	high, low, err := calculator.Calculate52WeekRange(s.Bars)
	require.NoError(t, err)
	assert.Equal(t, 104.0, high)
	assert.Equal(t, 99.0, low)
}

func TestYahooSymbolMap(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", zerolog.Nop(), WithBaseURL(srv.URL))
	_, err := f.FetchLatestClose(context.Background(), "SPX500", "5d")
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
}

func TestYahooErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"http status", http.StatusNotFound, `{}`, apperrors.ErrFetchFailed},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, apperrors.ErrFetchFailed},
		{"no rows", http.StatusOK, `{"chart":{"result":[{"timestamp":[]}],"error":null}}`, apperrors.ErrNoHistory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewYahooFetcher("", zerolog.Nop(), WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: time.Second}))
			_, err := f.FetchHistory(context.Background(), "NOPE", "6y")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/bars/daily":
			_, _ = w.Write([]byte(`[{"timestamp":1704378600,"close":12},{"timestamp":1704292200,"close":10}]`))
		case "/api/v1/info":
			_, _ = w.Write([]byte(`{"name":"Foo Corp","currency":"EUR","sector":"Energy","beta":1.2}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "", 0)
	s, err := f.FetchHistory(context.Background(), "FOO", "6y")
	require.NoError(t, err)
	require.Len(t, s.Bars, 2)
	assert.Equal(t, 10.0, s.Bars[0].Close)
	assert.Equal(t, 10.0, s.Bars[0].Low)
	assert.Equal(t, 12.0, s.Bars[1].High)

	last, err := f.FetchLatestClose(context.Background(), "FOO", "5d")
	require.NoError(t, err)
	assert.Equal(t, 12.0, last)

	info, err := f.FetchInfo(context.Background(), "FOO")
	require.NoError(t, err)
	assert.Equal(t, "Foo Corp", info.LongName)
	assert.Equal(t, 1.2, info.Beta.Float64)
	assert.False(t, info.PERatio.Valid)
}
