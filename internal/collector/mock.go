package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without fixed data get generated bars around Price.
type MockFetcher struct {
	Price  float64
	Series map[string]model.PriceSeries
	Infos  map[string]model.Fundamentals
	Quotes map[string]float64
	Errors map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) record(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
}

// Calls returns how many times symbol was requested.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func (m *MockFetcher) FetchHistory(_ context.Context, symbol, _ string) (model.PriceSeries, error) {
	m.record(symbol)
	if err := m.Errors[symbol]; err != nil {
		return model.PriceSeries{}, err
	}
	if s, ok := m.Series[symbol]; ok {
		return s, nil
	}
	if m.Price <= 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: %s", apperrors.ErrNoHistory, symbol)
	}
	return model.PriceSeries{
		Symbol:    symbol,
		Currency:  "USD",
		Bars:      generateMockBars(m.Price, 400),
		FetchedAt: time.Now(),
	}, nil
}

func (m *MockFetcher) FetchLatestClose(_ context.Context, symbol, _ string) (float64, error) {
	m.record(symbol)
	if err := m.Errors[symbol]; err != nil {
		return 0, err
	}
	if q, ok := m.Quotes[symbol]; ok {
		return q, nil
	}
	return 0, fmt.Errorf("%w: %s", apperrors.ErrNoHistory, symbol)
}

func (m *MockFetcher) FetchInfo(_ context.Context, symbol string) (model.Fundamentals, error) {
	if info, ok := m.Infos[symbol]; ok {
		return info, nil
	}
	return model.Fundamentals{}, fmt.Errorf("%w: no info for %s", apperrors.ErrFetchFailed, symbol)
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   today.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
