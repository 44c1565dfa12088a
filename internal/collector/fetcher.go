package collector

import (
	"context"
	"fmt"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

// Fetcher defines the interface for fetching price history.
type Fetcher interface {
	// FetchHistory returns the daily bars for symbol over a period such as "6y".
	FetchHistory(ctx context.Context, symbol, period string) (model.PriceSeries, error)
	// FetchLatestClose returns the most recent close of symbol within lookback (e.g. "5d").
	FetchLatestClose(ctx context.Context, symbol, lookback string) (float64, error)
	Name() string
}

// InfoFetcher returns descriptive info for a symbol. Failures are not fatal to a run.
type InfoFetcher interface {
	FetchInfo(ctx context.Context, symbol string) (model.Fundamentals, error)
}

// InfoChain tries each InfoFetcher in order and returns the first success.
type InfoChain []InfoFetcher

func (c InfoChain) FetchInfo(ctx context.Context, symbol string) (model.Fundamentals, error) {
	err := fmt.Errorf("%w: no info source for %s", apperrors.ErrFetchFailed, symbol)
	for _, f := range c {
		info, ferr := f.FetchInfo(ctx, symbol)
		if ferr == nil {
			return info, nil
		}
		err = ferr
	}
	return model.Fundamentals{}, err
}
