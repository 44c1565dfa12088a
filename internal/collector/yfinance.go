package collector

import (
	"context"
	"fmt"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
	"golang.org/x/time/rate"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

// YFinanceInfo implements InfoFetcher using the go-yfinance quote summary.
type YFinanceInfo struct {
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewYFinanceInfo creates an info fetcher. perSecond <= 0 disables rate limiting.
func NewYFinanceInfo(perSecond int, log zerolog.Logger) *YFinanceInfo {
	f := &YFinanceInfo{log: log.With().Str("component", "yfinance").Logger()}
	if perSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
	return f
}

func positive(v float64) null.Float {
	if v > 0 {
		return null.FloatFrom(v)
	}
	return null.Float{}
}

// nonNegative keeps a reported zero, e.g. a 0% dividend yield.
func nonNegative(v float64) null.Float {
	if v >= 0 {
		return null.FloatFrom(v)
	}
	return null.Float{}
}

func nonZero(v float64) null.Float {
	if v != 0 {
		return null.FloatFrom(v)
	}
	return null.Float{}
}

func (f *YFinanceInfo) FetchInfo(ctx context.Context, symbol string) (model.Fundamentals, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return model.Fundamentals{}, err
		}
	}
	t, err := ticker.New(symbol)
	if err != nil {
		return model.Fundamentals{}, fmt.Errorf("%w: create ticker %s: %v", apperrors.ErrFetchFailed, symbol, err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return model.Fundamentals{}, fmt.Errorf("%w: info %s: %v", apperrors.ErrFetchFailed, symbol, err)
	}
	f.log.Debug().Str("symbol", symbol).Str("name", info.LongName).Msg("info fetched")

	return model.Fundamentals{
		LongName:      info.LongName,
		ShortName:     info.ShortName,
		Currency:      info.Currency,
		Country:       info.Country,
		Sector:        info.Sector,
		Industry:      info.Industry,
		MarketCap:     positive(float64(info.MarketCap)),
		PERatio:       nonZero(info.TrailingPE),
		Beta:          nonZero(info.Beta),
		DividendYield: nonNegative(info.DividendYield),
	}, nil
}
