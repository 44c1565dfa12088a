package calculator

import (
	"math"
	"sort"
	"time"

	"github.com/guregu/null/v6"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

// TrailingReturn computes (latest close − baseline close) / baseline close, where the
// baseline is the most recent bar at or before last bar time minus days calendar days.
// Bars must be normalized.
func TrailingReturn(bars []model.OHLCV, days int) (float64, error) {
	if len(bars) == 0 {
		return 0, apperrors.ErrNoHistory
	}
	target := bars[len(bars)-1].Time.AddDate(0, 0, -days)
	return changeSince(bars, target)
}

// YearToDateReturn measures the latest close against the final close of the prior calendar year.
func YearToDateReturn(bars []model.OHLCV) (float64, error) {
	if len(bars) == 0 {
		return 0, apperrors.ErrNoHistory
	}
	last := bars[len(bars)-1].Time
	yearStart := time.Date(last.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	// last instant of Dec 31 of the prior year
	return changeSince(bars, yearStart.Add(-time.Nanosecond))
}

// Returns computes every trailing window plus YTD. Unavailable windows stay invalid.
func Returns(bars []model.OHLCV) map[string]null.Float {
	out := make(map[string]null.Float, len(model.TrailingWindows)+1)
	for _, w := range model.TrailingWindows {
		out[w.Label] = Optional(TrailingReturn(bars, w.Days))
	}
	out[model.LabelYTD] = Optional(YearToDateReturn(bars))
	return out
}

// Optional turns a calculator result into a nullable value.
func Optional(v float64, err error) null.Float {
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func changeSince(bars []model.OHLCV, target time.Time) (float64, error) {
	// index of the first bar after target; the baseline sits right before it
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Time.After(target) })
	if i == 0 {
		return 0, apperrors.ErrInsufficientHistory
	}
	past := bars[i-1].Close
	if math.IsNaN(past) || past <= 0 {
		return 0, apperrors.ErrInvalidBaseline
	}
	latest := bars[len(bars)-1].Close
	return (latest - past) / past, nil
}
