package calculator

import (
	"sort"

	"StockAnalyzer/internal/model"
)

// Normalize returns a copy of series with every bar time expressed in UTC,
// ordered ascending. An empty series is returned unchanged.
func Normalize(series model.PriceSeries) model.PriceSeries {
	if series.Empty() {
		return series
	}
	bars := make([]model.OHLCV, len(series.Bars))
	for i, b := range series.Bars {
		b.Time = b.Time.UTC()
		bars[i] = b
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	series.Bars = bars
	return series
}
