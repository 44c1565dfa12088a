package calculator

import (
	"gonum.org/v1/gonum/floats"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

// rangeDays is the calendar span of the 52-week range.
const rangeDays = 365

// Calculate52WeekRange returns the highest high and lowest low of the bars dated
// within 365 calendar days of the latest bar, inclusive.
func Calculate52WeekRange(bars []model.OHLCV) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, apperrors.ErrNoHistory
	}
	from := bars[len(bars)-1].Time.AddDate(0, 0, -rangeDays)
	highs := make([]float64, 0, 260)
	lows := make([]float64, 0, 260)
	for _, b := range bars {
		if b.Time.Before(from) {
			continue
		}
		highs = append(highs, b.High)
		lows = append(lows, b.Low)
	}
	if len(highs) == 0 {
		return 0, 0, apperrors.ErrInsufficientHistory
	}
	return floats.Max(highs), floats.Min(lows), nil
}
