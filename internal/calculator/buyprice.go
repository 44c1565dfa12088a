package calculator

import (
	"sort"
	"time"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

// BuyResolution is the trading day a purchase price was taken from.
type BuyResolution struct {
	Price       float64
	Date        time.Time // trading day of the resolved bar, midnight UTC
	Substituted bool      // requested date was not a trading day
}

// ResolveBuyPrice picks the close of the earliest bar whose UTC calendar date is
// on or after buyDate.
func ResolveBuyPrice(bars []model.OHLCV, buyDate time.Time) (BuyResolution, error) {
	want := calendarDate(buyDate)
	i := sort.Search(len(bars), func(i int) bool { return !calendarDate(bars[i].Time).Before(want) })
	if i == len(bars) {
		return BuyResolution{}, apperrors.ErrBuyDateBeyondHistory
	}
	got := calendarDate(bars[i].Time)
	return BuyResolution{
		Price:       bars[i].Close,
		Date:        got,
		Substituted: !got.Equal(want),
	}, nil
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
