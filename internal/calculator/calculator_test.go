package calculator

import (
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

var day0 = time.Date(2024, time.March, 4, 14, 30, 0, 0, time.UTC)

func bar(t time.Time, close float64) model.OHLCV {
	return model.OHLCV{Time: t, Open: close, High: close, Low: close, Close: close}
}

func dailyBars(start time.Time, closes ...float64) []model.OHLCV {
	out := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = bar(start.AddDate(0, 0, i), c)
	}
	return out
}

func TestNormalize(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	t.Run("empty series unchanged", func(t *testing.T) {
		s := model.PriceSeries{Symbol: "X"}
		assert.Equal(t, s, Normalize(s))
	})

	t.Run("converts to utc and sorts", func(t *testing.T) {
		s := model.PriceSeries{Symbol: "X", Bars: []model.OHLCV{
			bar(time.Date(2024, 1, 3, 9, 30, 0, 0, ny), 2),
			bar(time.Date(2024, 1, 2, 9, 30, 0, 0, ny), 1),
		}}
		got := Normalize(s)
		require.Len(t, got.Bars, 2)
		assert.Equal(t, time.UTC, got.Bars[0].Time.Location())
		assert.Equal(t, 1.0, got.Bars[0].Close)
		assert.Equal(t, time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), got.Bars[0].Time)
		// input untouched
		assert.Equal(t, ny, s.Bars[0].Time.Location())
	})
}

func TestTrailingReturn(t *testing.T) {
	t.Run("thirty day window", func(t *testing.T) {
		bars := []model.OHLCV{bar(day0, 100), bar(day0.AddDate(0, 0, 30), 110)}
		got, err := TrailingReturn(bars, 30)
		require.NoError(t, err)
		assert.InDelta(t, 0.10, got, 1e-12)
	})

	t.Run("baseline is most recent bar at or before target", func(t *testing.T) {
		bars := []model.OHLCV{
			bar(day0, 80),
			bar(day0.AddDate(0, 0, 2), 100),
			bar(day0.AddDate(0, 0, 5), 90),
			bar(day0.AddDate(0, 0, 10), 120),
		}
		// target = day0+3, floor picks day0+2 rather than the nearer day0+5
		got, err := TrailingReturn(bars, 7)
		require.NoError(t, err)
		assert.InDelta(t, 0.20, got, 1e-12)
	})

	t.Run("zero is a valid result", func(t *testing.T) {
		got, err := TrailingReturn(dailyBars(day0, 50, 50, 50, 50, 50, 50, 50, 50), 7)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("history too short", func(t *testing.T) {
		_, err := TrailingReturn(dailyBars(day0, 1, 2, 3), 7)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientHistory)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := TrailingReturn(nil, 7)
		assert.ErrorIs(t, err, apperrors.ErrNoHistory)
	})

	t.Run("non-positive baseline", func(t *testing.T) {
		for _, past := range []float64{0, -1, math.NaN()} {
			bars := []model.OHLCV{bar(day0, past), bar(day0.AddDate(0, 0, 7), 10)}
			_, err := TrailingReturn(bars, 7)
			assert.ErrorIs(t, err, apperrors.ErrInvalidBaseline)
		}
	})

	t.Run("finite whenever history covers the window", func(t *testing.T) {
		bars := dailyBars(day0, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20)
		for d := 0; d <= 15; d++ {
			got, err := TrailingReturn(bars, d)
			if d > 10 {
				assert.Error(t, err, "days=%d", d)
				continue
			}
			require.NoError(t, err, "days=%d", d)
			assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
		}
	})
}

func TestTrailingReturnTimezoneInvariant(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	utcBars := dailyBars(day0, 100, 101, 99, 104, 106, 103, 108, 111)
	zoned := make([]model.OHLCV, len(utcBars))
	for i, b := range utcBars {
		b.Time = b.Time.In(tokyo)
		zoned[i] = b
	}
	a := Normalize(model.PriceSeries{Bars: utcBars})
	b := Normalize(model.PriceSeries{Bars: zoned})
	for _, days := range []int{1, 3, 7} {
		ra, errA := TrailingReturn(a.Bars, days)
		rb, errB := TrailingReturn(b.Bars, days)
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, ra, rb)
	}
}

func TestYearToDateReturn(t *testing.T) {
	t.Run("anchors on prior year final close", func(t *testing.T) {
		bars := []model.OHLCV{
			bar(time.Date(2023, 12, 28, 15, 0, 0, 0, time.UTC), 90),
			bar(time.Date(2023, 12, 29, 15, 0, 0, 0, time.UTC), 100),
			bar(time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), 104),
			bar(time.Date(2024, 2, 1, 15, 0, 0, 0, time.UTC), 125),
		}
		got, err := YearToDateReturn(bars)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, got, 1e-12)
	})

	t.Run("first day of a new year", func(t *testing.T) {
		bars := []model.OHLCV{
			bar(time.Date(2023, 12, 29, 15, 0, 0, 0, time.UTC), 100),
			bar(time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), 98),
		}
		got, err := YearToDateReturn(bars)
		require.NoError(t, err)
		assert.InDelta(t, -0.02, got, 1e-12)
	})

	t.Run("no prior year data", func(t *testing.T) {
		bars := dailyBars(time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), 10, 11, 12)
		_, err := YearToDateReturn(bars)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientHistory)
	})
}

func TestReturns(t *testing.T) {
	bars := dailyBars(day0, 100, 101, 102, 103, 104, 105, 106, 110)
	got := Returns(bars)

	require.Len(t, got, len(model.ReturnLabels))
	assert.True(t, got["1W"].Valid)
	assert.InDelta(t, 0.10, got["1W"].Float64, 1e-12)
	assert.False(t, got["1M"].Valid)
	assert.False(t, got["5Y"].Valid)
	assert.False(t, got[model.LabelYTD].Valid)
}

func TestCalculate52WeekRange(t *testing.T) {
	last := time.Date(2024, 6, 28, 20, 0, 0, 0, time.UTC)
	bars := []model.OHLCV{
		{Time: last.AddDate(0, 0, -400), High: 500, Low: 1},
		{Time: last.AddDate(0, 0, -365), High: 120, Low: 40},
		{Time: last.AddDate(0, 0, -100), High: 150, Low: 60},
		{Time: last, High: 130, Low: 70},
	}
	high, low, err := Calculate52WeekRange(bars)
	require.NoError(t, err)
	assert.Equal(t, 150.0, high)
	assert.Equal(t, 40.0, low)

	_, _, err = Calculate52WeekRange(nil)
	assert.ErrorIs(t, err, apperrors.ErrNoHistory)
}

func TestResolveBuyPrice(t *testing.T) {
	friday := time.Date(2024, 3, 8, 14, 30, 0, 0, time.UTC)
	monday := time.Date(2024, 3, 11, 13, 30, 0, 0, time.UTC)
	bars := []model.OHLCV{bar(friday, 48), bar(monday, 50)}
	saturday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	t.Run("weekend resolves forward", func(t *testing.T) {
		got, err := ResolveBuyPrice(bars, saturday)
		require.NoError(t, err)
		assert.Equal(t, 50.00, got.Price)
		assert.True(t, got.Substituted)
		assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), got.Date)
	})

	t.Run("exact trading day", func(t *testing.T) {
		got, err := ResolveBuyPrice(bars, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 48.0, got.Price)
		assert.False(t, got.Substituted)
	})

	t.Run("idempotent", func(t *testing.T) {
		a, errA := ResolveBuyPrice(bars, saturday)
		b, errB := ResolveBuyPrice(bars, saturday)
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, a, b)
	})

	t.Run("after last observation", func(t *testing.T) {
		_, err := ResolveBuyPrice(bars, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, apperrors.ErrBuyDateBeyondHistory)
	})

	t.Run("empty history", func(t *testing.T) {
		_, err := ResolveBuyPrice(nil, saturday)
		assert.ErrorIs(t, err, apperrors.ErrBuyDateBeyondHistory)
	})
}

// The buy price looks forward from the requested date while return baselines look
// backward from the window start. Both directions are kept.
func TestBuyPriceAndBaselineLookOppositeWays(t *testing.T) {
	friday := time.Date(2024, 3, 8, 14, 30, 0, 0, time.UTC)
	monday := time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC)
	later := time.Date(2024, 3, 16, 14, 30, 0, 0, time.UTC) // window start falls on Saturday 9th
	bars := []model.OHLCV{bar(friday, 40), bar(monday, 50), bar(later, 60)}

	buy, err := ResolveBuyPrice(bars, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 50.0, buy.Price)

	ret, err := TrailingReturn(bars, 7)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ret, 1e-12) // baseline is Friday's 40
}
