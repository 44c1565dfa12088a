package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the daily price history of one security, ordered ascending by time.
type PriceSeries struct {
	Symbol    string
	Currency  string // currency reported by the price feed, may be empty
	Bars      []OHLCV
	FetchedAt time.Time
}

// Empty reports whether the series has no observations.
func (s PriceSeries) Empty() bool { return len(s.Bars) == 0 }

// Last returns the most recent bar. It panics on an empty series.
func (s PriceSeries) Last() OHLCV { return s.Bars[len(s.Bars)-1] }

// Fundamentals holds the best-effort descriptive info of a security.
// Absent numeric fields stay invalid rather than zero.
type Fundamentals struct {
	LongName      string
	ShortName     string
	Currency      string
	Country       string
	Sector        string
	Industry      string
	MarketCap     null.Float
	PERatio       null.Float
	Beta          null.Float
	DividendYield null.Float
}
