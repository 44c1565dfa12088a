// Package summary builds the narrative portfolio analysis.
package summary

import (
	"math"

	"github.com/guregu/null/v6"

	"StockAnalyzer/internal/model"
)

// SecurityView is the reduced, JSON-friendly record of one security.
// Percentages are whole percent (12.5 == 12.5%); unavailable values marshal as null.
type SecurityView struct {
	Ticker         string      `json:"ticker"`
	Name           string      `json:"name"`
	Sector         string      `json:"sector"`
	Country        string      `json:"country"`
	Currency       string      `json:"currency"`
	Price          null.Float  `json:"price"`
	MarketCapM     null.Float  `json:"market_cap_M"`
	PERatio        null.Float  `json:"pe_ratio"`
	Beta           null.Float  `json:"beta"`
	DivYieldPct    null.Float  `json:"div_yield_pct"`
	YTDPct         null.Float  `json:"ytd_pct"`
	OneYearPct     null.Float  `json:"1y_pct"`
	ThreeYearPct   null.Float  `json:"3y_pct"`
	FiveYearPct    null.Float  `json:"5y_pct"`
	BuyDate        null.String `json:"buy_date"`
	BuyPrice       null.Float  `json:"buy_price"`
	PnLPct         null.Float  `json:"pnl_pct"`
	PctFrom52wHigh null.Float  `json:"pct_from_52w_high"`
	ValueReporting null.Float  `json:"value_reporting"`
}

// FailureView is a security that could not be analyzed.
type FailureView struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

// Projection is the portfolio as handed to the narrative generator and the HTTP API.
type Projection struct {
	ReportingCurrency string         `json:"reporting_currency"`
	Securities        []SecurityView `json:"securities"`
	Failures          []FailureView  `json:"failures,omitempty"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func round2(v null.Float) null.Float {
	if !v.Valid {
		return v
	}
	return null.FloatFrom(round(v.Float64, 2))
}

func pct(v null.Float) null.Float {
	if !v.Valid {
		return v
	}
	return null.FloatFrom(round(v.Float64*100, 2))
}

// nonZeroOnly drops zero values the way absent fundamentals are reported.
// Negative values such as a loss-making P/E are kept.
func nonZeroOnly(v null.Float) null.Float {
	if v.Valid && v.Float64 == 0 {
		return null.Float{}
	}
	return v
}

// View projects one security.
func View(m *model.SecurityMetrics) SecurityView {
	v := SecurityView{
		Ticker:         m.Symbol,
		Name:           m.Name,
		Sector:         m.Sector,
		Country:        m.Country,
		Currency:       m.Currency,
		PERatio:        round2(nonZeroOnly(m.PERatio)),
		Beta:           round2(nonZeroOnly(m.Beta)),
		DivYieldPct:    pct(m.DividendYield),
		YTDPct:         pct(m.Return(model.LabelYTD)),
		OneYearPct:     pct(m.Return("1Y")),
		ThreeYearPct:   pct(m.Return("3Y")),
		FiveYearPct:    pct(m.Return("5Y")),
		BuyPrice:       round2(nonZeroOnly(m.BuyPrice)),
		PnLPct:         pct(m.ProfitLossPct()),
		PctFrom52wHigh: pct(m.PctFromHigh()),
	}
	if m.BuyDate.Valid {
		v.BuyDate = null.StringFrom(m.BuyDate.Time.Format("2006-01-02"))
	}
	if m.CurrentPrice > 0 {
		v.Price = null.FloatFrom(round(m.CurrentPrice, 2))
	}
	if m.MarketCap.Valid && m.MarketCap.Float64 > 0 {
		v.MarketCapM = null.FloatFrom(math.Round(m.MarketCap.Float64 / 1e6))
	}
	if rv := m.ReportingValue(); rv.Valid {
		v.ValueReporting = null.FloatFrom(rv.Decimal.Round(2).InexactFloat64())
	}
	return v
}

// Project builds the projection of a batch. Securities keep the batch order.
func Project(batch *model.Batch) Projection {
	p := Projection{
		ReportingCurrency: batch.Rates.Reporting(),
		Securities:        make([]SecurityView, 0, len(batch.Securities)),
	}
	for i := range batch.Securities {
		p.Securities = append(p.Securities, View(&batch.Securities[i]))
	}
	for _, f := range batch.Failures {
		p.Failures = append(p.Failures, FailureView{Ticker: f.Symbol, Error: f.Error})
	}
	return p
}
