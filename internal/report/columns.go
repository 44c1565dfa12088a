package report

import (
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"StockAnalyzer/internal/model"
)

type cellKind int

const (
	kindText cellKind = iota
	kindPrice
	kindShares
	kindPercent
	kindDate
	kindMillions
	kindRatio
	kindCount
)

// column is one Portfolio sheet and CSV column. value returns nil when unavailable.
type column struct {
	header string
	width  float64
	kind   cellKind
	value  func(m *model.SecurityMetrics) any
}

func optFloat(v null.Float) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func optDecimal(v decimal.NullDecimal) any {
	if !v.Valid {
		return nil
	}
	return v.Decimal.Round(2).InexactFloat64()
}

func optDate(v null.Time) any {
	if !v.Valid {
		return nil
	}
	return v.Time
}

func returnColumn(label string) column {
	return column{label + "%", 8, kindPercent, func(m *model.SecurityMetrics) any { return optFloat(m.Return(label)) }}
}

// portfolioColumns lists the columns in display order for the given reporting currency.
func portfolioColumns(reporting string) []column {
	cols := []column{
		{"Ticker", 10, kindText, func(m *model.SecurityMetrics) any { return m.Symbol }},
		{"Company Name", 28, kindText, func(m *model.SecurityMetrics) any { return m.Name }},
		{"Current Price", 13, kindPrice, func(m *model.SecurityMetrics) any { return m.CurrentPrice }},
		{"Currency", 8, kindText, func(m *model.SecurityMetrics) any { return m.Currency }},
		{"Buy Date", 12, kindDate, func(m *model.SecurityMetrics) any { return optDate(m.BuyDate) }},
		{"Buy Price", 12, kindPrice, func(m *model.SecurityMetrics) any { return optFloat(m.BuyPrice) }},
		{"# Shares", 10, kindShares, func(m *model.SecurityMetrics) any { return optFloat(m.Shares) }},
		{"Total Value", 15, kindPrice, func(m *model.SecurityMetrics) any { return optDecimal(m.TotalValue()) }},
		{"Cost Basis", 14, kindPrice, func(m *model.SecurityMetrics) any { return optDecimal(m.CostBasis()) }},
		{"P&L", 13, kindPrice, func(m *model.SecurityMetrics) any { return optDecimal(m.ProfitLoss()) }},
		{"P&L %", 10, kindPercent, func(m *model.SecurityMetrics) any { return optFloat(m.ProfitLossPct()) }},
	}
	for _, label := range model.ReturnLabels {
		cols = append(cols, returnColumn(label))
	}
	cols = append(cols,
		column{"Country", 14, kindText, func(m *model.SecurityMetrics) any { return m.Country }},
		column{"Sector", 18, kindText, func(m *model.SecurityMetrics) any { return m.Sector }},
		column{"Industry", 22, kindText, func(m *model.SecurityMetrics) any { return m.Industry }},
		column{"Market Cap", 14, kindMillions, func(m *model.SecurityMetrics) any { return optFloat(m.MarketCap) }},
		column{"P/E (TTM)", 10, kindRatio, func(m *model.SecurityMetrics) any { return optFloat(m.PERatio) }},
		column{"52W High", 12, kindPrice, func(m *model.SecurityMetrics) any { return optFloat(m.Week52High) }},
		column{"52W Low", 12, kindPrice, func(m *model.SecurityMetrics) any { return optFloat(m.Week52Low) }},
		column{"% from 52W High", 15, kindPercent, func(m *model.SecurityMetrics) any { return optFloat(m.PctFromHigh()) }},
		column{"Div. Yield %", 12, kindPercent, func(m *model.SecurityMetrics) any { return optFloat(m.DividendYield) }},
		column{"Beta", 8, kindRatio, func(m *model.SecurityMetrics) any { return optFloat(m.Beta) }},
		column{"FX Rate", 10, kindRatio, func(m *model.SecurityMetrics) any { return m.FxRate }},
		column{"Value (" + reporting + ")", 15, kindPrice, func(m *model.SecurityMetrics) any { return optDecimal(m.ReportingValue()) }},
		column{"P&L (" + reporting + ")", 15, kindPrice, func(m *model.SecurityMetrics) any { return optDecimal(m.ReportingProfitLoss()) }},
	)
	return cols
}

// signed reports whether a column is colored by sign.
func (c column) signed() bool {
	if c.header == "P&L" {
		return true
	}
	return c.kind == kindPercent && c.header != "Div. Yield %"
}
