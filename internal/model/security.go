package model

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// TickerEntry is one line of the tickers input.
type TickerEntry struct {
	Symbol  string     // uppercased, never empty
	Shares  null.Float // positive when valid
	BuyDate null.Time  // calendar date at midnight UTC
}

// Window is a trailing return window measured in calendar days.
type Window struct {
	Label string
	Days  int
}

// TrailingWindows is the fixed set of trailing return windows.
var TrailingWindows = []Window{
	{"1W", 7},
	{"1M", 30},
	{"3M", 91},
	{"6M", 182},
	{"1Y", 365},
	{"2Y", 730},
	{"3Y", 1095},
	{"4Y", 1460},
	{"5Y", 1825},
}

// LabelYTD is the returns key of the year-to-date return.
const LabelYTD = "YTD"

// ReturnLabels lists the returns keys in display order.
var ReturnLabels = []string{"1W", "1M", "3M", "6M", LabelYTD, "1Y", "2Y", "3Y", "4Y", "5Y"}

// SecurityMetrics is the per-security output record of a run.
// Returns are fractions (0.1 == 10%); an invalid value means "unavailable", never zero.
type SecurityMetrics struct {
	Symbol       string
	Name         string
	Currency     string
	CurrentPrice float64
	AsOf         time.Time

	Returns    map[string]null.Float
	Week52High null.Float
	Week52Low  null.Float

	Shares          null.Float
	BuyDate         null.Time
	BuyPrice        null.Float
	BuyTradeDate    null.Time // actual trading day the buy price was taken from
	BuyDateAdjusted bool      // requested buy date was not a trading day

	FxRate float64 // rate to the reporting currency

	Country       string
	Sector        string
	Industry      string
	MarketCap     null.Float
	PERatio       null.Float
	Beta          null.Float
	DividendYield null.Float
}

// Return returns the return for the given label.
func (m *SecurityMetrics) Return(label string) null.Float {
	if m.Returns == nil {
		return null.Float{}
	}
	return m.Returns[label]
}

// TotalValue is price × shares in the local currency.
func (m *SecurityMetrics) TotalValue() decimal.NullDecimal {
	if !m.Shares.Valid || m.Shares.Float64 == 0 {
		return decimal.NullDecimal{}
	}
	v := decimal.NewFromFloat(m.CurrentPrice).Mul(decimal.NewFromFloat(m.Shares.Float64))
	return decimal.NewNullDecimal(v)
}

// CostBasis is buy price × shares in the local currency.
func (m *SecurityMetrics) CostBasis() decimal.NullDecimal {
	if !m.Shares.Valid || m.Shares.Float64 == 0 || !m.BuyPrice.Valid {
		return decimal.NullDecimal{}
	}
	v := decimal.NewFromFloat(m.BuyPrice.Float64).Mul(decimal.NewFromFloat(m.Shares.Float64))
	return decimal.NewNullDecimal(v)
}

// ProfitLoss is TotalValue − CostBasis in the local currency.
func (m *SecurityMetrics) ProfitLoss() decimal.NullDecimal {
	value, cost := m.TotalValue(), m.CostBasis()
	if !value.Valid || !cost.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value.Decimal.Sub(cost.Decimal))
}

// ProfitLossPct is the unrealized return since the buy date.
func (m *SecurityMetrics) ProfitLossPct() null.Float {
	if !m.BuyPrice.Valid || m.BuyPrice.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom((m.CurrentPrice - m.BuyPrice.Float64) / m.BuyPrice.Float64)
}

// PctFromHigh is the distance of the current price from the 52-week high.
func (m *SecurityMetrics) PctFromHigh() null.Float {
	if !m.Week52High.Valid || m.Week52High.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom((m.CurrentPrice - m.Week52High.Float64) / m.Week52High.Float64)
}

// ReportingValue is TotalValue converted with FxRate.
func (m *SecurityMetrics) ReportingValue() decimal.NullDecimal {
	return m.toReporting(m.TotalValue())
}

// ReportingCostBasis is CostBasis converted with FxRate.
func (m *SecurityMetrics) ReportingCostBasis() decimal.NullDecimal {
	return m.toReporting(m.CostBasis())
}

// ReportingProfitLoss is ProfitLoss converted with FxRate.
func (m *SecurityMetrics) ReportingProfitLoss() decimal.NullDecimal {
	return m.toReporting(m.ProfitLoss())
}

func (m *SecurityMetrics) toReporting(local decimal.NullDecimal) decimal.NullDecimal {
	if !local.Valid {
		return local
	}
	if m.FxRate == 1 {
		return local
	}
	return decimal.NewNullDecimal(local.Decimal.Mul(decimal.NewFromFloat(m.FxRate)))
}

// FailureRecord describes a security whose data could not be fetched.
type FailureRecord struct {
	Symbol  string
	Error   string
	Shares  null.Float
	BuyDate null.Time
}

// Batch is the result of collecting metrics for a list of ticker entries.
// Securities and Failures each keep the input order.
type Batch struct {
	Securities []SecurityMetrics
	Failures   []FailureRecord
	Rates      FxRateTable
	Notes      []string // informational messages (substituted buy dates, unresolved buy dates)
}
