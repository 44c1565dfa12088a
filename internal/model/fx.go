package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// FxRateTable maps currency codes to their rate into the reporting currency.
// It is built once per run and only read afterwards.
type FxRateTable struct {
	reporting string
	rates     map[string]float64
	degraded  map[string]bool
}

// NewFxRateTable copies rates into a new table. The reporting currency is always 1.0.
// Currencies listed in degraded carry a 1.0 fallback rather than a live rate.
func NewFxRateTable(reporting string, rates map[string]float64, degraded []string) FxRateTable {
	t := FxRateTable{
		reporting: reporting,
		rates:     make(map[string]float64, len(rates)+1),
		degraded:  make(map[string]bool, len(degraded)),
	}
	for cur, r := range rates {
		t.rates[cur] = r
	}
	for _, cur := range degraded {
		t.degraded[cur] = true
		t.rates[cur] = 1.0
	}
	t.rates[reporting] = 1.0
	delete(t.degraded, reporting)
	return t
}

// Reporting returns the reporting currency code.
func (t FxRateTable) Reporting() string { return t.reporting }

// Rate returns the rate for cur. Unknown currencies fall back to 1.0.
func (t FxRateTable) Rate(cur string) float64 {
	if cur == t.reporting {
		return 1.0
	}
	if r, ok := t.rates[cur]; ok {
		return r
	}
	return 1.0
}

// Degraded reports whether cur uses the 1.0 fallback instead of a live rate.
func (t FxRateTable) Degraded(cur string) bool { return t.degraded[cur] }

// Currencies returns the currencies of the table, sorted.
func (t FxRateTable) Currencies() []string {
	out := make([]string, 0, len(t.rates))
	for cur := range t.rates {
		out = append(out, cur)
	}
	sort.Strings(out)
	return out
}

// Convert converts a local amount into the reporting currency.
func (t FxRateTable) Convert(amount decimal.Decimal, cur string) decimal.Decimal {
	r := t.Rate(cur)
	if r == 1.0 {
		return amount
	}
	return amount.Mul(decimal.NewFromFloat(r))
}
