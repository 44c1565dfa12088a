package distribution

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyzer/internal/model"
)

func holding(symbol, country, sector string, price, shares, fxRate float64) model.SecurityMetrics {
	m := model.SecurityMetrics{
		Symbol:       symbol,
		Country:      country,
		Sector:       sector,
		CurrentPrice: price,
		FxRate:       fxRate,
	}
	if shares > 0 {
		m.Shares = null.FloatFrom(shares)
	}
	return m
}

func TestCompute(t *testing.T) {
	securities := []model.SecurityMetrics{
		holding("AAPL", "United States", "Technology", 100, 10, 0.5),
		holding("MSFT", "United States", "Technology", 200, 1, 0.5),
		holding("SAP", "Germany", "Technology", 50, 4, 1),
		holding("XOM", "United States", "", 10, 0, 0.5),
		holding("ETF", "", "", 30, 2, 1),
	}

	b := Compute(securities)
	assert.Equal(t, 5, b.Total)

	require.Len(t, b.Countries, 2)
	assert.Equal(t, "Germany", b.Countries[0].Name)
	assert.Equal(t, 1, b.Countries[0].Count)
	assert.InDelta(t, 0.2, b.Countries[0].Fraction, 1e-12)
	assert.Equal(t, "200", b.Countries[0].TotalValue.String())

	us := b.Countries[1]
	assert.Equal(t, "United States", us.Name)
	assert.Equal(t, 3, us.Count)
	assert.InDelta(t, 0.6, us.Fraction, 1e-12)
	assert.Equal(t, "600", us.TotalValue.String())

	require.Len(t, b.Sectors, 1)
	assert.Equal(t, 3, b.Sectors[0].Count)
	assert.Equal(t, "800", b.Sectors[0].TotalValue.String())
}

func TestCountsMatchNonEmptyValues(t *testing.T) {
	securities := []model.SecurityMetrics{
		holding("A", "X", "S1", 1, 1, 1),
		holding("B", "", "S1", 1, 1, 1),
		holding("C", "Y", "", 1, 1, 1),
		holding("D", "  ", "S2", 1, 1, 1),
	}
	countries := ByCountry(securities)
	sectors := BySector(securities)

	assert.Equal(t, 2, Counted(countries))
	assert.Equal(t, 3, Counted(sectors))
	for _, c := range countries {
		assert.NotEmpty(t, c.Name)
	}
	assert.Equal(t, "3", TotalValue(sectors).String())
}

func TestEmpty(t *testing.T) {
	b := Compute(nil)
	assert.Empty(t, b.Countries)
	assert.Empty(t, b.Sectors)
}
