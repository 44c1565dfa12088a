// Package distribution groups portfolio holdings by country and sector.
package distribution

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"StockAnalyzer/internal/model"
)

// Category is one bucket of a grouping.
type Category struct {
	Name       string
	Count      int
	Fraction   float64         // Count over all securities in the batch
	TotalValue decimal.Decimal // sum of reporting-currency values of holdings with shares
}

// Breakdown holds the two independent groupings of a batch.
type Breakdown struct {
	Total     int // number of securities considered
	Countries []Category
	Sectors   []Category
}

// Compute groups securities by country and by sector.
func Compute(securities []model.SecurityMetrics) Breakdown {
	return Breakdown{
		Total:     len(securities),
		Countries: ByCountry(securities),
		Sectors:   BySector(securities),
	}
}

// ByCountry groups securities by country.
func ByCountry(securities []model.SecurityMetrics) []Category {
	return GroupBy(securities, func(m *model.SecurityMetrics) string { return m.Country })
}

// BySector groups securities by sector.
func BySector(securities []model.SecurityMetrics) []Category {
	return GroupBy(securities, func(m *model.SecurityMetrics) string { return m.Sector })
}

// GroupBy buckets securities by key. Securities with an empty key are left out.
// Categories are sorted by name.
func GroupBy(securities []model.SecurityMetrics, key func(*model.SecurityMetrics) string) []Category {
	n := len(securities)
	byName := make(map[string]*Category)
	for i := range securities {
		name := strings.TrimSpace(key(&securities[i]))
		if name == "" {
			continue
		}
		c, ok := byName[name]
		if !ok {
			c = &Category{Name: name}
			byName[name] = c
		}
		c.Count++
		if v := securities[i].ReportingValue(); v.Valid {
			c.TotalValue = c.TotalValue.Add(v.Decimal)
		}
	}

	out := make([]Category, 0, len(byName))
	for _, c := range byName {
		c.Fraction = float64(c.Count) / float64(n)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Counted returns the number of securities placed in any category.
func Counted(categories []Category) int {
	total := 0
	for _, c := range categories {
		total += c.Count
	}
	return total
}

// TotalValue sums the category values.
func TotalValue(categories []Category) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range categories {
		sum = sum.Add(c.TotalValue)
	}
	return sum
}
