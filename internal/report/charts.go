package report

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"StockAnalyzer/internal/distribution"
)

var palette = []string{
	"2E75B6", "C00000", "70AD47", "FFC000", "7030A0",
	"ED7D31", "255E91", "9E480E", "636363", "43682B",
}

// PieChartPNG renders a pie of stock counts per category.
func PieChartPNG(title string, categories []distribution.Category) ([]byte, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories for %q", title)
	}
	values := make([]chart.Value, len(categories))
	for i, c := range categories {
		values[i] = chart.Value{
			Value: float64(c.Count),
			Label: fmt.Sprintf("%s (%.0f%%)", c.Name, c.Fraction*100),
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(palette[i%len(palette)]),
				StrokeColor: drawing.ColorWhite,
			},
		}
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  640,
		Height: 640,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
