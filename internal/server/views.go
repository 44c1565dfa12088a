package server

import (
	"time"

	"github.com/shopspring/decimal"

	"StockAnalyzer/internal/distribution"
	"StockAnalyzer/internal/pipeline"
	"StockAnalyzer/internal/summary"
)

type categoryView struct {
	Name       string          `json:"name"`
	Count      int             `json:"count"`
	Fraction   float64         `json:"fraction"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type distributionView struct {
	Total     int            `json:"total"`
	Countries []categoryView `json:"countries"`
	Sectors   []categoryView `json:"sectors"`
}

type reportView struct {
	RunID        string             `json:"run_id"`
	GeneratedAt  time.Time          `json:"generated_at"`
	TotalValue   decimal.Decimal    `json:"total_value"`
	Portfolio    summary.Projection `json:"portfolio"`
	Distribution distributionView   `json:"distribution"`
	Notes        []string           `json:"notes,omitempty"`
	Outputs      []string           `json:"outputs,omitempty"`
}

func categories(in []distribution.Category) []categoryView {
	out := make([]categoryView, len(in))
	for i, c := range in {
		out[i] = categoryView{Name: c.Name, Count: c.Count, Fraction: c.Fraction, TotalValue: c.TotalValue}
	}
	return out
}

func newReportView(res *pipeline.Result) reportView {
	d := res.Breakdown()
	value, _, _ := res.Report.Totals()
	outputs := res.Outputs
	if len(res.Published) > 0 {
		outputs = res.Published
	}
	return reportView{
		RunID:       res.ID,
		GeneratedAt: res.StartedAt,
		TotalValue:  value,
		Portfolio:   res.Projection,
		Distribution: distributionView{
			Total:     d.Total,
			Countries: categories(d.Countries),
			Sectors:   categories(d.Sectors),
		},
		Notes:   res.Report.Batch.Notes,
		Outputs: outputs,
	}
}
