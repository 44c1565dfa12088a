package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/guregu/null/v6"

	"StockAnalyzer/internal/distribution"
	"StockAnalyzer/internal/model"
)

const na = "n/a"

func pct(v null.Float) string {
	if !v.Valid {
		return na
	}
	return fmt.Sprintf("%+.2f%%", v.Float64*100)
}

func price(v float64) string { return fmt.Sprintf("%.2f", v) }

func escapeCell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// Markdown renders the report as a markdown document.
func Markdown(r *Report) string {
	var b strings.Builder
	cur := r.Reporting()

	fmt.Fprintf(&b, "# Stock Portfolio Report\n\n")
	fmt.Fprintf(&b, "Generated %s · values in %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04"), cur)

	value, cost, pnl := r.Totals()
	b.WriteString("## Totals\n\n")
	fmt.Fprintf(&b, "- Securities: %d analyzed, %d failed\n", len(r.Batch.Securities), len(r.Batch.Failures))
	fmt.Fprintf(&b, "- Total value: %s\n", model.FormatAmount(value, cur))
	fmt.Fprintf(&b, "- Cost basis: %s\n", model.FormatAmount(cost, cur))
	fmt.Fprintf(&b, "- Unrealized P&L: %s\n\n", model.FormatAmount(pnl, cur))

	b.WriteString("## Holdings\n\n")
	headers := []string{"Ticker", "Name", "Price", "Ccy", "YTD", "1Y", "3Y", "5Y", "P&L %", "From 52W High", "Value (" + cur + ")"}
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for i := range r.Batch.Securities {
		m := &r.Batch.Securities[i]
		v := "-"
		if rv := m.ReportingValue(); rv.Valid {
			v = model.FormatAmount(rv.Decimal, cur)
		}
		row := []string{
			m.Symbol,
			escapeCell(m.Name),
			price(m.CurrentPrice),
			m.Currency,
			pct(m.Return(model.LabelYTD)),
			pct(m.Return("1Y")),
			pct(m.Return("3Y")),
			pct(m.Return("5Y")),
			pct(m.ProfitLossPct()),
			pct(m.PctFromHigh()),
			v,
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	b.WriteString("\n")

	writeCategories(&b, "By Country", r.Distribution.Countries, cur)
	writeCategories(&b, "By Sector", r.Distribution.Sectors, cur)

	if len(r.Batch.Failures) > 0 {
		b.WriteString("## Failures\n\n")
		for _, f := range r.Batch.Failures {
			fmt.Fprintf(&b, "- **%s**: %s\n", f.Symbol, f.Error)
		}
		b.WriteString("\n")
	}
	if len(r.Batch.Notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range r.Batch.Notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}

	if a := r.Analysis; a != nil {
		fmt.Fprintf(&b, "## AI Analysis (%s)\n\n", a.Model)
		b.WriteString(strings.TrimSpace(demoteHeadings(a.Text)))
		b.WriteString("\n\n_For informational purposes only, not financial advice._\n")
	}
	return b.String()
}

func writeCategories(b *strings.Builder, title string, categories []distribution.Category, cur string) {
	if len(categories) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	b.WriteString("| Name | Stocks | % Count | Value (" + cur + ") |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, c := range categories {
		fmt.Fprintf(b, "| %s | %d | %.1f%% | %s |\n",
			escapeCell(c.Name), c.Count, c.Fraction*100, model.FormatAmount(c.TotalValue, cur))
	}
	b.WriteString("\n")
}

// demoteHeadings nests the generated headings under the analysis heading.
func demoteHeadings(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, "#") {
			lines[i] = "##" + l
		}
	}
	return strings.Join(lines, "\n")
}

// RenderTerminal renders markdown for display in a terminal.
// An empty style selects a style from the terminal background.
func RenderTerminal(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	return r.Render(md)
}
