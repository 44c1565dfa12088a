package summary

import (
	"encoding/json"
	"fmt"
	"strings"
)

type section struct {
	title string
	brief string
}

var sections = []section{
	{"Portfolio Overview", "Brief summary: number of stocks, currencies, geographic spread, sector mix."},
	{"Geographic & Sector Diversification", "Assess diversification. Flag any single geography or sector exceeding ~40%."},
	{"Performance Highlights", "Notable outperformers and underperformers by YTD, 1Y, and 5Y. " +
		"Where buy dates are available, include unrealised P&L context."},
	{"Risk Assessment", "Beta analysis, valuation concerns (elevated P/E), drawdown risks, " +
		"and any stocks significantly below their 52-week high."},
	{"Sector Concentration Warnings", "Flag any sector representing more than 35% of identifiable holdings."},
	{"Key Takeaways", "3-5 concise bullet points of the most important insights."},
}

// SectionTitles returns the headers the generated analysis is asked to use, in order.
func SectionTitles() []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.title
	}
	return out
}

// BuildPrompt renders the analysis request for a projection.
func BuildPrompt(p Projection) (string, error) {
	data, err := json.MarshalIndent(p.Securities, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal portfolio: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a professional financial analyst. Analyse the following stock portfolio ")
	sb.WriteString("and provide a structured, data-driven report in Markdown.\n\n")
	fmt.Fprintf(&sb, "Values are expressed in %s. Percentages are whole percent.\n\n", p.ReportingCurrency)
	fmt.Fprintf(&sb, "Portfolio data (JSON):\n%s\n\n", data)
	sb.WriteString("Structure your response with these exact section headers:\n\n")
	for _, s := range sections {
		fmt.Fprintf(&sb, "## %s\n%s\n\n", s.title, s.brief)
	}
	sb.WriteString("Keep the tone professional. Reference specific tickers and numbers. ")
	sb.WriteString("Append a disclaimer that this is not financial advice.")
	return sb.String(), nil
}
