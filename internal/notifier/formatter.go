package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"StockAnalyzer/internal/model"
)

// RunInfo is what a run summary message reports.
type RunInfo struct {
	ID         string
	StartedAt  time.Time
	Batch      *model.Batch
	TotalValue decimal.Decimal
	Outputs    []string
}

// FormatRunSummary formats a finished run into a Telegram HTML message.
func FormatRunSummary(run RunInfo) string {
	var b strings.Builder
	batch := run.Batch
	reporting := batch.Rates.Reporting()

	fmt.Fprintf(&b, "📊 <b>Portfolio report</b> | %s\n\n", run.StartedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Securities: %d analyzed, %d failed\n", len(batch.Securities), len(batch.Failures))
	fmt.Fprintf(&b, "Total value: <b>%s</b>\n", model.FormatAmount(run.TotalValue, reporting))

	if best, worst, ok := extremes(batch.Securities, "1Y"); ok {
		fmt.Fprintf(&b, "\n📈 Best 1Y: %s %+.1f%%\n", html.EscapeString(best.Symbol), best.Return("1Y").Float64*100)
		fmt.Fprintf(&b, "📉 Worst 1Y: %s %+.1f%%\n", html.EscapeString(worst.Symbol), worst.Return("1Y").Float64*100)
	}

	if len(batch.Failures) > 0 {
		b.WriteString("\n⚠️ <b>Failed:</b>\n")
		for _, f := range batch.Failures {
			fmt.Fprintf(&b, "  %s: %s\n", html.EscapeString(f.Symbol), html.EscapeString(f.Error))
		}
	}
	if len(batch.Notes) > 0 {
		b.WriteString("\nℹ️ <b>Notes:</b>\n")
		for _, n := range batch.Notes {
			fmt.Fprintf(&b, "  %s\n", html.EscapeString(n))
		}
	}
	if len(run.Outputs) > 0 {
		b.WriteString("\n📁 ")
		b.WriteString(html.EscapeString(strings.Join(run.Outputs, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTickersChanged formats a tickers file change detected in watch mode.
func FormatTickersChanged(added, removed []string) string {
	var b strings.Builder
	b.WriteString("📝 <b>Tickers file changed</b>\n")
	if len(added) > 0 {
		fmt.Fprintf(&b, "Added: %s\n", html.EscapeString(strings.Join(added, ", ")))
	}
	if len(removed) > 0 {
		fmt.Fprintf(&b, "Removed: %s\n", html.EscapeString(strings.Join(removed, ", ")))
	}
	return b.String()
}

// FormatError formats a failed run.
func FormatError(err error) string {
	return fmt.Sprintf("🚨 <b>Portfolio report failed</b>\n%s", html.EscapeString(err.Error()))
}

func extremes(securities []model.SecurityMetrics, label string) (best, worst *model.SecurityMetrics, ok bool) {
	for i := range securities {
		r := securities[i].Return(label)
		if !r.Valid {
			continue
		}
		if best == nil || r.Float64 > best.Return(label).Float64 {
			best = &securities[i]
		}
		if worst == nil || r.Float64 < worst.Return(label).Float64 {
			worst = &securities[i]
		}
	}
	return best, worst, best != nil
}
