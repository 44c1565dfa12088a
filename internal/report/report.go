// Package report renders an analyzed portfolio as xlsx, CSV and markdown files.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"StockAnalyzer/internal/distribution"
	"StockAnalyzer/internal/model"
	"StockAnalyzer/internal/summary"
)

// Output formats.
const (
	FormatXLSX     = "xlsx"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Report is everything rendered for one run.
type Report struct {
	GeneratedAt  time.Time
	Batch        *model.Batch
	Distribution distribution.Breakdown
	Analysis     *summary.Analysis // nil when no generator is configured
}

// New assembles a report from a collected batch.
func New(batch *model.Batch, analysis *summary.Analysis, now time.Time) *Report {
	return &Report{
		GeneratedAt:  now,
		Batch:        batch,
		Distribution: distribution.Compute(batch.Securities),
		Analysis:     analysis,
	}
}

// Reporting returns the reporting currency.
func (r *Report) Reporting() string { return r.Batch.Rates.Reporting() }

// Totals sums reporting-currency value, cost basis and P&L over the holdings that have them.
func (r *Report) Totals() (value, cost, pnl decimal.Decimal) {
	for i := range r.Batch.Securities {
		m := &r.Batch.Securities[i]
		if v := m.ReportingValue(); v.Valid {
			value = value.Add(v.Decimal)
		}
		if c := m.ReportingCostBasis(); c.Valid {
			cost = cost.Add(c.Decimal)
		}
		if p := m.ReportingProfitLoss(); p.Valid {
			pnl = pnl.Add(p.Decimal)
		}
	}
	return value, cost, pnl
}

// BaseName returns the file name stem of a report generated at t.
func BaseName(t time.Time) string {
	return "portfolio_" + t.Format("20060102_1504")
}

// Writer writes a report in the configured formats.
type Writer struct {
	Dir     string
	Formats []string
	log     zerolog.Logger
}

// NewWriter creates a Writer.
func NewWriter(dir string, formats []string, log zerolog.Logger) *Writer {
	if len(formats) == 0 {
		formats = []string{FormatXLSX}
	}
	return &Writer{Dir: dir, Formats: formats, log: log.With().Str("component", "report").Logger()}
}

// Write renders every format and returns the written paths.
func (w *Writer) Write(r *Report) ([]string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	base := filepath.Join(w.Dir, BaseName(r.GeneratedAt))

	var paths []string
	for _, format := range w.Formats {
		var (
			path string
			err  error
		)
		switch format {
		case FormatXLSX:
			path = base + ".xlsx"
			err = WriteXLSX(path, r)
		case FormatCSV:
			path = base + ".csv"
			err = writeFile(path, func(f *os.File) error { return WriteCSV(f, r) })
		case FormatMarkdown:
			path = base + ".md"
			err = os.WriteFile(path, []byte(Markdown(r)), 0o644)
		default:
			return paths, fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return paths, fmt.Errorf("write %s: %w", format, err)
		}
		w.log.Info().Str("format", format).Str("path", path).Msg("report written")
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
