package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"StockAnalyzer/internal/model"
	"StockAnalyzer/internal/summary"
)

var generated = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

func testBatch() *model.Batch {
	return &model.Batch{
		Securities: []model.SecurityMetrics{
			{
				Symbol:       "AAPL",
				Name:         "Apple Inc.",
				Currency:     "USD",
				CurrentPrice: 200,
				Returns:      map[string]null.Float{model.LabelYTD: null.FloatFrom(0.1), "1Y": null.FloatFrom(-0.05)},
				Week52High:   null.FloatFrom(250),
				Shares:       null.FloatFrom(10),
				BuyDate:      null.TimeFrom(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
				BuyPrice:     null.FloatFrom(150),
				FxRate:       1,
				Country:      "United States",
				Sector:       "Technology",
			},
			{
				Symbol:       "SAP.DE",
				Name:         "SAP SE",
				Currency:     "EUR",
				CurrentPrice: 100,
				Returns:      map[string]null.Float{},
				Shares:       null.FloatFrom(5),
				FxRate:       1.1,
				Country:      "Germany",
				Sector:       "Technology",
			},
		},
		Failures: []model.FailureRecord{{Symbol: "BAD", Error: "no price history"}},
		Rates:    model.NewFxRateTable("USD", map[string]float64{"EUR": 1.1}, nil),
		Notes:    []string{"AAPL: 2024-01-13 was not a trading day, using 2024-01-15"},
	}
}

func raw(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestTotals(t *testing.T) {
	r := New(testBatch(), nil, generated)
	value, cost, pnl := r.Totals()
	assert.Equal(t, "2550", value.String())
	assert.Equal(t, "1500", cost.String())
	assert.Equal(t, "500", pnl.String())
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "portfolio_20250602_0930", BaseName(generated))
}

func TestBuildWorkbook(t *testing.T) {
	r := New(testBatch(), nil, generated)
	f, err := BuildWorkbook(r)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetPortfolio, SheetDistribution, SheetFailures}, f.GetSheetList())

	cols := portfolioColumns("USD")
	assert.Equal(t, "Ticker", raw(t, f, SheetPortfolio, "A3"))
	assert.Equal(t, "AAPL", raw(t, f, SheetPortfolio, "A4"))
	assert.Equal(t, "SAP.DE", raw(t, f, SheetPortfolio, "A5"))
	assert.Equal(t, "Value (USD)", raw(t, f, SheetPortfolio, cell(len(cols)-1, 3)))

	// SAP has no buy price: cost basis stays empty rather than zero
	assert.Equal(t, "", raw(t, f, SheetPortfolio, cell(9, 5)))
	assert.Equal(t, "150", raw(t, f, SheetPortfolio, cell(6, 4)))

	assert.Equal(t, "TOTAL (USD)", raw(t, f, SheetPortfolio, "A6"))
	assert.Equal(t, "2550", raw(t, f, SheetPortfolio, cell(len(cols)-1, 6)))
	assert.Equal(t, "500", raw(t, f, SheetPortfolio, cell(len(cols), 6)))

	assert.Equal(t, "Germany", raw(t, f, SheetDistribution, "A4"))
	assert.Equal(t, "United States", raw(t, f, SheetDistribution, "A5"))
	assert.Equal(t, "Technology", raw(t, f, SheetDistribution, "F4"))
	assert.Equal(t, "2", raw(t, f, SheetDistribution, "G4"))

	assert.Equal(t, "BAD", raw(t, f, SheetFailures, "A2"))
}

func TestBuildWorkbookWithAnalysis(t *testing.T) {
	a := &summary.Analysis{
		Model:       "test-model",
		GeneratedAt: generated,
		Text:        "## Overview\nLooks fine.",
		Sections:    summary.SplitSections("## Overview\nLooks fine."),
	}
	b := testBatch()
	b.Failures, b.Notes = nil, nil
	f, err := BuildWorkbook(New(b, a, generated))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetPortfolio, SheetDistribution, SheetAnalysis}, f.GetSheetList())
	assert.Equal(t, "Overview", raw(t, f, SheetAnalysis, "A3"))
	assert.Equal(t, "Looks fine.", raw(t, f, SheetAnalysis, "A4"))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, New(testBatch(), nil, generated)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Ticker", records[0][0])
	assert.Equal(t, "Buy Date", records[0][4])

	assert.Equal(t, "AAPL", records[1][0])
	assert.Equal(t, "2024-01-15", records[1][4])
	assert.Equal(t, "150", records[1][5])

	assert.Equal(t, "SAP.DE", records[2][0])
	assert.Equal(t, "", records[2][4])
	assert.Equal(t, "", records[2][5])
	assert.Equal(t, "550", records[2][len(records[2])-2])
}

func TestMarkdown(t *testing.T) {
	md := Markdown(New(testBatch(), nil, generated))

	assert.Contains(t, md, "# Stock Portfolio Report")
	assert.Contains(t, md, "Total value: $2,550.00")
	assert.Contains(t, md, "| AAPL | Apple Inc. | 200.00 | USD | +10.00% | -5.00% | n/a |")
	assert.Contains(t, md, "## By Country")
	assert.Contains(t, md, "| Germany | 1 | 50.0% | $550.00 |")
	assert.Contains(t, md, "- **BAD**: no price history")
	assert.Contains(t, md, "was not a trading day")
	assert.NotContains(t, md, "AI Analysis")
}

func TestMarkdownAnalysisHeadingsNested(t *testing.T) {
	a := &summary.Analysis{Model: "m", Text: "## Risks\nConcentrated."}
	md := Markdown(New(testBatch(), a, generated))
	assert.Contains(t, md, "## AI Analysis (m)")
	assert.Contains(t, md, "#### Risks")
}

func TestPieChartPNG(t *testing.T) {
	r := New(testBatch(), nil, generated)
	png, err := PieChartPNG("By Country", r.Distribution.Countries)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = PieChartPNG("empty", nil)
	assert.Error(t, err)
}

func TestWriterWritesEveryFormat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(dir, []string{FormatXLSX, FormatCSV, FormatMarkdown}, zerolog.Nop())

	paths, err := w.Write(New(testBatch(), nil, generated))
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "portfolio_20250602_0930.xlsx"), paths[0])
	for _, p := range paths {
		st, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, st.Size())
	}
}

func TestWriterRejectsUnknownFormat(t *testing.T) {
	w := NewWriter(t.TempDir(), []string{"pdf"}, zerolog.Nop())
	_, err := w.Write(New(testBatch(), nil, generated))
	assert.ErrorContains(t, err, "unknown report format")
}
