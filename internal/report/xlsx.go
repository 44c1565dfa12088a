package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"StockAnalyzer/internal/distribution"
)

// Sheet names.
const (
	SheetPortfolio    = "Portfolio"
	SheetDistribution = "Distribution"
	SheetFailures     = "Failures"
	SheetAnalysis     = "AI Analysis"
)

const (
	darkBlue  = "1F3864"
	medBlue   = "2E75B6"
	lightBlue = "DDEBF7"
	altRow    = "F2F2F2"
	greenFill = "E2EFDA"
	greenTot  = "375623"
	redFont   = "9C0006"
	greenFont = "276221"
)

var numFormats = map[cellKind]string{
	kindPrice:    "#,##0.00",
	kindShares:   "#,##0.####",
	kindPercent:  "0.00%",
	kindDate:     "yyyy-mm-dd",
	kindMillions: `#,##0,,"M"`,
	kindRatio:    "0.00",
	kindCount:    "0",
}

type styleKey struct {
	kind cellKind
	alt  bool
	sign int // -1 negative, 1 positive, 0 neutral
}

// workbook wraps an excelize file with a style cache.
type workbook struct {
	f      *excelize.File
	styles map[styleKey]int
}

func fill(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
}

func (w *workbook) newStyle(s *excelize.Style) int {
	id, err := w.f.NewStyle(s)
	if err != nil {
		// only fails on invalid style definitions, which are constants here
		panic(fmt.Sprintf("report: invalid style: %v", err))
	}
	return id
}

func (w *workbook) cellStyle(k styleKey) int {
	if id, ok := w.styles[k]; ok {
		return id
	}
	s := &excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}
	if k.kind == kindText {
		s.Alignment.Horizontal = "left"
	}
	if f, ok := numFormats[k.kind]; ok {
		s.CustomNumFmt = &f
	}
	if k.alt {
		s.Fill = fill(altRow)
	}
	switch k.sign {
	case -1:
		s.Font.Color = redFont
	case 1:
		s.Font.Color = greenFont
	}
	id := w.newStyle(s)
	w.styles[k] = id
	return id
}

func (w *workbook) titleStyle() int {
	return w.newStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 13},
		Fill:      fill(darkBlue),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func (w *workbook) headerStyle() int {
	return w.newStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 10},
		Fill:      fill(medBlue),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func colName(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}

// WriteXLSX writes the workbook to path.
func WriteXLSX(path string, r *Report) error {
	f, err := BuildWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// BuildWorkbook renders the report into an in-memory workbook.
func BuildWorkbook(r *Report) (*excelize.File, error) {
	w := &workbook{f: excelize.NewFile(), styles: make(map[styleKey]int)}
	if err := w.f.SetSheetName("Sheet1", SheetPortfolio); err != nil {
		return nil, err
	}
	if err := w.portfolioSheet(r); err != nil {
		return nil, fmt.Errorf("portfolio sheet: %w", err)
	}
	if err := w.distributionSheet(r); err != nil {
		return nil, fmt.Errorf("distribution sheet: %w", err)
	}
	if len(r.Batch.Failures) > 0 || len(r.Batch.Notes) > 0 {
		if err := w.failuresSheet(r); err != nil {
			return nil, fmt.Errorf("failures sheet: %w", err)
		}
	}
	if r.Analysis != nil {
		if err := w.analysisSheet(r); err != nil {
			return nil, fmt.Errorf("analysis sheet: %w", err)
		}
	}
	w.f.SetActiveSheet(0)
	return w.f, nil
}

func signOf(v any) int {
	x, ok := v.(float64)
	switch {
	case !ok || x == 0:
		return 0
	case x < 0:
		return -1
	default:
		return 1
	}
}

func (w *workbook) portfolioSheet(r *Report) error {
	f, sheet := w.f, SheetPortfolio
	cols := portfolioColumns(r.Reporting())
	last := colName(len(cols))

	if err := f.MergeCell(sheet, "A1", last+"1"); err != nil {
		return err
	}
	title := fmt.Sprintf("Stock Portfolio  ·  Generated %s  ·  Values in %s",
		r.GeneratedAt.Format("2006-01-02 15:04"), r.Reporting())
	f.SetCellValue(sheet, "A1", title)
	f.SetCellStyle(sheet, "A1", last+"1", w.titleStyle())
	f.SetRowHeight(sheet, 1, 26)
	f.SetRowHeight(sheet, 2, 4)

	header := w.headerStyle()
	for i, c := range cols {
		f.SetCellValue(sheet, cell(i+1, 3), c.header)
		f.SetColWidth(sheet, colName(i+1), colName(i+1), c.width)
	}
	f.SetCellStyle(sheet, "A3", cell(len(cols), 3), header)
	f.SetRowHeight(sheet, 3, 32)

	for i := range r.Batch.Securities {
		m := &r.Batch.Securities[i]
		row := i + 4
		for j, c := range cols {
			v := c.value(m)
			ref := cell(j+1, row)
			if v != nil {
				if err := f.SetCellValue(sheet, ref, v); err != nil {
					return err
				}
			}
			k := styleKey{kind: c.kind, alt: i%2 == 1}
			if c.signed() {
				k.sign = signOf(v)
			}
			f.SetCellStyle(sheet, ref, ref, w.cellStyle(k))
		}
	}

	dataEnd := len(r.Batch.Securities) + 3
	totalRow := dataEnd + 1
	totalStyle := w.newStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:         fill(greenTot),
		Alignment:    &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		CustomNumFmt: ptr(numFormats[kindPrice]),
	})
	labelStyle := w.newStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      fill(darkBlue),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	f.SetCellValue(sheet, cell(1, totalRow), "TOTAL ("+r.Reporting()+")")
	f.SetCellStyle(sheet, cell(1, totalRow), cell(1, totalRow), labelStyle)
	value, _, pnl := r.Totals()
	valueCol, pnlCol := len(cols)-1, len(cols)
	f.SetCellValue(sheet, cell(valueCol, totalRow), value.Round(2).InexactFloat64())
	f.SetCellValue(sheet, cell(pnlCol, totalRow), pnl.Round(2).InexactFloat64())
	f.SetCellStyle(sheet, cell(valueCol, totalRow), cell(pnlCol, totalRow), totalStyle)

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      4,
		YSplit:      3,
		TopLeftCell: "E4",
		ActivePane:  "bottomRight",
	}); err != nil {
		return err
	}
	if dataEnd > 3 {
		if err := f.AutoFilter(sheet, fmt.Sprintf("A3:%s%d", last, dataEnd), nil); err != nil {
			return err
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func (w *workbook) distributionSheet(r *Report) error {
	f, sheet := w.f, SheetDistribution
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	f.MergeCell(sheet, "A1", "I1")
	f.SetCellValue(sheet, "A1", "Portfolio Distribution")
	f.SetCellStyle(sheet, "A1", "I1", w.titleStyle())
	f.SetRowHeight(sheet, 1, 26)

	valueHeader := "Total Value (" + r.Reporting() + ")"
	for i, h := range []string{"Country", "# Stocks", "% Count", valueHeader, "", "Sector", "# Stocks", "% Count", valueHeader} {
		if h != "" {
			f.SetCellValue(sheet, cell(i+1, 3), h)
		}
	}
	header := w.headerStyle()
	f.SetCellStyle(sheet, "A3", "D3", header)
	f.SetCellStyle(sheet, "F3", "I3", header)
	f.SetRowHeight(sheet, 3, 28)

	w.categoryTable(sheet, 1, r.Distribution.Countries)
	w.categoryTable(sheet, 6, r.Distribution.Sectors)

	for col, width := range map[string]float64{"A": 18, "B": 10, "C": 10, "D": 16, "E": 3, "F": 22, "G": 10, "H": 10, "I": 16} {
		f.SetColWidth(sheet, col, col, width)
	}

	rows := max(len(r.Distribution.Countries), len(r.Distribution.Sectors))
	chartRow := rows + 6
	for i, g := range []struct {
		title      string
		categories []distribution.Category
		anchorCol  string
	}{
		{"By Country", r.Distribution.Countries, "A"},
		{"By Sector", r.Distribution.Sectors, "F"},
	} {
		if len(g.categories) == 0 {
			continue
		}
		png, err := PieChartPNG(g.title, g.categories)
		if err != nil {
			return fmt.Errorf("chart %d: %w", i, err)
		}
		if err := f.AddPictureFromBytes(sheet, fmt.Sprintf("%s%d", g.anchorCol, chartRow), &excelize.Picture{
			Extension: ".png",
			File:      png,
			Format:    &excelize.GraphicOptions{AltText: g.title, ScaleX: 0.6, ScaleY: 0.6},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) categoryTable(sheet string, firstCol int, categories []distribution.Category) {
	f := w.f
	for i, c := range categories {
		row := i + 4
		alt := i%2 == 1
		f.SetCellValue(sheet, cell(firstCol, row), c.Name)
		f.SetCellValue(sheet, cell(firstCol+1, row), c.Count)
		f.SetCellValue(sheet, cell(firstCol+2, row), c.Fraction)
		f.SetCellValue(sheet, cell(firstCol+3, row), c.TotalValue.Round(2).InexactFloat64())
		f.SetCellStyle(sheet, cell(firstCol, row), cell(firstCol, row), w.cellStyle(styleKey{kind: kindText, alt: alt}))
		f.SetCellStyle(sheet, cell(firstCol+1, row), cell(firstCol+1, row), w.cellStyle(styleKey{kind: kindCount, alt: alt}))
		f.SetCellStyle(sheet, cell(firstCol+2, row), cell(firstCol+2, row), w.cellStyle(styleKey{kind: kindPercent, alt: alt}))
		f.SetCellStyle(sheet, cell(firstCol+3, row), cell(firstCol+3, row), w.cellStyle(styleKey{kind: kindPrice, alt: alt}))
	}
}

func (w *workbook) failuresSheet(r *Report) error {
	f, sheet := w.f, SheetFailures
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	f.SetCellValue(sheet, "A1", "Ticker")
	f.SetCellValue(sheet, "B1", "Error")
	f.SetCellStyle(sheet, "A1", "B1", w.headerStyle())
	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "B", 90)
	row := 2
	for _, fr := range r.Batch.Failures {
		f.SetCellValue(sheet, cell(1, row), fr.Symbol)
		f.SetCellValue(sheet, cell(2, row), fr.Error)
		row++
	}
	if len(r.Batch.Notes) > 0 {
		row++
		f.SetCellValue(sheet, cell(1, row), "Notes")
		f.SetCellStyle(sheet, cell(1, row), cell(2, row), w.headerStyle())
		for _, n := range r.Batch.Notes {
			row++
			f.SetCellValue(sheet, cell(2, row), n)
		}
	}
	return nil
}

func (w *workbook) analysisSheet(r *Report) error {
	f, sheet := w.f, SheetAnalysis
	a := r.Analysis
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	f.SetColWidth(sheet, "A", "A", 110)
	f.SetCellValue(sheet, "A1", "AI Portfolio Analysis  ·  "+a.Model)
	f.SetCellStyle(sheet, "A1", "A1", w.titleStyle())
	f.SetRowHeight(sheet, 1, 26)

	sectionStyle := w.newStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: darkBlue, Size: 12},
		Fill:      fill(lightBlue),
		Alignment: &excelize.Alignment{WrapText: true},
	})
	bodyStyle := w.newStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	row := 3
	if a.Failed || len(a.Sections) == 0 {
		f.SetCellValue(sheet, cell(1, row), a.Text)
		f.SetCellStyle(sheet, cell(1, row), cell(1, row), bodyStyle)
		row++
	}
	for _, s := range a.Sections {
		if s.Title != "" {
			f.SetCellValue(sheet, cell(1, row), s.Title)
			f.SetCellStyle(sheet, cell(1, row), cell(1, row), sectionStyle)
			f.SetRowHeight(sheet, row, 20)
			row++
		}
		for _, line := range strings.Split(s.Body, "\n") {
			if strings.TrimSpace(line) == "" {
				f.SetRowHeight(sheet, row, 8)
			} else {
				f.SetCellValue(sheet, cell(1, row), line)
				f.SetCellStyle(sheet, cell(1, row), cell(1, row), bodyStyle)
			}
			row++
		}
		row++
	}

	note := fmt.Sprintf("Generated by %s · %s · For informational purposes only, not financial advice.",
		a.Model, a.GeneratedAt.Format("2006-01-02 15:04"))
	f.SetCellValue(sheet, cell(1, row+1), note)
	f.SetCellStyle(sheet, cell(1, row+1), cell(1, row+1), w.newStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true, Color: "888888", Size: 9},
	}))
	return nil
}
