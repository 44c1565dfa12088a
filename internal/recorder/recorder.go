package recorder

import (
	"time"

	"github.com/shopspring/decimal"

	"StockAnalyzer/internal/model"
)

// RunRecord holds everything persisted for one analysis run.
type RunRecord struct {
	ID          string
	StartedAt   time.Time
	Duration    time.Duration
	TickersFile string
	Batch       *model.Batch
	TotalValue  decimal.Decimal // reporting currency
	Outputs     []string        // generated report files
}

// RunSummary is a row of the run history.
type RunSummary struct {
	ID                string          `json:"id"`
	StartedAt         time.Time       `json:"started_at"`
	DurationMs        int64           `json:"duration_ms"`
	TickersFile       string          `json:"tickers_file"`
	ReportingCurrency string          `json:"reporting_currency"`
	Succeeded         int             `json:"succeeded"`
	Failed            int             `json:"failed"`
	TotalValue        decimal.Decimal `json:"total_value"`
	Outputs           []string        `json:"outputs"`
}

// SecurityRow is a recorded security of a run.
type SecurityRow struct {
	Symbol         string              `json:"symbol"`
	Price          float64             `json:"price"`
	Currency       string              `json:"currency"`
	FxRate         float64             `json:"fx_rate"`
	ReportingValue decimal.NullDecimal `json:"reporting_value"`
	Snapshot       *Snapshot           `json:"snapshot"`
}

// Recorder persists run history. Nothing recorded is read back into calculations.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecentRuns(limit int) ([]RunSummary, error)
	RunSecurities(runID string) ([]SecurityRow, error)
	Close() error
}
