// Package pipeline runs one end-to-end portfolio analysis.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/collector"
	"StockAnalyzer/internal/distribution"
	"StockAnalyzer/internal/model"
	"StockAnalyzer/internal/notifier"
	"StockAnalyzer/internal/publish"
	"StockAnalyzer/internal/recorder"
	"StockAnalyzer/internal/report"
	"StockAnalyzer/internal/summary"
	"StockAnalyzer/internal/tickers"
)

// Deps are the collaborators of a Runner. Only Collector and Writer are required.
type Deps struct {
	Collector  *collector.Collector
	Writer     *report.Writer
	Summarizer *summary.Summarizer
	Recorder   recorder.Recorder
	Publisher  publish.Publisher
	Notifier   notifier.Notifier
}

// Result is the outcome of a successful run.
type Result struct {
	ID          string
	StartedAt   time.Time
	Duration    time.Duration
	TickersFile string
	Report      *report.Report
	Projection  summary.Projection
	Outputs     []string
	Published   []string
}

// Breakdown returns the country and sector distribution of the run.
func (r *Result) Breakdown() distribution.Breakdown { return r.Report.Distribution }

// Runner executes analysis runs and keeps the latest result.
type Runner struct {
	deps Deps
	log  zerolog.Logger
	now  func() time.Time

	mu     sync.RWMutex
	latest *Result
}

// NewRunner creates a Runner. Missing optional collaborators are replaced by no-ops.
func NewRunner(d Deps, log zerolog.Logger) *Runner {
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	if d.Publisher == nil {
		d.Publisher = publish.NoopPublisher{}
	}
	if d.Notifier == nil {
		d.Notifier = notifier.NoopNotifier{}
	}
	return &Runner{
		deps: d,
		log:  log.With().Str("component", "pipeline").Logger(),
		now:  time.Now,
	}
}

// Latest returns the result of the most recent successful run, or nil.
func (r *Runner) Latest() *Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Run analyzes the tickers file at path.
func (r *Runner) Run(ctx context.Context, path string) (*Result, error) {
	entries, warnings, err := tickers.ReadFile(path)
	for _, w := range warnings {
		r.log.Warn().Str("file", path).Msg(w)
	}
	if err != nil {
		r.notifyFailure(ctx, err)
		return nil, err
	}
	return r.RunEntries(ctx, path, entries, warnings)
}

// RunEntries analyzes already parsed entries. Only an empty result set fails the run;
// recording, publishing and notification errors are logged.
func (r *Runner) RunEntries(ctx context.Context, source string, entries []model.TickerEntry, warnings []string) (*Result, error) {
	res := &Result{ID: uuid.NewString(), StartedAt: r.now(), TickersFile: source}
	log := r.log.With().Str("run_id", res.ID).Logger()
	log.Info().Str("tickers", source).Int("entries", len(entries)).Msg("run started")

	batch, err := r.deps.Collector.Collect(ctx, entries)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoSecurities) {
			log.Error().Int("failed", len(batch.Failures)).Msg("no security could be analyzed")
		}
		r.notifyFailure(ctx, err)
		return nil, fmt.Errorf("collect: %w", err)
	}
	batch.Notes = append(append([]string(nil), warnings...), batch.Notes...)

	res.Projection = summary.Project(batch)
	analysis := r.deps.Summarizer.Summarize(ctx, res.Projection)
	if analysis == nil {
		batch.Notes = append(batch.Notes, "AI analysis skipped: no API key configured")
	}

	res.Report = report.New(batch, analysis, res.StartedAt)
	res.Outputs, err = r.deps.Writer.Write(res.Report)
	if err != nil {
		r.notifyFailure(ctx, err)
		return nil, fmt.Errorf("write report: %w", err)
	}

	res.Published, err = r.deps.Publisher.Publish(ctx, res.ID, res.Outputs)
	if err != nil {
		log.Error().Err(err).Msg("publish reports")
	}

	res.Duration = r.now().Sub(res.StartedAt)
	value, _, _ := res.Report.Totals()
	if err := r.deps.Recorder.RecordRun(&recorder.RunRecord{
		ID:          res.ID,
		StartedAt:   res.StartedAt,
		Duration:    res.Duration,
		TickersFile: source,
		Batch:       batch,
		TotalValue:  value,
		Outputs:     res.Outputs,
	}); err != nil {
		log.Error().Err(err).Msg("record run")
	}

	outputs := res.Outputs
	if len(res.Published) > 0 {
		outputs = res.Published
	}
	if err := r.deps.Notifier.Notify(ctx, notifier.FormatRunSummary(notifier.RunInfo{
		ID:         res.ID,
		StartedAt:  res.StartedAt,
		Batch:      batch,
		TotalValue: value,
		Outputs:    outputs,
	})); err != nil {
		log.Error().Err(err).Msg("send run summary")
	}

	r.mu.Lock()
	r.latest = res
	r.mu.Unlock()

	log.Info().
		Int("securities", len(batch.Securities)).
		Int("failures", len(batch.Failures)).
		Str("total_value", model.FormatAmount(value, batch.Rates.Reporting())).
		Dur("duration", res.Duration).
		Msg("run finished")
	return res, nil
}

func (r *Runner) notifyFailure(ctx context.Context, err error) {
	if nerr := r.deps.Notifier.Notify(ctx, notifier.FormatError(err)); nerr != nil {
		r.log.Error().Err(nerr).Msg("send failure notification")
	}
}
