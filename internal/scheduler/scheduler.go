// Package scheduler re-runs the analysis on a cron schedule and when the tickers file changes.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockAnalyzer/internal/notifier"
	"StockAnalyzer/internal/pipeline"
	"StockAnalyzer/internal/tickers"
)

// Runner runs the analysis of a tickers file.
type Runner interface {
	Run(ctx context.Context, path string) (*pipeline.Result, error)
}

// Scheduler manages the watch-mode cron tasks.
type Scheduler struct {
	Cron        *cron.Cron
	Runner      Runner
	Notifier    notifier.Notifier
	TickersFile string
	StateFile   string
	Ctx         context.Context

	log     zerolog.Logger
	running sync.Mutex
	stateMu sync.Mutex
}

// NewScheduler creates a new Scheduler. Cron expressions include a seconds field.
func NewScheduler(ctx context.Context, runner Runner, n notifier.Notifier, tickersFile, stateFile string, log zerolog.Logger) *Scheduler {
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Runner:      runner,
		Notifier:    n,
		TickersFile: tickersFile,
		StateFile:   stateFile,
		Ctx:         ctx,
		log:         log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the report task and the tickers-file poll task.
// An empty cron expression disables the task.
func (s *Scheduler) RegisterAll(reportCron, pollCron string) error {
	if reportCron != "" {
		if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
			return fmt.Errorf("register report task: %w", err)
		}
	}
	if pollCron != "" {
		if _, err := s.Cron.AddFunc(pollCron, s.pollTask); err != nil {
			return fmt.Errorf("register poll task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow runs the report task immediately.
func (s *Scheduler) RunNow() {
	s.reportTask()
}

func (s *Scheduler) reportTask() {
	s.log.Info().Msg("running scheduled report")
	content, err := os.ReadFile(s.TickersFile)
	if err != nil {
		s.log.Error().Err(err).Msg("read tickers file")
		return
	}
	s.run(string(content))
}

func (s *Scheduler) pollTask() {
	s.Poll()
}

// Poll runs the analysis when the tickers file differs from the last processed input.
// It reports whether a run was started.
func (s *Scheduler) Poll() bool {
	content, err := os.ReadFile(s.TickersFile)
	if err != nil {
		s.log.Error().Err(err).Msg("read tickers file")
		return false
	}

	s.stateMu.Lock()
	state, err := LoadState(s.StateFile)
	s.stateMu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Str("state_file", s.StateFile).Msg("load watch state")
		return false
	}
	if state.Content == string(content) && state.TickersFile == s.TickersFile {
		return false
	}

	next := symbolsOf(string(content))
	added, removed := diffSymbols(state.Symbols, next)
	s.log.Info().Strs("added", added).Strs("removed", removed).Msg("tickers file changed")
	if state.Content != "" && (len(added) > 0 || len(removed) > 0) {
		s.trySend(notifier.FormatTickersChanged(added, removed))
	}
	return s.run(string(content))
}

// run runs the pipeline unless a run is already in progress, then stores the processed input.
func (s *Scheduler) run(content string) bool {
	if !s.running.TryLock() {
		s.log.Warn().Msg("previous run still in progress, skipping")
		return false
	}
	defer s.running.Unlock()

	state := &State{TickersFile: s.TickersFile, Content: content, Symbols: symbolsOf(content)}
	res, err := s.Runner.Run(s.Ctx, s.TickersFile)
	if err != nil {
		s.log.Error().Err(err).Msg("run failed")
	} else {
		state.LastRunID = res.ID
	}

	// failed inputs count as processed: an unchanged broken file is not retried
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if err := SaveState(s.StateFile, state); err != nil {
		s.log.Error().Err(err).Str("state_file", s.StateFile).Msg("save watch state")
	}
	return true
}

func symbolsOf(content string) []string {
	entries, _, err := tickers.Parse(strings.NewReader(content))
	if err != nil {
		return nil
	}
	return tickers.Symbols(entries)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.Notify(s.Ctx, text); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
