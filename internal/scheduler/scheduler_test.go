package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyzer/internal/pipeline"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRunner) Run(context.Context, string) (*pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Result{ID: "run-1"}, nil
}

type captureNotifier struct{ messages []string }

func (c *captureNotifier) Notify(_ context.Context, text string) error {
	c.messages = append(c.messages, text)
	return nil
}

func setup(t *testing.T, content string) (*Scheduler, *fakeRunner, *captureNotifier) {
	t.Helper()
	dir := t.TempDir()
	tickersFile := filepath.Join(dir, "tickers.txt")
	require.NoError(t, os.WriteFile(tickersFile, []byte(content), 0o644))
	r, n := &fakeRunner{}, &captureNotifier{}
	s := NewScheduler(context.Background(), r, n, tickersFile, filepath.Join(dir, "state", "watch.json"), zerolog.Nop())
	return s, r, n
}

func TestPollRunsOnlyOnChange(t *testing.T) {
	s, r, n := setup(t, "AAPL\nMSFT\n")

	assert.True(t, s.Poll())
	assert.Equal(t, 1, r.calls)
	assert.Empty(t, n.messages, "first run has nothing to compare against")

	assert.False(t, s.Poll())
	assert.Equal(t, 1, r.calls)

	require.NoError(t, os.WriteFile(s.TickersFile, []byte("AAPL\nNVDA\n"), 0o644))
	assert.True(t, s.Poll())
	assert.Equal(t, 2, r.calls)
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Added: NVDA")
	assert.Contains(t, n.messages[0], "Removed: MSFT")

	state, err := LoadState(s.StateFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA"}, state.Symbols)
	assert.Equal(t, "run-1", state.LastRunID)
}

func TestPollSharesChangeRunsWithoutSymbolNotice(t *testing.T) {
	s, r, n := setup(t, "AAPL,1\n")
	require.True(t, s.Poll())
	require.NoError(t, os.WriteFile(s.TickersFile, []byte("AAPL,2\n"), 0o644))

	assert.True(t, s.Poll())
	assert.Equal(t, 2, r.calls)
	assert.Empty(t, n.messages)
}

func TestPollFailedRunIsNotRetried(t *testing.T) {
	s, r, _ := setup(t, "BAD\n")
	r.err = errors.New("no securities")

	assert.True(t, s.Poll())
	assert.False(t, s.Poll())
	assert.Equal(t, 1, r.calls)

	state, err := LoadState(s.StateFile)
	require.NoError(t, err)
	assert.Empty(t, state.LastRunID)
}

func TestPollMissingTickersFile(t *testing.T) {
	s, r, _ := setup(t, "AAPL\n")
	require.NoError(t, os.Remove(s.TickersFile))
	assert.False(t, s.Poll())
	assert.Zero(t, r.calls)
}

func TestRunNowSkipsWhenBusy(t *testing.T) {
	s, r, _ := setup(t, "AAPL\n")
	s.running.Lock()
	s.RunNow()
	s.running.Unlock()
	assert.Zero(t, r.calls)

	s.RunNow()
	assert.Equal(t, 1, r.calls)
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := setup(t, "AAPL\n")
	require.NoError(t, s.RegisterAll("0 30 22 * * 1-5", "0 * * * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	s2, _, _ := setup(t, "AAPL\n")
	require.NoError(t, s2.RegisterAll("", "0 * * * * *"))
	assert.Len(t, s2.Cron.Entries(), 1)

	assert.Error(t, s.RegisterAll("not a cron", ""))
}

func TestLoadStateMissingFile(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Empty(t, state.Content)
}

func TestDiffSymbols(t *testing.T) {
	added, removed := diffSymbols([]string{"A", "B", "C"}, []string{"C", "D", "A"})
	assert.Equal(t, []string{"D"}, added)
	assert.Equal(t, []string{"B"}, removed)

	added, removed = diffSymbols(nil, nil)
	assert.Empty(t, added)
	assert.Empty(t, removed)
}
