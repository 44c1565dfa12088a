package scheduler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// State is the previously processed tickers input, the only state kept between runs.
type State struct {
	TickersFile string    `json:"tickers_file"`
	Content     string    `json:"content"`
	Symbols     []string  `json:"symbols"`
	LastRunID   string    `json:"last_run_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LoadState reads the watch state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the watch state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}

// diffSymbols returns the symbols only in next and only in prev, each in input order.
func diffSymbols(prev, next []string) (added, removed []string) {
	inPrev := make(map[string]bool, len(prev))
	for _, s := range prev {
		inPrev[s] = true
	}
	inNext := make(map[string]bool, len(next))
	for _, s := range next {
		inNext[s] = true
		if !inPrev[s] {
			added = append(added, s)
		}
	}
	for _, s := range prev {
		if !inNext[s] {
			removed = append(removed, s)
		}
	}
	return added, removed
}
