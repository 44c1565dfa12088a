// Package tickers parses the portfolio input file.
//
// Each non-blank line not starting with '#' is "SYMBOL[,shares[,YYYY-MM-DD]]".
// Malformed shares or dates are dropped with a warning; the symbol is kept.
package tickers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

const dateLayout = "2006-01-02"

// Parse reads ticker entries from r. Warnings describe ignored fields.
func Parse(r io.Reader) ([]model.TickerEntry, []string, error) {
	var (
		entries  []model.TickerEntry
		warnings []string
	)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		symbol := strings.ToUpper(parts[0])
		if symbol == "" {
			continue
		}
		entry := model.TickerEntry{Symbol: symbol}

		if len(parts) > 1 && parts[1] != "" {
			shares, err := strconv.ParseFloat(parts[1], 64)
			switch {
			case err != nil:
				warnings = append(warnings, fmt.Sprintf("line %d: invalid share count %q for %s, ignoring", lineNo, parts[1], symbol))
			case shares <= 0:
				warnings = append(warnings, fmt.Sprintf("line %d: non-positive share count %q for %s, ignoring", lineNo, parts[1], symbol))
			default:
				entry.Shares = null.FloatFrom(shares)
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			d, err := time.Parse(dateLayout, parts[2])
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("line %d: invalid date %q for %s, ignoring", lineNo, parts[2], symbol))
			} else {
				entry.BuyDate = null.TimeFrom(d)
			}
		}
		entries = append(entries, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, warnings, fmt.Errorf("read tickers: %w", err)
	}
	return entries, warnings, nil
}

// ReadFile parses the tickers file at path. It returns ErrNoTickers when the file
// holds no entries.
func ReadFile(path string) ([]model.TickerEntry, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open tickers: %w", err)
	}
	defer f.Close()

	entries, warnings, err := Parse(f)
	if err != nil {
		return nil, warnings, err
	}
	if len(entries) == 0 {
		return nil, warnings, fmt.Errorf("%s: %w", path, apperrors.ErrNoTickers)
	}
	return entries, warnings, nil
}

// Symbols returns the symbols of entries in input order.
func Symbols(entries []model.TickerEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Symbol
	}
	return out
}
