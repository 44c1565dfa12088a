// Package fx resolves spot conversion rates into the reporting currency.
package fx

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"StockAnalyzer/internal/apperrors"
	"StockAnalyzer/internal/model"
)

// Quoter returns the latest close of a symbol within a lookback period.
type Quoter interface {
	FetchLatestClose(ctx context.Context, symbol, lookback string) (float64, error)
}

// Normalizer builds an FxRateTable for a set of currencies.
type Normalizer struct {
	quoter    Quoter
	reporting string
	lookback  string
	log       zerolog.Logger
}

// NewNormalizer creates a Normalizer for the given reporting currency.
func NewNormalizer(q Quoter, reporting, lookback string, log zerolog.Logger) *Normalizer {
	if lookback == "" {
		lookback = "5d"
	}
	return &Normalizer{
		quoter:    q,
		reporting: strings.ToUpper(reporting),
		lookback:  lookback,
		log:       log.With().Str("component", "fx").Logger(),
	}
}

// Reporting returns the reporting currency.
func (n *Normalizer) Reporting() string { return n.reporting }

// PairSymbol returns the quote symbol converting from into to, e.g. USDEUR=X.
func PairSymbol(from, to string) string {
	return from + to + "=X"
}

// Rate fetches the spot rate converting one unit of cur into the reporting currency.
// Minor-unit codes such as GBp are quoted through their ISO currency and scaled.
func (n *Normalizer) Rate(ctx context.Context, cur string) (float64, error) {
	if cur == n.reporting {
		return 1.0, nil
	}
	major, divisor := MajorUnit(cur)
	if major == n.reporting {
		return 1.0 / divisor, nil
	}
	pair := PairSymbol(major, n.reporting)
	r, err := n.quoter.FetchLatestClose(ctx, pair, n.lookback)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", apperrors.ErrFxRateUnavailable, pair, err)
	}
	if math.IsNaN(r) || r <= 0 {
		return 0, fmt.Errorf("%w: %s: non-positive rate %v", apperrors.ErrFxRateUnavailable, pair, r)
	}
	return r / divisor, nil
}

// Build resolves every distinct currency once. A currency that cannot be resolved
// gets a 1.0 rate and a warning; Build never fails the run.
func (n *Normalizer) Build(ctx context.Context, currencies []string) (model.FxRateTable, []string) {
	seen := make(map[string]bool, len(currencies))
	distinct := make([]string, 0, len(currencies))
	for _, c := range currencies {
		c = Canonical(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		distinct = append(distinct, c)
	}
	sort.Strings(distinct)

	rates := make(map[string]float64, len(distinct))
	var degraded, warnings []string
	for _, cur := range distinct {
		if cur == n.reporting {
			continue
		}
		r, err := n.Rate(ctx, cur)
		if err != nil {
			n.log.Warn().Err(err).Str("currency", cur).Msg("fx rate unavailable, using 1.0")
			degraded = append(degraded, cur)
			warnings = append(warnings,
				fmt.Sprintf("%s→%s rate unavailable, values converted at 1.0", cur, n.reporting))
			continue
		}
		n.log.Debug().Str("currency", cur).Float64("rate", r).Msg("fx rate resolved")
		rates[cur] = r
	}
	return model.NewFxRateTable(n.reporting, rates, degraded), warnings
}
