package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Analysis is the generated narrative of one run.
type Analysis struct {
	Model       string
	GeneratedAt time.Time
	Text        string
	Sections    []Section
	Failed      bool // Text holds the error message instead of an analysis
}

// Summarizer produces the narrative analysis of a projection.
type Summarizer struct {
	gen Generator
	log zerolog.Logger
}

// NewSummarizer creates a Summarizer. A nil generator disables the analysis.
func NewSummarizer(gen Generator, log zerolog.Logger) *Summarizer {
	return &Summarizer{gen: gen, log: log.With().Str("component", "summary").Logger()}
}

// Enabled reports whether a generator is configured.
func (s *Summarizer) Enabled() bool { return s != nil && s.gen != nil }

// Summarize asks the generator for an analysis. It returns nil when disabled.
// Generation errors are reported inside the Analysis and never fail the run.
func (s *Summarizer) Summarize(ctx context.Context, p Projection) *Analysis {
	if !s.Enabled() {
		return nil
	}
	a := &Analysis{Model: s.gen.Model(), GeneratedAt: time.Now()}

	prompt, err := BuildPrompt(p)
	if err == nil {
		s.log.Info().Str("model", a.Model).Int("securities", len(p.Securities)).Msg("requesting analysis")
		a.Text, err = s.gen.Generate(ctx, prompt)
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("analysis failed")
		a.Failed = true
		a.Text = fmt.Sprintf("Error generating AI analysis: %v\n\nCheck that GEMINI_API_KEY is valid.", err)
		return a
	}
	a.Sections = SplitSections(a.Text)
	return a
}
