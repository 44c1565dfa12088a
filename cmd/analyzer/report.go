package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/subcommands"

	"StockAnalyzer/internal/report"
)

type reportCmd struct {
	common
	out    string
	noAI   bool
	quiet  bool
	style  string
	width  int
	format string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "analyze a tickers file and write the portfolio report" }
func (*reportCmd) Usage() string {
	return `analyzer report [flags] [tickers.txt]

  Fetches price history and info for every ticker, computes returns, 52-week
  ranges, buy prices and values in the reporting currency, and writes the
  report files next to the tickers file (or to -out). Each line of the
  tickers file is TICKER[,SHARES[,BUY_DATE]] with BUY_DATE as YYYY-MM-DD.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.common.setFlags(f)
	f.StringVar(&c.out, "out", "", "Output directory, overrides the config.")
	f.StringVar(&c.format, "format", "", "Comma-separated output formats (xlsx, csv, markdown), overrides the config.")
	f.BoolVar(&c.noAI, "no-ai", false, "Skip the AI analysis even when an API key is configured.")
	f.BoolVar(&c.quiet, "q", false, "Do not print the report to the terminal.")
	f.StringVar(&c.style, "style", "", "Terminal rendering style (dark, light, notty). Defaults to auto-detection.")
	f.IntVar(&c.width, "width", 120, "Terminal word wrap width.")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tickersFile := "tickers.txt"
	if f.NArg() > 0 {
		tickersFile = f.Arg(0)
	}

	cfg, log, err := c.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.out != "" {
		cfg.OutputDir = c.out
	}
	if c.format != "" {
		cfg.Formats = strings.Split(c.format, ",")
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, tickersFile, c.noAI)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	res, err := a.runner.Run(ctx, tickersFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if !c.quiet {
		md := report.Markdown(res.Report)
		out, err := report.RenderTerminal(md, c.style, c.width)
		if err != nil {
			log.Warn().Err(err).Msg("terminal rendering failed, printing raw markdown")
			out = md
		}
		fmt.Print(out)
	}
	for _, p := range res.Outputs {
		fmt.Fprintf(os.Stderr, "Saved: %s\n", p)
	}
	return subcommands.ExitSuccess
}
