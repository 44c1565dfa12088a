package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"StockAnalyzer/internal/model"
	"StockAnalyzer/internal/recorder"
	"StockAnalyzer/internal/report"
)

type runsCmd struct {
	common
	limit  int
	id     string
	asJSON bool
}

func (*runsCmd) Name() string     { return "runs" }
func (*runsCmd) Synopsis() string { return "list recorded runs" }
func (*runsCmd) Usage() string {
	return `analyzer runs [-n N] [-id RUN_ID] [-json]

  Lists the most recent runs recorded in database.sqlite_path, or the
  securities of one run with -id.
`
}

func (c *runsCmd) SetFlags(f *flag.FlagSet) {
	c.common.setFlags(f)
	f.IntVar(&c.limit, "n", 10, "Number of runs to list.")
	f.StringVar(&c.id, "id", "", "Show the securities of this run.")
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a table.")
}

func (c *runsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, log, err := c.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer rec.Close()

	var (
		v  any
		md string
	)
	if c.id != "" {
		rows, err := rec.RunSecurities(c.id)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if len(rows) == 0 {
			fmt.Fprintf(os.Stderr, "run %s not found\n", c.id)
			return subcommands.ExitFailure
		}
		v, md = rows, securitiesTable(rows)
	} else {
		runs, err := rec.RecentRuns(c.limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		v, md = runs, runsTable(runs)
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	out, err := report.RenderTerminal(md, "", 160)
	if err != nil {
		out = md
	}
	fmt.Print(out)
	return subcommands.ExitSuccess
}

func runsTable(runs []recorder.RunSummary) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}
	var b strings.Builder
	b.WriteString("| Run | Started | Tickers | OK | Failed | Total Value |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d | %s |\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.TickersFile,
			r.Succeeded, r.Failed, model.FormatAmount(r.TotalValue, r.ReportingCurrency))
	}
	return b.String()
}

func securitiesTable(rows []recorder.SecurityRow) string {
	var b strings.Builder
	b.WriteString("| Ticker | Price | Currency | FX Rate | Value |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, r := range rows {
		value := "-"
		if r.ReportingValue.Valid {
			value = r.ReportingValue.Decimal.StringFixed(2)
		}
		fmt.Fprintf(&b, "| %s | %.2f | %s | %.4f | %s |\n", r.Symbol, r.Price, r.Currency, r.FxRate, value)
	}
	return b.String()
}
