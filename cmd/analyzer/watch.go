package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"StockAnalyzer/internal/scheduler"
	"StockAnalyzer/internal/server"
)

type watchCmd struct {
	common
	runNow bool
	noHTTP bool
	noAI   bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "re-run the report on a schedule and when the tickers file changes" }
func (*watchCmd) Usage() string {
	return `analyzer watch [flags] [tickers.txt]

  Runs until interrupted. The report is regenerated on schedule.report_cron
  and whenever the tickers file differs from the last processed input, which
  is checked on schedule.poll_cron. Both expressions include a seconds field. The
  latest report and the run history are served on server.addr.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	c.common.setFlags(f)
	f.BoolVar(&c.runNow, "now", false, "Run the report once at start.")
	f.BoolVar(&c.noHTTP, "no-http", false, "Do not start the HTTP API.")
	f.BoolVar(&c.noAI, "no-ai", false, "Skip the AI analysis even when an API key is configured.")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tickersFile := "tickers.txt"
	if f.NArg() > 0 {
		tickersFile = f.Arg(0)
	}

	cfg, log, err := c.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, tickersFile, c.noAI)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	sched := scheduler.NewScheduler(ctx, a.runner, a.notifier, tickersFile, cfg.Watch.StateFile, log)
	if err := sched.RegisterAll(cfg.Schedule.ReportCron, cfg.Schedule.PollCron); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	if c.runNow {
		go sched.RunNow()
	}

	var srv *server.Server
	if !c.noHTTP {
		srv = server.New(server.Config{
			Addr:     cfg.Server.Addr,
			Log:      log,
			Latest:   a.runner.Latest,
			Recorder: a.recorder,
		})
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("HTTP server stopped")
				stop()
			}
		}()
	}

	log.Info().Str("tickers", tickersFile).Msg("watching, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown")
		}
	}
	return subcommands.ExitSuccess
}
