package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"proxycheck/internal/app/version"
	"proxycheck/internal/config"
	"proxycheck/internal/domain"
	"proxycheck/internal/jobs/checker"
	"proxycheck/internal/proxylist"
)

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	if cfg.ShowVersion {
		fmt.Fprintln(os.Stdout, version.Get())
		return nil
	}

	configureLogging(cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	locator := openLocator(cfg.GeoLiteDB)
	defer func() {
		if err := locator.Close(); err != nil {
			log.Warn("error closing GeoLite database", "error", err)
		}
	}()

	runCfg := cfg.RunConfig()
	reporter := newProgressReporter(os.Stderr, locator)

	_, err = Execute(ctx, runCfg, source, checker.NewHTTPProber(runCfg), proxylist.NewFileSink(cfg.OutputFile), reporter)
	return err
}

func configureLogging(verbose bool) {
	if verbose {
		log.SetLevel(log.DebugLevel)
		return
	}
	log.SetLevel(log.InfoLevel)
}

// Execute loads the candidates, checks them and writes the working ones.
// An interrupted run still writes its partial result set and is not an error.
func Execute(
	ctx context.Context,
	runCfg domain.RunConfiguration,
	source proxylist.Source,
	prober checker.Prober,
	sink proxylist.Sink,
	observer checker.Observer,
) (checker.Report, error) {
	addresses, err := source.Load(ctx)
	if err != nil {
		return checker.Report{}, fmt.Errorf("app: load proxies: %w", err)
	}

	log.Info("Checking proxies",
		"count", len(addresses),
		"type", runCfg.Scheme,
		"threads", runCfg.MaxConcurrent,
		"timeout", runCfg.Timeout,
	)

	if runCfg.StartRate > 0 {
		log.Info("Pacing probe starts", "interval", config.StartInterval(runCfg.StartRate))
	}

	dispatcher, err := checker.NewDispatcher(runCfg, prober, checker.WithObserver(observer))
	if err != nil {
		return checker.Report{}, fmt.Errorf("app: create dispatcher: %w", err)
	}

	report := dispatcher.Run(ctx, addresses)
	if finisher, ok := observer.(interface{ Finish() }); ok {
		finisher.Finish()
	}

	if report.Interrupted {
		log.Warn("Process interrupted", "checked", report.Completed, "total", report.Total)
	}

	written, err := sink.Write(report.Results)
	if err != nil {
		log.Error("Failed to save working proxies", "file", sink.Location(), "error", err)
		return report, fmt.Errorf("app: write results: %w", err)
	}

	if written {
		log.Infof("Saved %d working proxies to %s", report.Results.Len(), sink.Location())
	} else {
		log.Info("No working proxies found.")
	}
	logSummary(report)

	return report, nil
}

func logSummary(report checker.Report) {
	log.Info("Run summary",
		"total", report.Total,
		"checked", report.Completed,
		"working", report.Succeeded,
		"failed", report.Completed-report.Succeeded,
		"avg_latency", report.AverageLatency,
		"elapsed", report.Elapsed,
	)
	for reason, count := range report.Failures {
		log.Debug("Failures by reason", "reason", reason, "count", count)
	}
}
