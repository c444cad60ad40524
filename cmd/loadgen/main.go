// Command loadgen drives the roster API the way its browser frontend does,
// reporting page views, timed actions and API calls to the ingestion
// endpoint.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rosterwatch/rosterwatch/internal/emitter"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "Path to a YAML scenario file")
		baseURL      = flag.String("base-url", "", "API base URL (overrides the scenario)")
		verbose      = flag.Bool("v", false, "Log emitter send failures")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		logger.Error("failed to load scenario", "error", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		sc.BaseURL = *baseURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	em := emitter.New(sc.BaseURL, emitter.WithLogger(logger))
	r := newRunner(sc, em, logger)

	logger.Info("load generation started",
		"base_url", sc.BaseURL,
		"iterations", sc.Iterations,
		"concurrency", sc.Concurrency,
		"mock_error_rate", sc.MockErrorRate,
	)

	start := time.Now()
	runErr := r.Run(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	em.Flush(flushCtx)
	cancel()

	logger.Info("load generation finished",
		"iterations", r.stats.Iterations.Load(),
		"failed", r.stats.Failed.Load(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if runErr != nil {
		logger.Error("load generation interrupted", "error", runErr)
		os.Exit(1)
	}
}
