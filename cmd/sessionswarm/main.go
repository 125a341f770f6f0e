package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/torosent/sessionswarm/internal/config"
	"github.com/torosent/sessionswarm/internal/dashboard"
	"github.com/torosent/sessionswarm/internal/metrics"
	"github.com/torosent/sessionswarm/internal/output"
	"github.com/torosent/sessionswarm/internal/progress"
	"github.com/torosent/sessionswarm/internal/runner"
	"github.com/torosent/sessionswarm/internal/session"
	"github.com/torosent/sessionswarm/internal/threshold"
	"github.com/torosent/sessionswarm/internal/tracing"
)

const tracingShutdownTimeout = 5 * time.Second

var errThresholdsFailed = errors.New("one or more thresholds failed")

type slogFailureLogger struct {
	logger *slog.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, cfg.LogLevel)
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	runID := output.NewRunID()
	provider, err := tracing.Init(ctx, cfg.Tracing, attribute.String("sessionswarm.run_id", runID))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", slog.Any("error", err))
		}
	}()

	exec, closeExec, err := newExecutor(cfg, provider.ShouldPropagate())
	if err != nil {
		return err
	}
	defer closeExec()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The terminal belongs to the dashboard while it is up.
	runLogger := logger
	if cfg.Dashboard {
		runLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.LogErrors {
		exec = runner.WithLogging(exec, &slogFailureLogger{logger: runLogger})
	}
	if cfg.Tracing.Enabled() {
		exec = tracing.WithSpans(exec, provider.Tracer(), string(cfg.Protocol), cfg.TargetURL)
	}

	collector := metrics.NewCollector()
	observers := []runner.Observer{collector}
	if cfg.Verbose && cfg.VerboseSessions > 0 {
		observers = append(observers, output.NewSessionLogger(runLogger, cfg.VerboseSessions))
	}

	machineOutput := cfg.JSONOutput || cfg.YAMLOutput
	var notifier progress.Notifier
	var dash *dashboard.Dashboard
	switch {
	case cfg.Dashboard:
		dash, err = dashboard.New(collector, dashboardConfig(cfg), cancel)
		if err != nil {
			return err
		}
		notifier = dash
	case !machineOutput:
		notifier = output.NewProgressPrinter(stdout, collector)
	}

	r, err := runner.New(runner.Options{
		Total:         cfg.Total,
		MaxConcurrent: cfg.Concurrency,
		RatePerSecond: cfg.Rate,
		Executor:      exec,
		Progress:      notifier,
		ProgressEvery: cfg.ProgressEvery,
		Observers:     observers,
	})
	if err != nil {
		if dash != nil {
			dash.Stop()
		}
		return err
	}

	info := output.RunInfo{
		ID:            runID,
		Target:        cfg.TargetURL,
		Protocol:      string(cfg.Protocol),
		Total:         cfg.Total,
		MaxConcurrent: r.MaxConcurrent(),
		RatePerSecond: cfg.Rate,
	}
	if !machineOutput && !cfg.Dashboard {
		output.PrintBanner(stdout, info)
	}

	if dash != nil {
		dash.Start()
	}
	info.StartedAt = time.Now()
	collector.Start()
	result := r.Run(ctx)
	info.FinishedAt = time.Now()
	if dash != nil {
		dash.Stop()
	}

	report, err := metrics.Aggregate(result.Sessions, result.Duration)
	if err != nil {
		return err
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(report)

	switch {
	case cfg.JSONOutput:
		err = output.PrintJSONReport(stdout, output.NewDocument(info, report, results))
	case cfg.YAMLOutput:
		err = output.PrintYAMLReport(stdout, output.NewDocument(info, report, results))
	default:
		output.PrintReport(stdout, info, report, results)
	}
	if err != nil {
		return err
	}

	if cfg.HTMLOutput != "" {
		if err := output.WriteHTMLReport(cfg.HTMLOutput, info, report, results); err != nil {
			return fmt.Errorf("html report: %w", err)
		}
		logger.Info("html report written", slog.String("path", cfg.HTMLOutput))
	}

	if !threshold.AllPassed(results) {
		return errThresholdsFailed
	}
	return nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func dashboardConfig(cfg *config.Config) dashboard.RunConfig {
	return dashboard.RunConfig{
		TargetURL:     cfg.TargetURL,
		Protocol:      string(cfg.Protocol),
		Total:         cfg.Total,
		MaxConcurrent: min(cfg.Concurrency, cfg.Total),
		Rate:          cfg.Rate,
		Timeout:       cfg.Timeout,
		ConfigFile:    cfg.ConfigFile,
	}
}

func (l *slogFailureLogger) LogFailure(id int, status session.Status, message string) {
	l.logger.Error("session error",
		slog.Int("session", id),
		slog.String("status", status.String()),
		slog.String("error", message),
	)
}
