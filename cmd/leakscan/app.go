package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/leakscan/pkg/config"
	"mercator-hq/leakscan/pkg/detector"
	"mercator-hq/leakscan/pkg/scan"
	"mercator-hq/leakscan/pkg/telemetry/logging"
	"mercator-hq/leakscan/pkg/telemetry/metrics"
	"mercator-hq/leakscan/pkg/telemetry/tracing"
	"mercator-hq/leakscan/pkg/tuning"
)

// app holds the components shared by the scan, rules and serve commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	detector *detector.Detector
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	loader   *tuning.Loader
	scanner  *scan.Service
}

// appOptions selects the optional parts of an app.
type appOptions struct {
	// logWriter receives logs. Defaults to stderr.
	logWriter io.Writer

	// telemetry enables metrics and tracing per the config.
	telemetry bool
}

// newApp wires a detector, logger and tuning loader from cfg. The loader is
// nil when no tuning source is configured.
func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	det := detector.New()

	var redactor logging.Redactor
	if cfg.Telemetry.Logging.Redact {
		redactor = det
	}
	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Redactor:  redactor,
		Writer:    opts.logWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		detector: det,
		tracer:   tracing.Noop(),
	}

	if opts.telemetry {
		if cfg.Telemetry.Metrics.Enabled {
			a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
		}
		a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, Version)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
	}

	if src := cfg.Detector.TuningSource; src != "" {
		loaderOpts := tuning.LoaderOptions{
			Logger:           logger,
			Watch:            cfg.Detector.Watch,
			DebounceInterval: cfg.Detector.DebounceInterval,
			RefreshSchedule:  cfg.Detector.RefreshSchedule,
		}
		if a.metrics != nil {
			loaderOpts.Observer = a.metrics
		}
		a.loader = tuning.NewLoader(det, tuning.NewSource(src, cfg.Detector.FetchTimeout), loaderOpts)
	}

	scanOpts := scan.Options{Tracer: a.tracer, Logger: logger}
	if a.metrics != nil {
		scanOpts.Recorder = a.metrics
	}
	a.scanner = scan.NewService(det, scanOpts)

	return a, nil
}

// loadTuningOnce applies the tuning document synchronously. A failed load
// is logged and the built-in tables stay in effect.
func (a *app) loadTuningOnce(ctx context.Context) {
	if a.loader == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Detector.FetchTimeout+time.Second)
	defer cancel()
	_, _ = a.loader.Reload(ctx)
}

// close stops background work and flushes spans.
func (a *app) close() {
	if a.loader != nil {
		a.loader.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to flush traces", "error", err)
	}
}
