package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/leakscan/pkg/cli"
	"mercator-hq/leakscan/pkg/server"
)

var serveFlags struct {
	listenAddress string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the leak scanning HTTP API",
	Long: `Start the leak scanning HTTP API with the specified configuration.

The server answers POST /v1/scan, GET /v1/rules, /healthz, /readyz, /version
and the metrics endpoint. When a tuning source is configured the first load
runs in the background; /readyz reports 503 until it has finished, and the
built-in rules are used if it fails.

Examples:
  # Start with defaults (127.0.0.1:8090)
  leakscan serve

  # Start with a config file
  leakscan serve --config /etc/leakscan/config.yaml

  # Override listen address
  leakscan serve --listen 0.0.0.0:8090

  # Validate config without starting the server
  leakscan serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	out := cmd.OutOrStdout()
	if serveFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	a, err := newApp(cfg, appOptions{logWriter: cmd.ErrOrStderr(), telemetry: true})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer a.close()

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	opts := server.Options{
		Scanner:     a.scanner,
		Rules:       a.detector,
		Metrics:     a.metrics,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Logger:      a.logger,
		Version:     Version,
		Commit:      GitCommit,
		BuildTime:   BuildDate,
	}
	if a.loader != nil {
		opts.Tuning = a.loader
		if err := a.loader.Start(ctx); err != nil {
			return cli.NewCommandError("serve", fmt.Errorf("failed to start tuning loader: %w", err))
		}
	}

	srv, err := server.NewServer(&cfg.Server, opts)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	fmt.Fprintf(out, "leakscan %s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(out, "✓ Configuration loaded from %s\n", cfgFile)
	}
	if a.loader != nil {
		fmt.Fprintf(out, "✓ Tuning source: %s\n", cfg.Detector.TuningSource)
	}
	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)
	if a.metrics != nil {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	start := time.Now()
	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("serve", err)
	}

	fmt.Fprintf(out, "✓ Server stopped after %s\n", time.Since(start).Round(time.Second))
	return nil
}
