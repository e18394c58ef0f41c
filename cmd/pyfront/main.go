// # cmd/pyfront/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"pyfront/internal/config"
	"pyfront/internal/shared/observability"
)

var (
	configPath = flag.String("config", "./pyfront.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run single analysis and exit")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("pyfront v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	output := os.Stderr
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config, fall back to defaults when none is present.
	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) && *configPath == "./pyfront.toml" {
			cfg = config.Default()
		} else {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	if flag.NArg() > 0 {
		cfg.Paths = []string{flag.Arg(0)}
	}

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(ctx)

	if cfg.Observability.Listen != "" {
		server := observability.NewObservabilityServer(cfg.Observability.Listen)
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
		defer server.Stop(ctx)
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	result, err := app.Analyze(ctx)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if *ui {
		if err := app.RunUI(result); err != nil {
			slog.Error("ui failed", "error", err)
			os.Exit(1)
		}
		return
	}

	app.Report(os.Stdout, result)

	if *once {
		return
	}

	if err := app.WatchAndServe(ctx); err != nil {
		slog.Error("watch mode failed", "error", err)
		os.Exit(1)
	}
}
