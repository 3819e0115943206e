package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"vigil/src/features/baseline"
	"vigil/src/features/config"
	"vigil/src/features/hosting"
	"vigil/src/features/logging"
	"vigil/src/features/metrics"
	"vigil/src/features/monitoring"
	"vigil/src/infra/journal"
	"vigil/src/infra/watcher"
	"vigil/src/integrity"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	baselineOnly := flag.Bool("baseline", false, "build the baseline and exit")
	flag.Parse()

	// Load configuration
	cfgManager, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	cfg := cfgManager.Get()
	targets := cfg.Targets
	if flag.NArg() > 0 {
		// Positional arguments override the configured targets.
		targets = flag.Args()
	}

	clock := integrity.NewSystemClock()
	trail := journal.New(cfg.Trail.Path)
	policy := integrity.Policy{IgnoreHidden: cfg.Monitor.IgnoreHidden}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	baselineService := baseline.NewService(policy, cfg.Monitor.ChunkSize, clock, trail, recorder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *baselineOnly {
		if _, err := baselineService.Build(ctx, targets, cfg.State.Path); err != nil {
			log.Fatalf("baseline failed: %v", err)
		}
		return
	}

	// Monitoring needs a baseline to diff against.
	if _, err := os.Stat(cfg.State.Path); os.IsNotExist(err) {
		line := integrity.Entry(clock.Now(), fmt.Sprintf("NO_BASELINE db=%s -> building baseline first", cfg.State.Path))
		if err := trail.Append(line); err != nil {
			log.Fatalf("failed to write trail: %v", err)
		}
		if _, err := baselineService.Build(ctx, targets, cfg.State.Path); err != nil {
			log.Fatalf("baseline failed: %v", err)
		}
	}

	// A corrupt state file is fatal: treating it as empty would erase
	// integrity history.
	store, err := integrity.Load(cfg.State.Path, clock)
	if err != nil {
		log.Fatalf("failed to load state: %v", err)
	}

	detector := monitoring.NewDetector(store, cfg.State.Path, policy, cfg.Monitor.ChunkSize, clock, trail, recorder)
	recorder.SetTracked(detector.TrackedCount())

	fsWatcher, err := watcher.New()
	if err != nil {
		log.Fatalf("failed to create watcher: %v", err)
	}

	// Create and start the HTTP server if enabled
	var server *hosting.Server
	if cfg.Server.Enabled {
		server = hosting.NewServer(cfgManager, detector, registry)
		go func() {
			if err := server.Start(); err != nil {
				slog.Error("server stopped", "error", err)
			}
		}()
		slog.Info("Status server started. Press Ctrl+C to shut down.", "port", cfg.Server.Port)
	}

	monitor := monitoring.NewService(detector, fsWatcher, trail, clock)
	if err := monitor.Run(ctx, targets); err != nil {
		log.Fatalf("monitor failed: %v", err)
	}

	// Shutdown the server
	if server != nil {
		if err := server.Shutdown(); err != nil {
			log.Fatalf("failed to shutdown server: %v", err)
		}
	}
	slog.Info("Vigil gracefully shut down.")
}
