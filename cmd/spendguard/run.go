package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/billing"
	"meterline/spendguard/pkg/cli"
	"meterline/spendguard/pkg/config"
	"meterline/spendguard/pkg/journal/retention"
	"meterline/spendguard/pkg/telemetry/health"
)

const gaugeRefreshInterval = 30 * time.Second

var runFlags struct {
	noWatch bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run SpendGuard as a long-lived daemon",
	Long: `Run keeps the engine resident: the configuration document is watched
and hot-reloaded on change, journal retention runs on its cron
schedule, and an optional HTTP listener serves Prometheus metrics at
telemetry.metrics.path plus /healthz, /readyz, and /version.

Set telemetry.metrics.listen_address to enable the listener. The
daemon shuts down cleanly on SIGINT or SIGTERM; a second signal kills
it immediately.`,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	monitor, err := billing.Open(cfg)
	if err != nil {
		return err
	}
	defer monitor.Close()

	ctx := cli.SetupSignalHandler()
	logger := slog.Default().With("component", "daemon")
	logger.Info("SpendGuard daemon starting",
		"version", Version,
		"config", configPath(),
		"ledger_backend", cfg.Ledger.Backend,
	)

	if !runFlags.noWatch {
		if err := startConfigWatch(ctx, monitor, logger); err != nil {
			return err
		}
	}

	if err := startRetention(ctx, cfg, monitor, logger); err != nil {
		return err
	}

	server, err := startTelemetryListener(cfg, monitor, logger)
	if err != nil {
		return err
	}

	go refreshGauges(ctx, monitor)

	logger.Info("SpendGuard daemon ready")
	<-ctx.Done()
	logger.Info("Shutting down")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Telemetry listener shutdown failed", "error", err)
		}
	}
	return nil
}

// startConfigWatch hot-reloads the monitor when the configuration
// document changes. A rejected document is logged and the previous
// state stays in effect.
func startConfigWatch(ctx context.Context, monitor *billing.Monitor, logger *slog.Logger) error {
	path := configPath()
	if _, err := os.Stat(path); err != nil {
		logger.Info("No configuration file; hot reload disabled", "path", path)
		return nil
	}

	watcher, err := config.NewWatcher(path, config.DefaultDebounceInterval, slog.Default())
	if err != nil {
		return fmt.Errorf("starting configuration watcher: %w", err)
	}

	go func() {
		err := watcher.Watch(ctx, func() error {
			next, err := config.LoadConfigWithEnvOverrides(path)
			if err != nil {
				return err
			}
			return monitor.Reload(next)
		})
		if err != nil {
			logger.Error("Configuration watcher exited", "error", err)
		}
	}()
	return nil
}

// startRetention arms the scheduled journal pruning when the journal is
// attached and a schedule is configured.
func startRetention(ctx context.Context, cfg *config.Config, monitor *billing.Monitor, logger *slog.Logger) error {
	store := monitor.JournalStorage()
	if store == nil || cfg.Journal.Retention.Schedule == "" {
		return nil
	}
	if cfg.Journal.Retention.Days <= 0 && cfg.Journal.Retention.MaxEntries <= 0 {
		return nil
	}

	rc := &retention.Config{
		RetentionDays:       cfg.Journal.Retention.Days,
		MaxEntries:          cfg.Journal.Retention.MaxEntries,
		PruneSchedule:       cfg.Journal.Retention.Schedule,
		ArchiveBeforeDelete: cfg.Journal.Retention.ArchiveBeforeDelete,
		ArchivePath:         cfg.Journal.Retention.ArchivePath,
	}
	if collector := monitor.Metrics(); collector != nil {
		rc.OnPrune = func(deleted int64, err error) {
			status := "success"
			if err != nil {
				status = "error"
			}
			collector.RecordRetentionRun(status, deleted)
		}
	}

	pruner := retention.NewPruner(store, rc)
	if err := pruner.Start(ctx); err != nil {
		return fmt.Errorf("starting retention schedule: %w", err)
	}
	if next := pruner.NextPruning(); next != nil {
		logger.Info("Journal retention scheduled",
			"schedule", cfg.Journal.Retention.Schedule,
			"next_run", next.Format(time.RFC3339),
		)
	}
	return nil
}

// startTelemetryListener serves Prometheus metrics and health endpoints
// when a listen address is configured. Returns nil without error when
// the listener is disabled.
func startTelemetryListener(cfg *config.Config, monitor *billing.Monitor, logger *slog.Logger) (*http.Server, error) {
	addr := cfg.Telemetry.Metrics.ListenAddress
	if addr == "" {
		return nil, nil
	}

	mux := http.NewServeMux()
	if collector := monitor.Metrics(); collector != nil {
		path := cfg.Telemetry.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, collector.Handler())
	}

	checker := health.New(0)
	checker.Register("ledger", health.LedgerCheck(monitor.Ledger()))
	if store := monitor.JournalStorage(); store != nil {
		checker.Register("journal", health.JournalCheck(store))
	}
	health.Routes(mux, checker, Version, GitCommit, BuildDate)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Telemetry listener started", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Telemetry listener failed", "error", err)
		}
	}()
	return server, nil
}

// refreshGauges keeps the utilization gauges tracking wall-clock period
// rollover. Without it a quiet daemon would report yesterday's ratios
// until the next tracked event.
func refreshGauges(ctx context.Context, monitor *billing.Monitor) {
	collector := monitor.Metrics()
	if collector == nil {
		return
	}

	update := func() {
		for _, r := range monitor.Summary().Limits {
			collector.UpdateUsageRatio(string(r.Scope), string(r.Metric), r.Percent()/100)
		}
	}
	update()

	ticker := time.NewTicker(gaugeRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

func init() {
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "disable configuration hot reload")
	rootCmd.AddCommand(runCmd)
}
