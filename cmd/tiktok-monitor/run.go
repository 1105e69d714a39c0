package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ruenh/tiktok-monitor/pkg/logger"
	"github.com/ruenh/tiktok-monitor/pkg/ui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor as a long-lived daemon",
	Long: `Run the polling loop until interrupted.

The first poll cycle fires immediately, then repeats at the configured
interval. New videos are posted to the webhook with retries; delivery
state is persisted so restarts never reprocess or redeliver.`,
	Example: `  # Run with a config file
  tiktok-monitor run --config .tiktok-monitor.yaml

  # Run fully from flags
  tiktok-monitor run --webhook-url https://hooks.example.com/tt \
      --authors charlidamelio,khaby.lame --interval 300`,
	Run: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addMonitoringFlags(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	initLogger(cfg)
	fillCredentials(cfg)

	if len(cfg.Monitor.Authors) == 0 {
		ui.PrintWarning("No authors configured; the monitor will idle. Add --authors or set monitor.authors in the config file.")
	}

	m, store := buildMonitor(cfg)

	logger.WithFields(map[string]interface{}{
		"version":  version,
		"authors":  cfg.Monitor.Authors,
		"interval": cfg.Monitor.IntervalSeconds,
		"state":    store.Path(),
	}).Info("tiktok-monitor starting")

	m.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.WithField("signal", sig.String()).Info("shutdown signal received")
	m.Stop()

	ui.PrintInfo("Monitor stopped. %d delivery records in %s", store.Len(), store.Path())
}
