package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruenh/tiktok-monitor/pkg/ui"
)

// retryCmd represents the retry command
var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry failed webhook deliveries",
	Long: `Sweep the persisted state for failed deliveries that still have retry
budget left, re-fetch each video's current metadata, and attempt delivery
again. Retry counts accumulate across sweeps; videos removed from TikTok
are skipped.`,
	Run: runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)
	addMonitoringFlags(retryCmd)
}

func runRetry(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	initLogger(cfg)
	fillCredentials(cfg)

	m, store := buildMonitor(cfg)

	failedBefore := len(store.FailedRecords())
	if failedBefore == 0 {
		ui.PrintInfo("No failed deliveries to retry.")
		return
	}

	ui.PrintInfo("Retrying %d failed deliveries...", failedBefore)

	if err := m.RetryFailedWebhooks(context.Background()); err != nil {
		ui.PrintError("Retry sweep failed: %v", err)
		os.Exit(1)
	}

	failedAfter := len(store.FailedRecords())
	recovered := failedBefore - failedAfter
	if recovered > 0 {
		ui.PrintSuccess("Recovered %d of %d failed deliveries.", recovered, failedBefore)
	}
	if failedAfter > 0 {
		ui.PrintWarning("%d deliveries still failed.", failedAfter)
		for _, rec := range store.FailedRecords() {
			ui.PrintInfo("  %s by @%s (%d attempts)", rec.VideoID, rec.Author, rec.RetryCount)
		}
	}
}
