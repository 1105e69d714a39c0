package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruenh/tiktok-monitor/pkg/ui"
)

// onceCmd represents the once command
var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run exactly one poll cycle and exit",
	Long: `Execute a single poll cycle synchronously: fetch every configured
author's feed, deliver new videos to the webhook, update the persisted
state, then exit. Useful for cron-driven setups and for testing a new
configuration.`,
	Example: `  tiktok-monitor once --authors charlidamelio --webhook-url https://hooks.example.com/tt`,
	Run:     runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
	addMonitoringFlags(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	initLogger(cfg)
	fillCredentials(cfg)

	m, store := buildMonitor(cfg)

	if err := m.RunOnce(context.Background()); err != nil {
		ui.PrintError("Poll cycle failed: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Poll cycle completed. %d delivery records tracked.", store.Len())
}
