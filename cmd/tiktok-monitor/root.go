package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruenh/tiktok-monitor/pkg/auth"
	"github.com/ruenh/tiktok-monitor/pkg/config"
	"github.com/ruenh/tiktok-monitor/pkg/logger"
	"github.com/ruenh/tiktok-monitor/pkg/monitor"
	"github.com/ruenh/tiktok-monitor/pkg/ratelimit"
	"github.com/ruenh/tiktok-monitor/pkg/state"
	"github.com/ruenh/tiktok-monitor/pkg/tiktok"
	"github.com/ruenh/tiktok-monitor/pkg/ui"
	"github.com/ruenh/tiktok-monitor/pkg/webhook"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string

	// Shared monitoring flags
	webhookURL string
	authors    string
	interval   int
	maxRetries int
	stateFile  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tiktok-monitor",
	Short: "Watch TikTok authors and relay new videos to a webhook",
	Long: `TikTok Monitor polls the feeds of configured TikTok authors on a fixed
interval, deduplicates videos it has already seen, and posts each new video
to a configured HTTP webhook with bounded exponential-backoff retries.

Features:
  - Durable delivery state that survives restarts without reprocessing
  - Exponential-backoff webhook retries with a secondary retry sweep
  - Per-author failure isolation and source-friendly request pacing
  - Secure session storage using the system keychain
  - Optional HMAC-SHA256 payload signing`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .tiktok-monitor.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`TikTok Monitor {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// addMonitoringFlags registers the flags shared by run, once and retry.
func addMonitoringFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "webhook endpoint URL")
	cmd.Flags().StringVar(&authors, "authors", "", "comma-separated TikTok author handles")
	cmd.Flags().IntVar(&interval, "interval", 0, "polling interval in seconds (60-3600)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", -1, "maximum webhook delivery retries")
	cmd.Flags().StringVar(&stateFile, "state-file", "", "path of the JSON state file")
}

// collectFlags builds the flag override map passed to config.Load.
func collectFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if webhookURL != "" {
		flags["webhook-url"] = webhookURL
	}
	if authors != "" {
		flags["authors"] = authors
	}
	if interval != 0 {
		flags["interval"] = interval
	}
	if maxRetries >= 0 {
		flags["max-retries"] = maxRetries
	}
	if stateFile != "" {
		flags["state-file"] = stateFile
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

// loadConfig loads and validates configuration from all sources.
func loadConfig() *config.Config {
	cfg, err := config.Load(configFile, collectFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	return cfg
}

// loadConfigForInspection loads configuration without validating it, for
// read-only commands that work even when no webhook is configured yet.
func loadConfigForInspection() *config.Config {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		ui.PrintError("Failed to load environment variables: %v", err)
		os.Exit(1)
	}
	cfg.MergeCommandLineFlags(collectFlags())
	return cfg
}

// fillCredentials pulls the stored session and webhook secret into the
// configuration when neither flags nor environment provided them.
func fillCredentials(cfg *config.Config) {
	if cfg.TikTok.SessionID != "" {
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		return
	}
	account, err := manager.RetrieveDefault()
	if err != nil {
		return
	}

	cfg.TikTok.SessionID = account.SessionID
	if cfg.Webhook.Secret == "" {
		cfg.Webhook.Secret = account.WebhookSecret
	}
	if account.UserAgent != "" {
		cfg.TikTok.UserAgent = account.UserAgent
	}
}

// buildMonitor wires the store, clients and monitor from the configuration.
// Corrupt persisted state is fatal here.
func buildMonitor(cfg *config.Config) (*monitor.Monitor, *state.Store) {
	log := logger.GetLogger()

	store, err := state.NewStore(cfg.State.File, log)
	if err != nil {
		ui.PrintError("Failed to open state store: %v", err)
		os.Exit(1)
	}
	if err := store.Load(); err != nil {
		ui.PrintError("Failed to load state: %v", err)
		ui.PrintInfo("Refusing to start with unreliable state. Inspect or remove %s", store.Path())
		os.Exit(1)
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	source := tiktok.NewClient(&cfg.TikTok, limiter, log)
	deliverer := webhook.NewClient(&cfg.Webhook, log)

	return monitor.New(cfg, source, deliverer, store, log), store
}

// initLogger sets up the global logger from the configuration.
func initLogger(cfg *config.Config) {
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger: %v", err)
		os.Exit(1)
	}
}

// openStore opens and loads the state store for read-only commands.
func openStore(cfg *config.Config) *state.Store {
	store, err := state.NewStore(cfg.State.File, logger.GetLogger())
	if err != nil {
		ui.PrintError("Failed to open state store: %v", err)
		os.Exit(1)
	}
	if err := store.Load(); err != nil {
		ui.PrintError("Failed to load state: %v", err)
		os.Exit(1)
	}
	return store
}
