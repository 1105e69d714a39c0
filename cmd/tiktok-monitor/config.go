package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ruenh/tiktok-monitor/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage TikTok Monitor configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TTMON_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.tiktok-monitor.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration merged from all sources.

Sensitive values like the session ID and webhook secret are masked.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the effective configuration and report every violation:
webhook URL shape, polling interval range, author handles, retry counts.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".tiktok-monitor.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists: %s", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# TikTok Monitor Configuration File
#
# Every option can also be set through environment variables prefixed
# with TTMON_, for example TTMON_WEBHOOK_URL and TTMON_AUTHORS.

# Webhook delivery settings
webhook:
  # Endpoint that receives new-video notifications (required, http/https)
  url: "https://hooks.example.com/tiktok"

  # Per-request timeout
  timeout: 10s

  # Retries after the first failed attempt (backoff: 1s, 2s, 4s, ...)
  max_retries: 3

  # Shared secret for HMAC-SHA256 payload signing (optional)
  # Prefer 'tiktok-monitor auth login' over putting this here.
  secret: ""

# Polling settings
monitor:
  # Seconds between poll cycles (60-3600)
  interval_seconds: 300

  # TikTok author handles to watch (without @)
  authors:
    - "charlidamelio"
    - "khaby.lame"

  # Videos fetched per author per cycle (1-50)
  page_size: 10

# TikTok client settings
tiktok:
  # Per-request timeout
  timeout: 15s

  # Session cookie; prefer 'tiktok-monitor auth login' over putting it here
  session_id: ""

# Rate limiting for TikTok requests
rate_limit:
  requests_per_minute: 30

# Persisted delivery state
state:
  # Empty means the platform data directory
  # (e.g. ~/.local/share/tiktok-monitor/state.json)
  file: ""

# Logging
logging:
  level: "info"
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to write configuration file: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Created %s", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set webhook.url to your endpoint")
	fmt.Println("  2. List the authors to watch")
	fmt.Println("  3. Run 'tiktok-monitor config validate'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := loadConfigForInspection()

	// Mask secrets before rendering
	shown := *cfg
	if shown.TikTok.SessionID != "" {
		shown.TikTok.SessionID = maskValue(shown.TikTok.SessionID)
	}
	if shown.Webhook.Secret != "" {
		shown.Webhook.Secret = maskValue(shown.Webhook.Secret)
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		ui.PrintError("Failed to render configuration: %v", err)
		os.Exit(1)
	}

	ui.PrintHighlight("Effective configuration:")
	fmt.Println(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg := loadConfigForInspection()

	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration is invalid:")
		fmt.Println(err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Printf("  webhook:  %s\n", cfg.Webhook.URL)
	fmt.Printf("  interval: %ds\n", cfg.Monitor.IntervalSeconds)
	fmt.Printf("  authors:  %d configured\n", len(cfg.Monitor.Authors))
}

func maskValue(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
