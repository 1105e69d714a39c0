package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Bounds for the polling interval, in seconds. Values outside this range
// are rejected at validation, never silently clamped.
const (
	MinIntervalSeconds = 60
	MaxIntervalSeconds = 3600
)

// handlePattern matches valid TikTok author handles.
var handlePattern = regexp.MustCompile(`^[A-Za-z0-9._]{2,24}$`)

// Config holds all configuration options for the monitor
type Config struct {
	// Webhook delivery settings
	Webhook WebhookConfig `yaml:"webhook" json:"webhook"`

	// Polling settings
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`

	// TikTok client settings
	TikTok TikTokConfig `yaml:"tiktok" json:"tiktok"`

	// Rate limiting for content-source requests
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Persisted state settings
	State StateConfig `yaml:"state" json:"state"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// WebhookConfig holds delivery endpoint configuration
type WebhookConfig struct {
	URL        string        `yaml:"url" json:"url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	Secret     string        `yaml:"secret" json:"secret"`
}

// MonitorConfig holds the polling loop configuration
type MonitorConfig struct {
	IntervalSeconds int      `yaml:"interval_seconds" json:"interval_seconds"`
	Authors         []string `yaml:"authors" json:"authors"`
	PageSize        int      `yaml:"page_size" json:"page_size"`
}

// TikTokConfig holds content-source client configuration
type TikTokConfig struct {
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	SessionID string        `yaml:"session_id" json:"session_id"`
}

// RateLimitConfig bounds request volume against the content source
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// StateConfig holds persisted-state configuration
type StateConfig struct {
	// File is the path of the JSON state file. Empty means the
	// platform data directory (e.g. ~/.local/share/tiktok-monitor).
	File string `yaml:"file" json:"file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Webhook: WebhookConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		Monitor: MonitorConfig{
			IntervalSeconds: 300,
			PageSize:        10,
		},
		TikTok: TikTokConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Timeout:   15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from TTMON_* environment variables
func (c *Config) LoadFromEnv() error {
	if webhookURL := os.Getenv("TTMON_WEBHOOK_URL"); webhookURL != "" {
		c.Webhook.URL = webhookURL
	}
	if secret := os.Getenv("TTMON_WEBHOOK_SECRET"); secret != "" {
		c.Webhook.Secret = secret
	}
	if retries := os.Getenv("TTMON_MAX_RETRIES"); retries != "" {
		if val, err := strconv.Atoi(retries); err == nil {
			c.Webhook.MaxRetries = val
		}
	}
	if interval := os.Getenv("TTMON_INTERVAL_SECONDS"); interval != "" {
		if val, err := strconv.Atoi(interval); err == nil {
			c.Monitor.IntervalSeconds = val
		}
	}
	if authors := os.Getenv("TTMON_AUTHORS"); authors != "" {
		c.Monitor.Authors = splitAuthors(authors)
	}
	if sessionID := os.Getenv("TTMON_SESSION_ID"); sessionID != "" {
		c.TikTok.SessionID = sessionID
	}
	if userAgent := os.Getenv("TTMON_USER_AGENT"); userAgent != "" {
		c.TikTok.UserAgent = userAgent
	}
	if rpm := os.Getenv("TTMON_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if stateFile := os.Getenv("TTMON_STATE_FILE"); stateFile != "" {
		c.State.File = stateFile
	}
	if logLevel := os.Getenv("TTMON_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".tiktok-monitor.yaml",
		".tiktok-monitor.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "tiktok-monitor", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "tiktok-monitor", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".tiktok-monitor.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. All violations are
// collected and reported together.
func (c *Config) Validate() error {
	var errs []error

	// Webhook endpoint
	if c.Webhook.URL == "" {
		errs = append(errs, errors.New("webhook URL is required"))
	} else if err := validateWebhookURL(c.Webhook.URL); err != nil {
		errs = append(errs, err)
	}
	if c.Webhook.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Webhook.Timeout <= 0 {
		errs = append(errs, errors.New("webhook timeout must be positive"))
	}

	// Polling interval
	if c.Monitor.IntervalSeconds < MinIntervalSeconds || c.Monitor.IntervalSeconds > MaxIntervalSeconds {
		errs = append(errs, fmt.Errorf("polling interval must be between %d and %d seconds, got %d",
			MinIntervalSeconds, MaxIntervalSeconds, c.Monitor.IntervalSeconds))
	}

	// Authors
	for _, author := range c.Monitor.Authors {
		if !handlePattern.MatchString(author) {
			errs = append(errs, fmt.Errorf("invalid author handle: %q", author))
		}
	}
	if c.Monitor.PageSize <= 0 || c.Monitor.PageSize > 50 {
		errs = append(errs, errors.New("page size must be between 1 and 50"))
	}

	// Content-source client
	if c.TikTok.Timeout <= 0 {
		errs = append(errs, errors.New("tiktok timeout must be positive"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// validateWebhookURL requires an absolute http or https URL
func validateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("webhook URL must include a host")
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if webhookURL, ok := flags["webhook-url"].(string); ok && webhookURL != "" {
		c.Webhook.URL = webhookURL
	}
	if retries, ok := flags["max-retries"].(int); ok && retries >= 0 {
		c.Webhook.MaxRetries = retries
	}
	if interval, ok := flags["interval"].(int); ok && interval != 0 {
		c.Monitor.IntervalSeconds = interval
	}
	if authors, ok := flags["authors"].(string); ok && authors != "" {
		c.Monitor.Authors = splitAuthors(authors)
	}
	if stateFile, ok := flags["state-file"].(string); ok && stateFile != "" {
		c.State.File = stateFile
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tiktok-monitor.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// splitAuthors parses a comma-separated handle list
func splitAuthors(raw string) []string {
	parts := strings.Split(raw, ",")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(strings.TrimPrefix(p, "@")); trimmed != "" {
			authors = append(authors, trimmed)
		}
	}
	return authors
}
