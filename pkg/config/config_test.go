package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Webhook.URL = "https://hooks.example.com/tiktok"
	cfg.Monitor.Authors = []string{"charlidamelio", "some.author_1"}
	return cfg
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateIntervalBounds(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		wantErr  bool
	}{
		{"below minimum", 30, true},
		{"at minimum", 60, false},
		{"typical", 300, false},
		{"at maximum", 3600, false},
		{"above maximum", 3601, true},
		{"zero", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Monitor.IntervalSeconds = tt.interval
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "polling interval")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateWebhookURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://hooks.example.com/x", false},
		{"http", "http://localhost:8080/hook", false},
		{"empty", "", true},
		{"no scheme", "hooks.example.com/x", true},
		{"ftp", "ftp://example.com/x", true},
		{"scheme only", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Webhook.URL = tt.url
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAuthorHandles(t *testing.T) {
	cfg := validConfig()
	cfg.Monitor.Authors = []string{"ok_handle", "bad handle!", "a"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad handle!")
	assert.Contains(t, err.Error(), `"a"`)
}

func TestValidateNegativeRetries(t *testing.T) {
	cfg := validConfig()
	cfg.Webhook.MaxRetries = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Webhook.URL = ""
	cfg.Monitor.IntervalSeconds = 10
	cfg.Webhook.MaxRetries = -2

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook URL is required")
	assert.Contains(t, err.Error(), "polling interval")
	assert.Contains(t, err.Error(), "max retries")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
webhook:
  url: https://hooks.example.com/tiktok
  max_retries: 5
monitor:
  interval_seconds: 120
  authors:
    - author.one
    - author_two
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://hooks.example.com/tiktok", cfg.Webhook.URL)
	assert.Equal(t, 5, cfg.Webhook.MaxRetries)
	assert.Equal(t, 120, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, []string{"author.one", "author_two"}, cfg.Monitor.Authors)
	// Defaults survive for keys the file does not set
	assert.Equal(t, 10*time.Second, cfg.Webhook.Timeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TTMON_WEBHOOK_URL", "https://env.example.com/hook")
	t.Setenv("TTMON_INTERVAL_SECONDS", "600")
	t.Setenv("TTMON_AUTHORS", "@one, two ,three")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "https://env.example.com/hook", cfg.Webhook.URL)
	assert.Equal(t, 600, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, []string{"one", "two", "three"}, cfg.Monitor.Authors)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := validConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"interval":    900,
		"max-retries": 7,
		"authors":     "flagged",
	})

	assert.Equal(t, 900, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 7, cfg.Webhook.MaxRetries)
	assert.Equal(t, []string{"flagged"}, cfg.Monitor.Authors)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "config.yaml")

	cfg := validConfig()
	require.NoError(t, cfg.Save(path))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))
	assert.Equal(t, cfg.Webhook.URL, reloaded.Webhook.URL)
	assert.Equal(t, cfg.Monitor.Authors, reloaded.Monitor.Authors)
}
