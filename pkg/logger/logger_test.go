package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruenh/tiktok-monitor/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name: "valid config with info level",
			cfg: &config.LoggingConfig{
				Level: "info",
			},
			wantErr: false,
		},
		{
			name: "valid config with debug level",
			cfg: &config.LoggingConfig{
				Level: "debug",
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			cfg: &config.LoggingConfig{
				Level: "invalid",
			},
			wantErr: true,
		},
		{
			name: "config with file output",
			cfg: &config.LoggingConfig{
				Level: "info",
				File:  "/tmp/tiktok-monitor-test.log",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}

			if tt.cfg.File != "" {
				os.Remove(tt.cfg.File)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	return &zerologLogger{
		logger: &zlog,
		fields: make(map[string]interface{}),
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	t.Run("Debug", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Error("Debug message not found in output")
		}
	})

	t.Run("Info", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")
		if !strings.Contains(buf.String(), "info message") {
			t.Error("Info message not found in output")
		}
	})

	t.Run("Warn", func(t *testing.T) {
		buf.Reset()
		logger.Warn("warn message")
		if !strings.Contains(buf.String(), "warn message") {
			t.Error("Warn message not found in output")
		}
	})

	t.Run("Error", func(t *testing.T) {
		buf.Reset()
		logger.Error("error message")
		if !strings.Contains(buf.String(), "error message") {
			t.Error("Error message not found in output")
		}
	})
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	newLogger := logger.WithField("key", "value")
	newLogger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("Message not found in output")
	}
	if !strings.Contains(output, `"key":"value"`) {
		t.Error("Field not found in output")
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	fields := map[string]interface{}{
		"string": "value",
		"int":    42,
		"bool":   true,
		"float":  3.14,
	}

	newLogger := logger.WithFields(fields)
	newLogger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("Message not found in output")
	}
	if !strings.Contains(output, `"string":"value"`) {
		t.Error("String field not found in output")
	}
	if !strings.Contains(output, `"int":42`) {
		t.Error("Int field not found in output")
	}
	if !strings.Contains(output, `"bool":true`) {
		t.Error("Bool field not found in output")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	// Nil error should return the same logger unchanged
	logger1 := logger.WithError(nil)
	if logger1 != Logger(logger) {
		t.Error("WithError(nil) should return the same logger")
	}

	testErr := &testError{msg: "test error"}
	logger2 := logger.WithError(testErr)
	logger2.Error("error occurred")

	output := buf.String()
	if !strings.Contains(output, "error occurred") {
		t.Error("Message not found in output")
	}
	if !strings.Contains(output, "test error") {
		t.Error("Error message not found in output")
	}
}

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	fields := map[string]interface{}{
		"author":   "charlidamelio",
		"video_id": "7291026743",
		"attempts": 2,
	}

	logger.InfoWithFields("delivery completed", fields)

	output := buf.String()
	if !strings.Contains(output, "delivery completed") {
		t.Error("Message not found in output")
	}
	if !strings.Contains(output, `"author":"charlidamelio"`) {
		t.Error("Author field not found in output")
	}
	if !strings.Contains(output, `"video_id":"7291026743"`) {
		t.Error("Video ID field not found in output")
	}
	if !strings.Contains(output, `"attempts":2`) {
		t.Error("Attempts field not found in output")
	}
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	fields := map[string]interface{}{
		"string":   "test",
		"int":      123,
		"int64":    int64(456),
		"float":    3.14,
		"bool":     true,
		"time":     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": time.Second * 5,
		"strings":  []string{"a", "b", "c"},
		"custom":   struct{ Name string }{Name: "test"},
	}

	logger.WithFields(fields).Info("test all types")

	if !strings.Contains(buf.String(), "test all types") {
		t.Error("Message not found in output")
	}
}

func TestGlobalLogger(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level: "debug",
	}

	if err := Initialize(cfg); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logger := GetLogger()
	if logger == nil {
		t.Error("GetLogger() returned nil")
	}

	// Convenience functions must not panic
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	WithField("key", "value").Info("with field")
	WithFields(map[string]interface{}{"k1": "v1", "k2": "v2"}).Info("with fields")
	WithError(&testError{msg: "test"}).Error("with error")
}

func TestEventHelpers(t *testing.T) {
	if err := Initialize(&config.LoggingConfig{Level: "debug"}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	// Event helpers must not panic in either outcome
	LogDelivery("charlidamelio", "7291026743", 1, true, nil)
	LogDelivery("charlidamelio", "7291026744", 4, false, &testError{msg: "boom"})
	LogPollCycle(3, 5, 1, 2*time.Second)
	LogRateLimit("tiktok", 60)
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.
		WithField("field1", "value1").
		WithField("field2", "value2").
		WithFields(map[string]interface{}{
			"field3": "value3",
			"field4": 4,
		}).
		Info("chained fields")

	output := buf.String()
	if !strings.Contains(output, "chained fields") {
		t.Error("Message not found in output")
	}
	if !strings.Contains(output, `"field1":"value1"`) {
		t.Error("Field1 not found in output")
	}
	if !strings.Contains(output, `"field2":"value2"`) {
		t.Error("Field2 not found in output")
	}
	if !strings.Contains(output, `"field3":"value3"`) {
		t.Error("Field3 not found in output")
	}
	if !strings.Contains(output, `"field4":4`) {
		t.Error("Field4 not found in output")
	}
}

// Helper error type for testing
type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}
