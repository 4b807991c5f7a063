package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "debug console",
			cfg:  Config{Level: "debug", Format: "console", Output: "stdout"},
		},
		{
			name: "info json",
			cfg:  Config{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name: "empty config falls back to defaults",
			cfg:  Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	tests := []struct {
		name string
		env  string
	}{
		{name: "development", env: "development"},
		{name: "production", env: "production"},
		{name: "unknown", env: "staging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewForEnvironment(tt.env)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			result := parseLevel(tt.level)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNewWriter(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"stdout", "stdout"},
		{"stderr", "stderr"},
		{"STDOUT", "STDOUT"},
		{"empty defaults to stdout", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := newWriter(tt.output)
			assert.NotNil(t, writer)
		})
	}
}

func TestNewWriterFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test-log-*.log")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	writer := newWriter(tmpFile.Name())
	assert.NotNil(t, writer)
}

func TestNewEncoder(t *testing.T) {
	assert.NotNil(t, newEncoder("console"))
	assert.NotNil(t, newEncoder("json"))
	assert.NotNil(t, newEncoder(""))
}

func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer

	core := zapcore.NewCore(
		newEncoder("json"),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)
	logger := zap.New(core)

	logger.Info("test message", zap.String("key", "value"))

	var output map[string]any
	err := json.Unmarshal(buf.Bytes(), &output)
	require.NoError(t, err)

	assert.Equal(t, "test message", output["msg"])
	assert.Equal(t, "info", output["level"])
	assert.Equal(t, "value", output["key"])
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer

	core := zapcore.NewCore(
		newEncoder("json"),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)
	logger := zap.New(core)

	logger.Debug("debug message")
	assert.True(t, strings.Contains(buf.String(), "debug message"))

	buf.Reset()

	core = zapcore.NewCore(
		newEncoder("json"),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)
	logger = zap.New(core)

	logger.Debug("debug message")
	assert.False(t, strings.Contains(buf.String(), "debug message"))

	logger.Info("info message")
	assert.True(t, strings.Contains(buf.String(), "info message"))
}
