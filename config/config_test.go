package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests in this file use t.Setenv and therefore cannot run in parallel.

var allVars = []string{
	"TEXTSQL_SAMPLE_LINES",
	"TEXTSQL_TYPE_SAMPLE_SIZE",
	"TEXTSQL_ROW_POLICY",
	"TEXTSQL_MEMORY_LIMIT_MB",
	"TEXTSQL_PIPE_CAPACITY",
	"TEXTSQL_HISTORY_FILE",
	"TEXTSQL_HISTORY_MAX",
	"TEXTSQL_HISTORY_TRIM",
	"TEXTSQL_LOG_LEVEL",
	"TEXTSQL_LOG_FORMAT",
	"LOG_LEVEL",
	"LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range allVars {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Detect.SampleLines)
	assert.Equal(t, 1000, cfg.Ingest.TypeSampleSize)
	assert.Equal(t, "pad", cfg.Ingest.RowPolicy)
	assert.Equal(t, int64(0), cfg.Ingest.MemoryLimitMB)
	assert.Equal(t, 10, cfg.Stream.PipeCapacity)
	assert.Equal(t, "", cfg.History.File)
	assert.Equal(t, 1000, cfg.History.Max)
	assert.Equal(t, 900, cfg.History.Trim)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEXTSQL_SAMPLE_LINES", "50")
	t.Setenv("TEXTSQL_ROW_POLICY", "strict")
	t.Setenv("TEXTSQL_MEMORY_LIMIT_MB", "256")
	t.Setenv("TEXTSQL_HISTORY_FILE", "/tmp/textsql_history")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TEXTSQL_LOG_FORMAT", "json")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Detect.SampleLines)
	assert.Equal(t, "strict", cfg.Ingest.RowPolicy)
	assert.Equal(t, int64(256), cfg.Ingest.MemoryLimitMB)
	assert.Equal(t, "/tmp/textsql_history", cfg.History.File)
	assert.Equal(t, "debug", cfg.Logging.Level, "alternate name is used when the primary is unset")
	assert.Equal(t, "json", cfg.Logging.Format, "primary name wins over the alternate")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		message string
	}{
		{"not a number", map[string]string{"TEXTSQL_PIPE_CAPACITY": "many"}, "invalid value for TEXTSQL_PIPE_CAPACITY"},
		{"sample too small", map[string]string{"TEXTSQL_SAMPLE_LINES": "5"}, "TEXTSQL_SAMPLE_LINES"},
		{"unknown policy", map[string]string{"TEXTSQL_ROW_POLICY": "drop"}, "TEXTSQL_ROW_POLICY"},
		{"trim above max", map[string]string{"TEXTSQL_HISTORY_MAX": "10", "TEXTSQL_HISTORY_TRIM": "20"}, "TEXTSQL_HISTORY_TRIM"},
		{"bad level", map[string]string{"TEXTSQL_LOG_LEVEL": "loud"}, "TEXTSQL_LOG_LEVEL"},
		{"bad format", map[string]string{"TEXTSQL_LOG_FORMAT": "xml"}, "TEXTSQL_LOG_FORMAT"},
		{"negative memory", map[string]string{"TEXTSQL_MEMORY_LIMIT_MB": "-1"}, "TEXTSQL_MEMORY_LIMIT_MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestMustLoad_Panics(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEXTSQL_PIPE_CAPACITY", "0")

	assert.Panics(t, func() { MustLoad() })
}

func TestConfig_String(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	s := cfg.String()
	assert.True(t, strings.HasPrefix(s, "Config{"))
	assert.Contains(t, s, `RowPolicy: "pad"`)
	assert.Contains(t, s, "PipeCapacity: 10")
}
