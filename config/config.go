// Package config loads textsql settings from environment variables with
// defaults, and validates them so a misconfiguration fails at startup.
package config

// Config holds all textsql configuration.
type Config struct {
	Detect  DetectConfig
	Ingest  IngestConfig
	Stream  StreamConfig
	History HistoryConfig
	Logging LoggingConfig
}

// DetectConfig holds format detection settings.
type DetectConfig struct {
	// SampleLines is the number of leading lines inspected (default: 20, minimum 20)
	SampleLines int `env:"TEXTSQL_SAMPLE_LINES" default:"20"`
}

// IngestConfig holds parsing and type inference settings.
type IngestConfig struct {
	// TypeSampleSize is the number of rows inspected per column (default: 1000)
	TypeSampleSize int `env:"TEXTSQL_TYPE_SAMPLE_SIZE" default:"1000"`

	// RowPolicy decides what happens to rows with the wrong field count:
	// "pad" fits them to the header, "strict" rejects the ingest (default: pad)
	RowPolicy string `env:"TEXTSQL_ROW_POLICY" default:"pad"`

	// MemoryLimitMB refuses ingestion above this heap size; 0 disables (default: 0)
	MemoryLimitMB int64 `env:"TEXTSQL_MEMORY_LIMIT_MB" default:"0"`
}

// StreamConfig holds text generation settings.
type StreamConfig struct {
	// PipeCapacity is the number of chunks buffered between generator and reader (default: 10)
	PipeCapacity int `env:"TEXTSQL_PIPE_CAPACITY" default:"10"`
}

// HistoryConfig holds query history settings.
type HistoryConfig struct {
	// File is the history file path; empty disables history (default: empty)
	File string `env:"TEXTSQL_HISTORY_FILE"`

	// Max is the line count above which the file is trimmed (default: 1000)
	Max int `env:"TEXTSQL_HISTORY_MAX" default:"1000"`

	// Trim is the number of newest entries kept after trimming (default: 900)
	Trim int `env:"TEXTSQL_HISTORY_TRIM" default:"900"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: warn)
	Level string `env:"TEXTSQL_LOG_LEVEL" envAlt:"LOG_LEVEL" default:"warn"`

	// Format is the log output format: text or json (default: text)
	Format string `env:"TEXTSQL_LOG_FORMAT" envAlt:"LOG_FORMAT" default:"text"`
}
