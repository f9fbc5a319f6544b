package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// minSampleLines is the smallest useful detection sample
const minSampleLines = 20

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Detect.SampleLines < minSampleLines {
		errs = append(errs, fmt.Sprintf("TEXTSQL_SAMPLE_LINES (%d) must be at least %d",
			c.Detect.SampleLines, minSampleLines))
	}

	if c.Ingest.TypeSampleSize <= 0 {
		errs = append(errs, "TEXTSQL_TYPE_SAMPLE_SIZE must be positive")
	}
	validPolicies := map[string]bool{"pad": true, "strict": true}
	if !validPolicies[strings.ToLower(c.Ingest.RowPolicy)] {
		errs = append(errs, fmt.Sprintf("TEXTSQL_ROW_POLICY (%q) must be one of: pad, strict", c.Ingest.RowPolicy))
	}
	if c.Ingest.MemoryLimitMB < 0 {
		errs = append(errs, "TEXTSQL_MEMORY_LIMIT_MB must be non-negative")
	}

	if c.Stream.PipeCapacity <= 0 {
		errs = append(errs, "TEXTSQL_PIPE_CAPACITY must be positive")
	}

	if c.History.Max <= 0 {
		errs = append(errs, "TEXTSQL_HISTORY_MAX must be positive")
	}
	if c.History.Trim <= 0 || c.History.Trim > c.History.Max {
		errs = append(errs, fmt.Sprintf("TEXTSQL_HISTORY_TRIM (%d) must be 1-%d", c.History.Trim, c.History.Max))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("TEXTSQL_LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("TEXTSQL_LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a one-line representation of the config for logging.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Detect: {SampleLines: %d}, ", c.Detect.SampleLines))
	b.WriteString(fmt.Sprintf("Ingest: {TypeSampleSize: %d, RowPolicy: %q, MemoryLimitMB: %d}, ",
		c.Ingest.TypeSampleSize, c.Ingest.RowPolicy, c.Ingest.MemoryLimitMB))
	b.WriteString(fmt.Sprintf("Stream: {PipeCapacity: %d}, ", c.Stream.PipeCapacity))
	b.WriteString(fmt.Sprintf("History: {File: %q, Max: %d, Trim: %d}, ",
		c.History.File, c.History.Max, c.History.Trim))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
