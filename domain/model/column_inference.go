package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultTypeSampleSize is the default number of data rows sampled per column
const DefaultTypeSampleSize = 1000

// datetimeKind tells how a parsed datetime value is normalized
type datetimeKind int

const (
	kindDate datetimeKind = iota
	kindTime
	kindTimestamp
)

// Normalized layouts. Lexical order of these equals chronological order.
const (
	normalizedDate      = "2006-01-02"
	normalizedTime      = "15:04:05.999999999"
	normalizedTimestamp = "2006-01-02 15:04:05.999999999"
)

// Common datetime patterns to detect
var datetimePatterns = []struct {
	pattern *regexp.Regexp
	formats []string // Multiple formats for the same pattern
	kind    datetimeKind
}{
	// ISO8601 formats with timezone
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
		[]string{time.RFC3339, time.RFC3339Nano},
		kindTimestamp,
	},
	// ISO8601 formats without timezone
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.000"},
		kindTimestamp,
	},
	// ISO8601 date and time with space
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.000"},
		kindTimestamp,
	},
	// ISO8601 date only
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		[]string{"2006-01-02"},
		kindDate,
	},
	// US formats
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}:\d{2}( (AM|PM))?$`),
		[]string{"1/2/2006 15:04:05", "1/2/2006 3:04:05 PM", "01/02/2006 15:04:05"},
		kindTimestamp,
	},
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		[]string{"1/2/2006", "01/02/2006"},
		kindDate,
	},
	// European formats
	{
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4} \d{1,2}:\d{2}:\d{2}$`),
		[]string{"2.1.2006 15:04:05", "02.01.2006 15:04:05"},
		kindTimestamp,
	},
	{
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`),
		[]string{"2.1.2006", "02.01.2006"},
		kindDate,
	},
	// Time only
	{
		regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"15:04:05", "15:04:05.000", "3:04:05"},
		kindTime,
	},
	{
		regexp.MustCompile(`^\d{1,2}:\d{2}$`),
		[]string{"15:04", "3:04"},
		kindTime,
	},
}

var (
	integerPattern = regexp.MustCompile(`^[+-]?\d+$`)
	realPattern    = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// isDatetime checks if a string value represents a datetime
func isDatetime(value string) bool {
	_, ok := NormalizeDatetime(value)
	return ok
}

// NormalizeDatetime parses value with the known layouts and renders it in a
// sortable ISO8601 form: dates as 2006-01-02, times as 15:04:05 and
// timestamps as "2006-01-02 15:04:05" (UTC when the input carries a zone).
func NormalizeDatetime(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	for _, dp := range datetimePatterns {
		if !dp.pattern.MatchString(value) {
			continue
		}
		// Try each format for this pattern
		for _, format := range dp.formats {
			t, err := time.Parse(format, value)
			if err != nil {
				continue
			}
			switch dp.kind {
			case kindDate:
				return t.Format(normalizedDate), true
			case kindTime:
				return t.Format(normalizedTime), true
			default:
				return t.UTC().Format(normalizedTimestamp), true
			}
		}
	}

	return "", false
}

// isInteger reports whether value is an optional sign followed by digits that fit in int64
func isInteger(value string) bool {
	_, ok := ParseInteger(value)
	return ok
}

// ParseInteger parses value under the Integer grammar.
func ParseInteger(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if !integerPattern.MatchString(value) {
		return 0, false
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isReal reports whether value is a plain decimal or exponent number
func isReal(value string) bool {
	_, ok := ParseReal(value)
	return ok
}

// ParseReal parses value under the Real grammar. Inf, NaN, hex floats and
// digit separators are rejected.
func ParseReal(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if !realPattern.MatchString(value) {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// isBoolean reports whether value is one of true/false/yes/no
func isBoolean(value string) bool {
	_, ok := ParseBoolean(value)
	return ok
}

// ParseBoolean parses true/false and yes/no, case-insensitively.
func ParseBoolean(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	default:
		return false, false
	}
}

// typeMatchers lists the candidate types in decreasing specificity.
// Text is the fallback and has no matcher.
var typeMatchers = []struct {
	columnType ColumnType
	match      func(string) bool
}{
	{ColumnTypeInteger, isInteger},
	{ColumnTypeReal, isReal},
	{ColumnTypeBoolean, isBoolean},
	{ColumnTypeDatetime, isDatetime},
}

// matches reports whether every non-empty value parses as columnType
func matches(values []string, columnType ColumnType) bool {
	if columnType == ColumnTypeText {
		return true
	}
	var match func(string) bool
	for _, m := range typeMatchers {
		if m.columnType == columnType {
			match = m.match
			break
		}
	}
	if match == nil {
		return false
	}
	for _, v := range values {
		if !match(v) {
			return false
		}
	}
	return true
}

// nonEmpty returns the values that are not blank
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// InferColumnType infers the column type from a slice of string values.
// Empty values are skipped. A column without any value is Text.
func InferColumnType(values []string) ColumnType {
	values = nonEmpty(values)
	if len(values) == 0 {
		return ColumnTypeText
	}

	for _, m := range typeMatchers {
		if matches(values, m.columnType) {
			return m.columnType
		}
	}
	return ColumnTypeText
}

// Inferencer assigns a ColumnType to every column of parsed rows.
type Inferencer struct {
	// SampleSize is the maximum number of data rows inspected per column
	SampleSize int
}

// NewInferencer returns an Inferencer sampling at most sampleSize rows.
func NewInferencer(sampleSize int) *Inferencer {
	if sampleSize <= 0 {
		sampleSize = DefaultTypeSampleSize
	}
	return &Inferencer{SampleSize: sampleSize}
}

// Infer returns one type per header column. When prior is given it narrows
// instead of widening: a prior non-Text type survives only if the new sample
// still parses under it, otherwise the column becomes Text.
func (in *Inferencer) Infer(header Header, rows []Row, prior []ColumnType) []ColumnType {
	sampleSize := in.SampleSize
	if sampleSize <= 0 {
		sampleSize = DefaultTypeSampleSize
	}
	sample := rows
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	if len(prior) != len(header) {
		prior = nil
	}

	types := make([]ColumnType, len(header))
	values := make([]string, 0, len(sample))
	for i := range header {
		values = values[:0]
		for _, row := range sample {
			if i < len(row) {
				values = append(values, row[i])
			}
		}

		if prior == nil {
			types[i] = InferColumnType(values)
			continue
		}
		if prior[i] != ColumnTypeText && matches(nonEmpty(values), prior[i]) {
			types[i] = prior[i]
			continue
		}
		types[i] = ColumnTypeText
	}
	return types
}

// InferColumnsInfo infers column information from header and data rows
func InferColumnsInfo(header Header, rows []Row) []ColumnInfo {
	if len(header) == 0 {
		return nil
	}
	types := NewInferencer(DefaultTypeSampleSize).Infer(header, rows, nil)
	columns := make([]ColumnInfo, len(header))
	for i, name := range header {
		columns[i] = ColumnInfo{Name: name, Type: types[i]}
	}
	return columns
}
