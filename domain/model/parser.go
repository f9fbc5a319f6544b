package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// byteOrderMark is stripped from the start of text before parsing
const byteOrderMark = "\ufeff"

// RowPolicy decides what happens to rows whose field count differs from the header.
type RowPolicy int

const (
	// RowPolicyPad pads short rows with empty fields and truncates long rows.
	// Repaired rows are reported in ParseResult.Malformed.
	RowPolicyPad RowPolicy = iota
	// RowPolicyStrict fails the whole parse with ErrMalformedRow.
	RowPolicyStrict
)

// String returns the policy name
func (p RowPolicy) String() string {
	switch p {
	case RowPolicyStrict:
		return "strict"
	default:
		return "pad"
	}
}

// ParseRowPolicy converts "pad" or "strict" to a RowPolicy.
func ParseRowPolicy(s string) (RowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pad":
		return RowPolicyPad, nil
	case "strict":
		return RowPolicyStrict, nil
	default:
		return RowPolicyPad, fmt.Errorf("unknown row policy %q", s)
	}
}

type parseConfig struct {
	rowPolicy RowPolicy
}

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

// WithRowPolicy sets the field count mismatch policy.
func WithRowPolicy(p RowPolicy) ParseOption {
	return func(c *parseConfig) {
		c.rowPolicy = p
	}
}

// ParseResult holds the header and data rows of parsed text.
type ParseResult struct {
	// Header holds the normalized column names
	Header Header
	// Rows holds data rows, each exactly len(Header) fields long
	Rows []Row
	// Malformed lists the 1-based line numbers of rows that were padded or truncated
	Malformed []int
}

// rawRecord is a record before field count normalization
type rawRecord struct {
	fields []string
	line   int
}

// Parse converts text into a header and rows according to settings. The first
// record is the header. Blank lines are skipped.
func Parse(text string, settings FormatSettings, opts ...ParseOption) (*ParseResult, error) {
	cfg := parseConfig{rowPolicy: RowPolicyPad}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	text = strings.TrimPrefix(text, byteOrderMark)

	var records []rawRecord
	if settings.IsFixedWidth() {
		records = splitFixedWidth(text, settings.FieldWidths)
	} else {
		records = splitDelimited(text, settings.Separator, settings.TextQualifier)
	}
	if len(records) == 0 {
		return nil, ErrEmptyData
	}

	header := NormalizeHeader(records[0].fields)
	result := &ParseResult{
		Header: header,
		Rows:   make([]Row, 0, len(records)-1),
	}

	width := len(header)
	for _, rec := range records[1:] {
		fields := rec.fields
		if len(fields) != width {
			if cfg.rowPolicy == RowPolicyStrict {
				return nil, fmt.Errorf("%w: line %d has %d fields, expected %d",
					ErrMalformedRow, rec.line, len(fields), width)
			}
			fields = fitFields(fields, width)
			result.Malformed = append(result.Malformed, rec.line)
		}
		result.Rows = append(result.Rows, NewRow(fields))
	}
	return result, nil
}

// fitFields pads or truncates fields to width
func fitFields(fields []string, width int) []string {
	if len(fields) > width {
		return fields[:width]
	}
	out := make([]string, width)
	copy(out, fields)
	return out
}

// splitDelimited splits text into records honoring the qualifier. A qualified
// field may contain separators, line breaks and doubled qualifiers.
func splitDelimited(text string, sep, qual rune) []rawRecord {
	var (
		records     []rawRecord
		fields      []string
		field       strings.Builder
		inQuotes    bool
		fieldQuoted bool
		fieldStart  = true
		line        = 1
		recordLine  = 1
	)

	endField := func() {
		fields = append(fields, field.String())
		field.Reset()
		fieldStart = true
		fieldQuoted = false
	}
	endRecord := func() {
		blank := len(fields) == 0 && field.Len() == 0 && !fieldQuoted
		if !blank {
			endField()
			records = append(records, rawRecord{fields: fields, line: recordLine})
		}
		fields = nil
		field.Reset()
		fieldStart = true
		fieldQuoted = false
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size

		if inQuotes {
			if r == qual {
				next, nextSize := utf8.DecodeRuneInString(text[i:])
				if i < len(text) && next == qual {
					field.WriteRune(qual)
					i += nextSize
					continue
				}
				inQuotes = false
				continue
			}
			if r == '\n' {
				line++
			}
			field.WriteRune(r)
			continue
		}

		switch {
		case qual != 0 && r == qual && fieldStart:
			inQuotes = true
			fieldQuoted = true
			fieldStart = false
		case r == sep:
			endField()
		case r == '\r' || r == '\n':
			if r == '\r' && i < len(text) && text[i] == '\n' {
				i++
			}
			endRecord()
			line++
			recordLine = line
		default:
			field.WriteRune(r)
			fieldStart = false
		}
	}
	endRecord()

	return records
}

// splitLines splits text on \n, \r\n and lone \r
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// splitFixedWidth slices every non-blank line at the given rune widths. The
// last column takes the remainder of the line.
func splitFixedWidth(text string, widths []int) []rawRecord {
	var records []rawRecord
	for i, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, rawRecord{fields: sliceFixedWidth(line, widths), line: i + 1})
	}
	return records
}

// sliceFixedWidth cuts one line into len(widths) trimmed fields
func sliceFixedWidth(line string, widths []int) []string {
	runes := []rune(line)
	fields := make([]string, len(widths))
	start := 0
	for i, w := range widths {
		if start >= len(runes) {
			break
		}
		end := start + w
		if i == len(widths)-1 || end > len(runes) {
			end = len(runes)
		}
		fields[i] = strings.TrimSpace(string(runes[start:end]))
		start = end
	}
	return fields
}

// NormalizeHeader trims column names, names empty columns column<N> and
// renames duplicates (compared case-insensitively) to name_2, name_3, ...
func NormalizeHeader(names []string) Header {
	header := make(Header, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "column" + strconv.Itoa(i+1)
		}
		candidate := name
		for n := 2; seen[strings.ToLower(candidate)]; n++ {
			candidate = name + "_" + strconv.Itoa(n)
		}
		seen[strings.ToLower(candidate)] = true
		header[i] = candidate
	}
	return header
}
