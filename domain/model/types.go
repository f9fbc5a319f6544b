// Package model provides domain model for textsql
package model

import (
	"fmt"
	"strings"
)

// Header is the list of column names taken from the first parsed row.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Row is one parsed line: an ordered list of raw string fields.
type Row []string

// NewRow create new Row.
func NewRow(r []string) Row {
	return Row(r)
}

// Equal compare Row.
func (r Row) Equal(r2 Row) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if v != r2[i] {
			return false
		}
	}
	return true
}

// ColumnType is the inferred type of a column.
type ColumnType int

const (
	// ColumnTypeText represents free text. Inference never fails on it.
	ColumnTypeText ColumnType = iota
	// ColumnTypeInteger represents signed 64 bit integers
	ColumnTypeInteger
	// ColumnTypeReal represents floating point numbers
	ColumnTypeReal
	// ColumnTypeBoolean represents true/false, yes/no values
	ColumnTypeBoolean
	// ColumnTypeDatetime represents dates, times and timestamps
	ColumnTypeDatetime
)

const (
	sqlTypeText    = "TEXT"
	sqlTypeInteger = "INTEGER"
	sqlTypeReal    = "REAL"
	// SQLTypeBoolean is the declared type of boolean columns. SQLite gives it
	// NUMERIC affinity, values are stored as 0/1.
	SQLTypeBoolean = "BOOLEAN"
)

// String returns the human readable type name
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeText:
		return "Text"
	case ColumnTypeInteger:
		return "Integer"
	case ColumnTypeReal:
		return "Real"
	case ColumnTypeBoolean:
		return "Boolean"
	case ColumnTypeDatetime:
		return "DateTime"
	default:
		return "Text"
	}
}

// SQLType returns the type used in CREATE TABLE for this column type.
func (ct ColumnType) SQLType() string {
	switch ct {
	case ColumnTypeInteger:
		return sqlTypeInteger
	case ColumnTypeReal:
		return sqlTypeReal
	case ColumnTypeBoolean:
		return SQLTypeBoolean
	case ColumnTypeDatetime:
		return sqlTypeText // SQLite stores datetime as TEXT in ISO8601 format
	default:
		return sqlTypeText
	}
}

// ColumnInfo represents column information with name and inferred type
type ColumnInfo struct {
	Name string
	Type ColumnType
}

// FormatSettings describes how raw text is split into fields.
// A zero Separator means "unset" and a zero TextQualifier means "no quoting".
// Once resolved exactly one of Separator and FieldWidths is set.
type FormatSettings struct {
	// Separator is the single field separator character
	Separator rune
	// TextQualifier is the quote character, 0 when fields are never quoted
	TextQualifier rune
	// FieldWidths are the column widths of fixed-width text, in characters
	FieldWidths []int
}

// NewDelimitedSettings returns settings for separator-delimited text.
func NewDelimitedSettings(separator, qualifier rune) FormatSettings {
	return FormatSettings{Separator: separator, TextQualifier: qualifier}
}

// NewFixedWidthSettings returns settings for fixed-width text.
func NewFixedWidthSettings(widths ...int) FormatSettings {
	w := make([]int, len(widths))
	copy(w, widths)
	return FormatSettings{FieldWidths: w}
}

// IsFixedWidth reports whether the settings describe fixed-width columns
func (s FormatSettings) IsFixedWidth() bool {
	return len(s.FieldWidths) > 0
}

// IsResolved reports whether the settings can drive a parse.
func (s FormatSettings) IsResolved() bool {
	return s.Validate() == nil
}

// Validate checks that exactly one of separator and field widths is set.
func (s FormatSettings) Validate() error {
	hasSep := s.Separator != 0
	hasWidths := len(s.FieldWidths) > 0
	switch {
	case hasSep && hasWidths:
		return fmt.Errorf("%w: separator and field widths are mutually exclusive", ErrInvalidSettings)
	case !hasSep && !hasWidths:
		return fmt.Errorf("%w: neither separator nor field widths set", ErrInvalidSettings)
	}
	if hasSep {
		if s.Separator == '\n' || s.Separator == '\r' {
			return fmt.Errorf("%w: line terminator cannot be a separator", ErrInvalidSettings)
		}
		if s.Separator == s.TextQualifier {
			return fmt.Errorf("%w: separator and text qualifier must differ", ErrInvalidSettings)
		}
	}
	for i, w := range s.FieldWidths {
		if w <= 0 {
			return fmt.Errorf("%w: field width %d at position %d is not positive", ErrInvalidSettings, w, i+1)
		}
	}
	return nil
}

// String renders the settings for logs and error messages
func (s FormatSettings) String() string {
	if s.IsFixedWidth() {
		parts := make([]string, len(s.FieldWidths))
		for i, w := range s.FieldWidths {
			parts[i] = fmt.Sprint(w)
		}
		return "fixed-width(" + strings.Join(parts, ",") + ")"
	}
	if s.Separator == 0 {
		return "undetected"
	}
	if s.TextQualifier == 0 {
		return fmt.Sprintf("separator=%q", s.Separator)
	}
	return fmt.Sprintf("separator=%q qualifier=%q", s.Separator, s.TextQualifier)
}

// Detection is the outcome of format detection: either detected settings or
// the explicit "ask the user" signal.
type Detection struct {
	settings FormatSettings
	detected bool
}

// Detected wraps resolved settings.
func Detected(s FormatSettings) Detection {
	return Detection{settings: s, detected: true}
}

// Undetected is returned when no separator or fixed-width layout fits.
func Undetected() Detection {
	return Detection{}
}

// Settings returns the detected settings and whether detection succeeded.
func (d Detection) Settings() (FormatSettings, bool) {
	return d.settings, d.detected
}

// OK reports whether a format was detected
func (d Detection) OK() bool {
	return d.detected
}
