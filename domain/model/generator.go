package model

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Generate writes rows as text using settings. It is the inverse of Parse:
// a field containing the separator, the qualifier or a line break is wrapped
// in the qualifier with embedded qualifiers doubled. Every row ends with "\n".
func Generate(w io.Writer, rows []Row, settings FormatSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for i, row := range rows {
		var err error
		if settings.IsFixedWidth() {
			err = writeFixedWidthRow(bw, row, settings.FieldWidths)
		} else {
			err = writeDelimitedRow(bw, row, settings.Separator, settings.TextQualifier)
		}
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return bw.Flush()
}

// GenerateString is Generate into a string.
func GenerateString(rows []Row, settings FormatSettings) (string, error) {
	var sb strings.Builder
	if err := Generate(&sb, rows, settings); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// needsQuoting reports whether field must be qualified to survive a re-parse
func needsQuoting(field string, sep, qual rune) bool {
	if strings.ContainsRune(field, sep) || strings.ContainsAny(field, "\r\n") {
		return true
	}
	return qual != 0 && strings.ContainsRune(field, qual)
}

func writeDelimitedRow(w *bufio.Writer, row Row, sep, qual rune) error {
	// A lone empty field would read back as a blank line and be skipped.
	if len(row) == 1 && row[0] == "" {
		if qual == 0 {
			return fmt.Errorf("%w: single empty field needs a text qualifier", ErrUnquotableField)
		}
		if _, err := w.WriteString(string(qual) + string(qual) + "\n"); err != nil {
			return err
		}
		return nil
	}

	for i, field := range row {
		if i > 0 {
			if _, err := w.WriteRune(sep); err != nil {
				return err
			}
		}
		if !needsQuoting(field, sep, qual) {
			if _, err := w.WriteString(field); err != nil {
				return err
			}
			continue
		}
		if qual == 0 {
			return fmt.Errorf("%w: field %d needs quoting but no text qualifier is set", ErrUnquotableField, i+1)
		}
		q := string(qual)
		escaped := strings.ReplaceAll(field, q, q+q)
		if _, err := w.WriteString(q + escaped + q); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

func writeFixedWidthRow(w *bufio.Writer, row Row, widths []int) error {
	for i, width := range widths {
		field := ""
		if i < len(row) {
			field = row[i]
		}
		if strings.ContainsAny(field, "\r\n") {
			return fmt.Errorf("%w: field %d contains a line break", ErrUnquotableField, i+1)
		}
		n := utf8.RuneCountInString(field)
		last := i == len(widths)-1
		if !last && n > width {
			return fmt.Errorf("%w: field %d is %d characters wide, column width is %d",
				ErrUnquotableField, i+1, n, width)
		}
		if _, err := w.WriteString(field); err != nil {
			return err
		}
		if !last {
			if _, err := w.WriteString(strings.Repeat(" ", width-n)); err != nil {
				return err
			}
		}
	}
	_, err := w.WriteString("\n")
	return err
}
