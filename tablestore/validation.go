package tablestore

import (
	"errors"
	"strings"
)

// MaxColumnCount defines the maximum number of columns allowed in a table
const MaxColumnCount = 2000

// maxLogLength limits query text written to logs
const maxLogLength = 200

var (
	// ErrTooManyColumns is returned when a document has too many columns
	ErrTooManyColumns = errors.New("too many columns")
	// ErrReadOnlyQuery is returned for statements that could modify a table
	ErrReadOnlyQuery = errors.New("only a single read statement is allowed")
)

// readStatements are the leading keywords of statements that only read
var readStatements = []string{"SELECT", "WITH", "VALUES", "EXPLAIN"}

// ValidateColumnCount checks if the number of columns is within acceptable limits
func ValidateColumnCount(columnCount int) error {
	if columnCount > MaxColumnCount {
		return ErrTooManyColumns
	}
	return nil
}

// quoteIdentifier quotes an SQL identifier, doubling embedded quotes
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SanitizeForLog flattens and shortens query text before logging
func SanitizeForLog(input string) string {
	result := strings.Join(strings.Fields(input), " ")
	if len(result) > maxLogLength {
		result = result[:maxLogLength] + "..."
	}
	return result
}

// ValidateReadOnlyQuery accepts exactly one statement starting with a read
// keyword. Writes hidden behind WITH are stopped by the connection being
// query-only.
func ValidateReadOnlyQuery(query string) error {
	stmt, rest := splitStatement(query)
	if strings.TrimSpace(strings.Trim(rest, "; \t\r\n")) != "" {
		return ErrReadOnlyQuery
	}
	keyword := leadingKeyword(stmt)
	for _, k := range readStatements {
		if keyword == k {
			return nil
		}
	}
	return ErrReadOnlyQuery
}

// splitStatement cuts query at the first semicolon outside quotes and comments
func splitStatement(query string) (string, string) {
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '[':
			quote = ']'
		case c == '-' && strings.HasPrefix(query[i:], "--"):
			if end := strings.IndexByte(query[i:], '\n'); end >= 0 {
				i += end
			} else {
				i = len(query)
			}
		case c == '/' && strings.HasPrefix(query[i:], "/*"):
			if end := strings.Index(query[i+2:], "*/"); end >= 0 {
				i += end + 3
			} else {
				i = len(query)
			}
		case c == ';':
			return query[:i], query[i+1:]
		}
	}
	return query, ""
}

// leadingKeyword returns the first word of stmt in upper case, skipping
// comments and opening parentheses
func leadingKeyword(stmt string) string {
	for {
		stmt = strings.TrimLeft(stmt, " \t\r\n(")
		switch {
		case strings.HasPrefix(stmt, "--"):
			end := strings.IndexByte(stmt, '\n')
			if end < 0 {
				return ""
			}
			stmt = stmt[end+1:]
		case strings.HasPrefix(stmt, "/*"):
			end := strings.Index(stmt, "*/")
			if end < 0 {
				return ""
			}
			stmt = stmt[end+2:]
		default:
			end := strings.IndexFunc(stmt, func(r rune) bool {
				return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
			})
			if end < 0 {
				end = len(stmt)
			}
			return strings.ToUpper(stmt[:end])
		}
	}
}
