package tablestore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/textsql/domain/model"
)

// toSQLValue converts a raw field to the value stored for a column of type t.
// Empty fields of typed columns become NULL. A value that does not parse
// (rows past the inference sample) is stored as text rather than rejected.
func toSQLValue(value string, t model.ColumnType) any {
	if t == model.ColumnTypeText {
		return value
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}

	switch t {
	case model.ColumnTypeInteger:
		if n, ok := model.ParseInteger(value); ok {
			return n
		}
	case model.ColumnTypeReal:
		if f, ok := model.ParseReal(value); ok {
			return f
		}
	case model.ColumnTypeBoolean:
		if b, ok := model.ParseBoolean(value); ok {
			if b {
				return int64(1)
			}
			return int64(0)
		}
	case model.ColumnTypeDatetime:
		if s, ok := model.NormalizeDatetime(value); ok {
			return s
		}
	}
	return value
}

// toSQLValues converts a row for insertion
func toSQLValues(row model.Row, types []model.ColumnType) []any {
	values := make([]any, len(types))
	for i, t := range types {
		field := ""
		if i < len(row) {
			field = row[i]
		}
		values[i] = toSQLValue(field, t)
	}
	return values
}

// formatValue renders a scanned value back to text. declType is the declared
// column type reported by the driver, empty for computed expressions.
func formatValue(v any, declType string) string {
	isBool := strings.EqualFold(declType, model.SQLTypeBoolean)
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		if isBool {
			return strconv.FormatBool(x != 0)
		}
		return strconv.FormatInt(x, 10)
	case float64:
		return formatReal(x)
	case bool:
		return strconv.FormatBool(x)
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02 15:04:05.999999999")
	default:
		return fmt.Sprint(x)
	}
}

// formatReal prints plain decimals and switches to exponent form only for
// very large or very small magnitudes
func formatReal(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
