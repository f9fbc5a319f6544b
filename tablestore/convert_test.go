package tablestore

import (
	"testing"
	"time"

	"github.com/nao1215/textsql/domain/model"
	"github.com/stretchr/testify/assert"
)

func TestToSQLValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		typ   model.ColumnType
		want  any
	}{
		{"text kept verbatim", " x ", model.ColumnTypeText, " x "},
		{"empty text is not null", "", model.ColumnTypeText, ""},
		{"integer", "42", model.ColumnTypeInteger, int64(42)},
		{"empty integer is null", "  ", model.ColumnTypeInteger, nil},
		{"unparsable integer kept as text", "n/a", model.ColumnTypeInteger, "n/a"},
		{"real", "1.5", model.ColumnTypeReal, 1.5},
		{"boolean true", "Yes", model.ColumnTypeBoolean, int64(1)},
		{"boolean false", "false", model.ColumnTypeBoolean, int64(0)},
		{"datetime normalized", "2023-01-15T10:30:00", model.ColumnTypeDatetime, "2023-01-15 10:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, toSQLValue(tt.value, tt.typ))
		})
	}
}

func TestToSQLValues_ShortRow(t *testing.T) {
	t.Parallel()

	got := toSQLValues(model.Row{"1"}, []model.ColumnType{model.ColumnTypeInteger, model.ColumnTypeText})
	assert.Equal(t, []any{int64(1), ""}, got)
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		declType string
		want     string
	}{
		{"null", nil, "INTEGER", ""},
		{"integer", int64(-7), "INTEGER", "-7"},
		{"boolean true", int64(1), "BOOLEAN", "true"},
		{"boolean false lower case decl", int64(0), "boolean", "false"},
		{"integer in computed column", int64(1), "", "1"},
		{"real", 1.5, "REAL", "1.5"},
		{"whole real", float64(3), "REAL", "3"},
		{"tiny real", 1e-7, "REAL", "1e-07"},
		{"huge real", 1e22, "REAL", "1e+22"},
		{"bytes", []byte("blob"), "", "blob"},
		{"bool", true, "", "true"},
		{"time", time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC), "", "2023-01-15 10:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, formatValue(tt.value, tt.declType))
		})
	}
}
