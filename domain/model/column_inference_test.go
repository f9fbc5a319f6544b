package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   []string
		expected ColumnType
	}{
		{
			name:     "all integers",
			values:   []string{"123", "456", "789"},
			expected: ColumnTypeInteger,
		},
		{
			name:     "signed integers",
			values:   []string{"-123", "+456", "0"},
			expected: ColumnTypeInteger,
		},
		{
			name:     "mixed integers and floats",
			values:   []string{"123", "45.6", "789"},
			expected: ColumnTypeReal,
		},
		{
			name:     "scientific notation",
			values:   []string{"1e10", "2.5e-3", "3.14e2"},
			expected: ColumnTypeReal,
		},
		{
			name:     "one word among numbers",
			values:   []string{"123", "hello", "789"},
			expected: ColumnTypeText,
		},
		{
			name:     "thousands separator is not an integer",
			values:   []string{"1,000", "2"},
			expected: ColumnTypeText,
		},
		{
			name:     "integer overflow",
			values:   []string{"99999999999999999999"},
			expected: ColumnTypeReal,
		},
		{
			name:     "booleans",
			values:   []string{"true", "No", "YES", "false"},
			expected: ColumnTypeBoolean,
		},
		{
			name:     "0 and 1 stay integers",
			values:   []string{"0", "1", "1"},
			expected: ColumnTypeInteger,
		},
		{
			name:     "ISO8601 dates",
			values:   []string{"2023-01-15", "2023-02-20"},
			expected: ColumnTypeDatetime,
		},
		{
			name:     "mixed datetime layouts",
			values:   []string{"2023-01-15T10:30:00Z", "01/15/2023", "10:30"},
			expected: ColumnTypeDatetime,
		},
		{
			name:     "empty values skipped",
			values:   []string{"123", "", "  ", "789"},
			expected: ColumnTypeInteger,
		},
		{
			name:     "only empty values",
			values:   []string{"", ""},
			expected: ColumnTypeText,
		},
		{
			name:     "no values",
			values:   nil,
			expected: ColumnTypeText,
		},
		{
			name:     "infinity is text",
			values:   []string{"Inf", "1.5"},
			expected: ColumnTypeText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, InferColumnType(tt.values))
		})
	}
}

func TestNormalizeDatetime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2023-01-15", "2023-01-15", true},
		{"2023-01-15T10:30:00", "2023-01-15 10:30:00", true},
		{"2023-01-15T10:30:00+09:00", "2023-01-15 01:30:00", true},
		{"2023-01-15 10:30:00.5", "2023-01-15 10:30:00.5", true},
		{"1/2/2023", "2023-01-02", true},
		{"15.01.2023", "2023-01-15", true},
		{"7:05:09", "07:05:09", true},
		{"2023-13-45", "", false},
		{"hello", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := NormalizeDatetime(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseScalars(t *testing.T) {
	t.Parallel()

	n, ok := ParseInteger(" 42 ")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = ParseInteger("4.2")
	assert.False(t, ok)

	f, ok := ParseReal(".5")
	assert.True(t, ok)
	assert.InDelta(t, 0.5, f, 1e-9)

	_, ok = ParseReal("0x1p-2")
	assert.False(t, ok)

	b, ok := ParseBoolean("Yes")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = ParseBoolean("y")
	assert.False(t, ok)
}

func TestInferencer_Infer(t *testing.T) {
	t.Parallel()

	header := NewHeader([]string{"id", "score", "name"})
	rows := []Row{
		{"1", "1.5", "alice"},
		{"2", "2", "bob"},
	}

	t.Run("without prior", func(t *testing.T) {
		t.Parallel()
		got := NewInferencer(0).Infer(header, rows, nil)
		assert.Equal(t, []ColumnType{ColumnTypeInteger, ColumnTypeReal, ColumnTypeText}, got)
	})

	t.Run("sample size bounds the inspected rows", func(t *testing.T) {
		t.Parallel()
		more := append([]Row{}, rows...)
		more = append(more, Row{"x", "y", "z"})
		got := NewInferencer(2).Infer(header, more, nil)
		assert.Equal(t, []ColumnType{ColumnTypeInteger, ColumnTypeReal, ColumnTypeText}, got)
	})

	t.Run("prior is kept while consistent", func(t *testing.T) {
		t.Parallel()
		prior := []ColumnType{ColumnTypeInteger, ColumnTypeReal, ColumnTypeText}
		got := NewInferencer(0).Infer(header, rows, prior)
		assert.Equal(t, prior, got)
	})

	t.Run("prior falls back to text when inconsistent", func(t *testing.T) {
		t.Parallel()
		prior := []ColumnType{ColumnTypeBoolean, ColumnTypeInteger, ColumnTypeText}
		got := NewInferencer(0).Infer(header, rows, prior)
		assert.Equal(t, []ColumnType{ColumnTypeText, ColumnTypeText, ColumnTypeText}, got)
	})

	t.Run("prior text is never narrowed", func(t *testing.T) {
		t.Parallel()
		prior := []ColumnType{ColumnTypeText, ColumnTypeText, ColumnTypeText}
		got := NewInferencer(0).Infer(header, rows, prior)
		assert.Equal(t, prior, got)
	})

	t.Run("prior of the wrong length is ignored", func(t *testing.T) {
		t.Parallel()
		got := NewInferencer(0).Infer(header, rows, []ColumnType{ColumnTypeText})
		assert.Equal(t, []ColumnType{ColumnTypeInteger, ColumnTypeReal, ColumnTypeText}, got)
	})

	t.Run("short rows count as empty", func(t *testing.T) {
		t.Parallel()
		got := NewInferencer(0).Infer(header, []Row{{"1"}, {"2", "3"}}, nil)
		assert.Equal(t, []ColumnType{ColumnTypeInteger, ColumnTypeInteger, ColumnTypeText}, got)
	})
}

func TestInferColumnsInfo(t *testing.T) {
	t.Parallel()

	info := InferColumnsInfo(NewHeader([]string{"a", "b"}), []Row{{"1", "x"}})
	assert.Equal(t, []ColumnInfo{
		{Name: "a", Type: ColumnTypeInteger},
		{Name: "b", Type: ColumnTypeText},
	}, info)

	assert.Nil(t, InferColumnsInfo(nil, nil))
}
