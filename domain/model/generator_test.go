package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rows     []Row
		settings FormatSettings
		want     string
	}{
		{
			name:     "plain fields",
			rows:     []Row{{"a", "b"}, {"1", "2"}},
			settings: NewDelimitedSettings(',', '"'),
			want:     "a,b\n1,2\n",
		},
		{
			name:     "separator, qualifier and line break are quoted",
			rows:     []Row{{"x,y", `say "hi"`, "two\nlines"}},
			settings: NewDelimitedSettings(',', '"'),
			want:     "\"x,y\",\"say \"\"hi\"\"\",\"two\nlines\"\n",
		},
		{
			name:     "tab separator leaves commas alone",
			rows:     []Row{{"x,y", "z"}},
			settings: NewDelimitedSettings('\t', '"'),
			want:     "x,y\tz\n",
		},
		{
			name:     "single empty field",
			rows:     []Row{{"h"}, {""}},
			settings: NewDelimitedSettings(',', '"'),
			want:     "h\n\"\"\n",
		},
		{
			name:     "fixed width pads all but the last column",
			rows:     []Row{{"id", "name"}, {"1", "alice"}},
			settings: NewFixedWidthSettings(4, 3),
			want:     "id  name\n1   alice\n",
		},
		{
			name:     "no rows",
			rows:     nil,
			settings: NewDelimitedSettings(',', '"'),
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := GenerateString(tt.rows, tt.settings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_Unquotable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rows     []Row
		settings FormatSettings
	}{
		{"separator without qualifier", []Row{{"x,y"}}, NewDelimitedSettings(',', 0)},
		{"line break without qualifier", []Row{{"a\nb", "c"}}, NewDelimitedSettings(',', 0)},
		{"single empty field without qualifier", []Row{{""}}, NewDelimitedSettings(',', 0)},
		{"fixed width overflow", []Row{{"toolong", "x"}}, NewFixedWidthSettings(3, 3)},
		{"fixed width line break", []Row{{"a", "b\nc"}}, NewFixedWidthSettings(3, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := GenerateString(tt.rows, tt.settings)
			assert.True(t, errors.Is(err, ErrUnquotableField), "got %v", err)
		})
	}
}

func TestGenerate_InvalidSettings(t *testing.T) {
	t.Parallel()

	_, err := GenerateString([]Row{{"a"}}, FormatSettings{})
	assert.True(t, errors.Is(err, ErrInvalidSettings))
}

func TestParseGenerateRoundTrip(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{"id", "text", "note"},
		{"1", "plain", ""},
		{"2", "comma, inside", `quote " inside`},
		{"3", "semi;colon|pipe\ttab", "multi\nline\r\nfield"},
		{"4", "", `""`},
		{"5", " padded ", "ünïcödé"},
	}

	for _, settings := range []FormatSettings{
		NewDelimitedSettings(',', '"'),
		NewDelimitedSettings(';', '"'),
		NewDelimitedSettings('\t', '\''),
		NewDelimitedSettings('|', '"'),
	} {
		t.Run(settings.String(), func(t *testing.T) {
			t.Parallel()
			text, err := GenerateString(rows, settings)
			require.NoError(t, err)

			got, err := Parse(text, settings)
			require.NoError(t, err)
			assert.Equal(t, rows[0], Row(got.Header))
			assert.Equal(t, rows[1:], got.Rows)
			assert.Empty(t, got.Malformed)
		})
	}
}
