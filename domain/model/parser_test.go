package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Delimited(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		settings  FormatSettings
		header    Header
		rows      []Row
		malformed []int
	}{
		{
			name:     "simple csv",
			text:     "a,b\n1,2\n3,4\n",
			settings: NewDelimitedSettings(',', '"'),
			header:   Header{"a", "b"},
			rows:     []Row{{"1", "2"}, {"3", "4"}},
		},
		{
			name:     "no trailing newline and CRLF",
			text:     "a;b\r\n1;2\r\n3;4",
			settings: NewDelimitedSettings(';', '"'),
			header:   Header{"a", "b"},
			rows:     []Row{{"1", "2"}, {"3", "4"}},
		},
		{
			name:     "quoted separator, doubled qualifier and line break",
			text:     "name,note\n\"Smith, J\",\"say \"\"hi\"\"\"\nDoe,\"two\nlines\"\n",
			settings: NewDelimitedSettings(',', '"'),
			header:   Header{"name", "note"},
			rows:     []Row{{"Smith, J", `say "hi"`}, {"Doe", "two\nlines"}},
		},
		{
			name:     "qualifier disabled keeps quotes",
			text:     "a\tb\n\"x\"\ty\n",
			settings: NewDelimitedSettings('\t', 0),
			header:   Header{"a", "b"},
			rows:     []Row{{`"x"`, "y"}},
		},
		{
			name:     "blank lines skipped",
			text:     "a,b\n\n1,2\n\n",
			settings: NewDelimitedSettings(',', '"'),
			header:   Header{"a", "b"},
			rows:     []Row{{"1", "2"}},
		},
		{
			name:     "quoted empty single field is a row",
			text:     "a\n\"\"\nx\n",
			settings: NewDelimitedSettings(',', '"'),
			header:   Header{"a"},
			rows:     []Row{{""}, {"x"}},
		},
		{
			name:      "short and long rows are fitted",
			text:      "a,b,c\n1\n1,2,3,4\n5,6,7\n",
			settings:  NewDelimitedSettings(',', '"'),
			header:    Header{"a", "b", "c"},
			rows:      []Row{{"1", "", ""}, {"1", "2", "3"}, {"5", "6", "7"}},
			malformed: []int{2, 3},
		},
		{
			name:     "byte order mark stripped",
			text:     "\ufeffid,v\n1,2\n",
			settings: NewDelimitedSettings(',', '"'),
			header:   Header{"id", "v"},
			rows:     []Row{{"1", "2"}},
		},
		{
			name:     "header only",
			text:     "a,b\n",
			settings: NewDelimitedSettings(',', '"'),
			header:   Header{"a", "b"},
			rows:     []Row{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.text, tt.settings)
			require.NoError(t, err)
			assert.Equal(t, tt.header, got.Header)
			assert.Equal(t, tt.rows, got.Rows)
			assert.Equal(t, tt.malformed, got.Malformed)
		})
	}
}

func TestParse_LineNumbersAfterQuotedLineBreak(t *testing.T) {
	t.Parallel()

	got, err := Parse("a,b\n\"x\ny\",1\nshort\n", NewDelimitedSettings(',', '"'))
	require.NoError(t, err)
	assert.Equal(t, []int{4}, got.Malformed)
}

func TestParse_StrictRowPolicy(t *testing.T) {
	t.Parallel()

	_, err := Parse("a,b\n1\n", NewDelimitedSettings(',', '"'), WithRowPolicy(RowPolicyStrict))
	assert.True(t, errors.Is(err, ErrMalformedRow), "got %v", err)

	got, err := Parse("a,b\n1,2\n", NewDelimitedSettings(',', '"'), WithRowPolicy(RowPolicyStrict))
	require.NoError(t, err)
	assert.Equal(t, []Row{{"1", "2"}}, got.Rows)
}

func TestParse_FixedWidth(t *testing.T) {
	t.Parallel()

	text := "name  age city\nalice 30  paris\nbob   25  rome de\n"
	got, err := Parse(text, NewFixedWidthSettings(6, 4, 5))
	require.NoError(t, err)
	assert.Equal(t, Header{"name", "age", "city"}, got.Header)
	assert.Equal(t, []Row{
		{"alice", "30", "paris"},
		{"bob", "25", "rome de"},
	}, got.Rows)
}

func TestParse_FixedWidthShortLine(t *testing.T) {
	t.Parallel()

	got, err := Parse("ab cd\nx\n", NewFixedWidthSettings(3, 2))
	require.NoError(t, err)
	assert.Equal(t, []Row{{"x", ""}}, got.Rows)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := Parse("", NewDelimitedSettings(',', '"'))
	assert.True(t, errors.Is(err, ErrEmptyData))

	_, err = Parse("\n\n", NewDelimitedSettings(',', '"'))
	assert.True(t, errors.Is(err, ErrEmptyData))

	_, err = Parse("a,b\n", FormatSettings{})
	assert.True(t, errors.Is(err, ErrInvalidSettings))
}

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []string
		want  Header
	}{
		{"trimmed", []string{" a ", "b"}, Header{"a", "b"}},
		{"empty names", []string{"", "b", " "}, Header{"column1", "b", "column3"}},
		{"duplicates", []string{"id", "ID", "id"}, Header{"id", "ID_2", "id_3"}},
		{"rename does not collide", []string{"a", "a_2", "a"}, Header{"a", "a_2", "a_3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeHeader(tt.input))
		})
	}
}

func TestParseRowPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseRowPolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, RowPolicyStrict, p)
	assert.Equal(t, "strict", p.String())

	p, err = ParseRowPolicy("")
	require.NoError(t, err)
	assert.Equal(t, RowPolicyPad, p)

	_, err = ParseRowPolicy("drop")
	assert.Error(t, err)
}
