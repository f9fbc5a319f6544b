package textsql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ec   *ErrorContext
		want string
	}{
		{
			name: "operation only",
			ec:   NewErrorContext("ingest", ""),
			want: "textsql: ingest failed: textsql: empty data",
		},
		{
			name: "all fields",
			ec:   NewErrorContext("ingest", "doc1").WithTable("this").WithDetails("separator=','"),
			want: "textsql: ingest failed, document: doc1, table: this, details: separator=',': textsql: empty data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.ec.Error(ErrEmptyData)
			assert.EqualError(t, err, tt.want)
			assert.True(t, errors.Is(err, ErrEmptyData))
		})
	}

	assert.EqualError(t, NewErrorContext("open", "x").Error(nil), "textsql: open failed, document: x")
}
