package tablestore

import "github.com/nao1215/textsql/domain/model"

// ResultSet is the outcome of a query: column names and rows rendered as text.
type ResultSet struct {
	Header model.Header
	Rows   []model.Row
}

// Table returns the header row followed by the data rows
func (r *ResultSet) Table() []model.Row {
	out := make([]model.Row, 0, len(r.Rows)+1)
	out = append(out, model.NewRow(r.Header))
	out = append(out, r.Rows...)
	return out
}

// Empty reports whether the query returned no data rows. This is a valid
// result, not an error.
func (r *ResultSet) Empty() bool {
	return len(r.Rows) == 0
}

// Len returns the number of data rows
func (r *ResultSet) Len() int {
	return len(r.Rows)
}
