// Package textsql turns the text of an open document into a queryable
// in-memory table and runs SQL queries against it.
//
// Each document is loaded into its own private SQLite database as a table
// named this. Queries refer to it as THIS (identifiers are case-insensitive).
//
// # Features
//
//   - Detection of the separator and text qualifier of delimited text, or of
//     the column widths of fixed-width text, from the first lines
//   - Column type inference (Integer, Real, Boolean, DateTime, Text), so
//     numeric comparisons behave numerically
//   - Atomic reload: a query never observes a half-loaded table
//   - One ingest or query at a time; a concurrent request fails with ErrBusy
//   - Text generation streamed through a bounded pipe
//   - Compressed documents (gzip, bzip2, xz, zstandard), Excel (XLSX) and
//     Parquet documents
//   - Export of query results as CSV, TSV, XLSX or Parquet
//
// # Basic Usage
//
//	engine := textsql.NewEngine()
//	defer engine.Close()
//
//	if _, err := engine.IngestAuto(ctx, "doc1", "a,b\n1,2\n3,4\n"); err != nil {
//	    if errors.Is(err, textsql.ErrDetectionFailure) {
//	        // ask the user for a separator and call Ingest
//	    }
//	    return err
//	}
//
//	result, err := engine.RunQuery(ctx, "doc1", "SELECT * FROM THIS WHERE a > 1", false)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Rows) // [[3 4]]
//
// # Advanced Usage
//
// Use the Builder to change defaults or to preload documents:
//
//	engine, err := textsql.NewBuilder().
//	    WithRowPolicy(model.RowPolicyStrict).
//	    WithLogger(logger).
//	    AddPath("reports/**/*.csv.gz").
//	    Build(ctx)
//
// # Malformed Rows
//
// By default rows with too few fields are padded with empty strings and rows
// with too many are truncated; their line numbers are reported in
// IngestReport.Malformed. With model.RowPolicyStrict such a row fails the
// ingest with ErrMalformedRow instead.
//
// # SQL Syntax
//
// Since textsql uses SQLite3 as its underlying engine, all SQL syntax follows
// SQLite3's SQL dialect. For complete SQL syntax documentation, see:
// https://www.sqlite.org/lang.html
package textsql
