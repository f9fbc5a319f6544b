// Package tablestore keeps one queryable table per document.
//
// Every document is loaded into its own private in-memory SQLite database
// (modernc.org/sqlite) holding a single table named "this". Queries refer to
// the current document's table as THIS, so the query language never needs
// to know document identifiers:
//
//	store := tablestore.New(slog.Default())
//	defer store.Close()
//
//	err := store.Load(ctx, "doc-1", header, rows, types)
//	if err != nil {
//	    return err
//	}
//	result, err := store.Execute(ctx, "doc-1", "SELECT * FROM THIS WHERE a > 1", false)
//
// Load builds the replacement database completely before swapping it in, so a
// concurrent Execute sees either the old table or the new one, never a mix.
package tablestore
