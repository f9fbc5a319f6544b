package tablestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/textsql/domain/model"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

const (
	// ThisTable is the name of the table every document is loaded into.
	// SQLite identifiers are case-insensitive, so queries may write THIS.
	ThisTable = "this"

	sqliteDriverName = "sqlite"
	memoryDSN        = ":memory:"
)

// Column describes one column of a loaded table
type Column struct {
	Name string
	Type model.ColumnType
}

// documentTable is the loaded state of one document
type documentTable struct {
	db       *sql.DB
	columns  []Column
	rowCount int
	loadedAt time.Time
}

// Store owns one table per document identifier and the active document.
//
// Thread Safety: Load swaps tables under a write lock after building them;
// Execute holds a read lock for the whole query so the table it reads cannot
// be swapped out or closed underneath it.
type Store struct {
	mu        sync.RWMutex
	tables    map[string]*documentTable
	active    string
	hasActive bool
	logger    *slog.Logger
}

// New creates an empty Store. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		tables: make(map[string]*documentTable),
		logger: logger,
	}
}

// Load replaces the table for documentID with header and rows typed by types.
// The number of columns must equal len(types), otherwise ErrSchemaMismatch is
// returned and any existing table is left unchanged.
func (s *Store) Load(ctx context.Context, documentID string, header model.Header, rows []model.Row, types []model.ColumnType) error {
	if len(header) == 0 {
		return fmt.Errorf("%w: document %s has no columns", model.ErrSchemaMismatch, documentID)
	}
	if len(header) != len(types) {
		return fmt.Errorf("%w: %d columns but %d column types", model.ErrSchemaMismatch, len(header), len(types))
	}
	if err := ValidateColumnCount(len(header)); err != nil {
		return fmt.Errorf("%w: %w", model.ErrSchemaMismatch, err)
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("%w: row %d has %d fields, expected %d",
				model.ErrSchemaMismatch, i+1, len(row), len(header))
		}
	}

	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{Name: name, Type: types[i]}
	}

	db, err := openMemoryDatabase(ctx)
	if err != nil {
		return err
	}
	if err := createTable(ctx, db, columns); err != nil {
		_ = db.Close() // Ignore close error since we're already returning an error
		return fmt.Errorf("failed to create table: %w", err)
	}
	if err := insertRows(ctx, db, rows, types); err != nil {
		_ = db.Close() // Ignore close error since we're already returning an error
		return fmt.Errorf("failed to insert rows: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		_ = db.Close() // Ignore close error since we're already returning an error
		return fmt.Errorf("failed to make table read-only: %w", err)
	}

	next := &documentTable{
		db:       db,
		columns:  columns,
		rowCount: len(rows),
		loadedAt: time.Now(),
	}

	s.mu.Lock()
	old := s.tables[documentID]
	s.tables[documentID] = next
	s.mu.Unlock()

	// Readers hold the read lock while querying, so nobody uses old any more.
	if old != nil {
		_ = old.db.Close() // Ignore close error, the table is already replaced
	}

	s.logger.Debug("table loaded",
		"document", documentID,
		"columns", len(columns),
		"rows", len(rows),
		"replaced", old != nil,
	)
	return nil
}

// openMemoryDatabase opens a private in-memory database. The pool is pinned
// to a single connection because every new :memory: connection is a new,
// empty database.
func openMemoryDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, memoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}
	return db, nil
}

// buildCreateTableQuery constructs the CREATE TABLE statement for columns
func buildCreateTableQuery(columns []Column) string {
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdentifier(col.Name), col.Type.SQLType()))
	}
	return fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdentifier(ThisTable), strings.Join(defs, ", "))
}

// buildInsertQuery constructs the INSERT statement for count columns
func buildInsertQuery(count int) string {
	placeholders := make([]string, count)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, quoteIdentifier(ThisTable), strings.Join(placeholders, ", "))
}

func createTable(ctx context.Context, db *sql.DB, columns []Column) error {
	_, err := db.ExecContext(ctx, buildCreateTableQuery(columns))
	return err
}

// insertRows inserts all rows inside one transaction with a prepared statement
func insertRows(ctx context.Context, db *sql.DB, rows []model.Row, types []model.ColumnType) (err error) {
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() // Ignore rollback error, the insert error is more useful
		}
	}()

	stmt, err := tx.PrepareContext(ctx, buildInsertQuery(len(types)))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err = stmt.ExecContext(ctx, toSQLValues(row, types)...); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// SetActive makes documentID the target of queries run with useActive.
func (s *Store) SetActive(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[documentID]; !ok {
		return fmt.Errorf("%w: %s", model.ErrNotFound, documentID)
	}
	s.active = documentID
	s.hasActive = true
	return nil
}

// Active returns the active document, if any
func (s *Store) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.hasActive
}

// Execute runs query against the table of the active document when useActive
// is true, otherwise against documentID's table. Only a single read statement
// is accepted. Zero result rows is a valid result; failures wrap ErrQuery.
func (s *Store) Execute(ctx context.Context, documentID, query string, useActive bool) (*ResultSet, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", model.ErrQuery)
	}
	if err := ValidateReadOnlyQuery(query); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrQuery, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	target := documentID
	if useActive {
		if !s.hasActive {
			return nil, fmt.Errorf("%w: %w: no active document", model.ErrQuery, model.ErrNotFound)
		}
		target = s.active
	}
	table, ok := s.tables[target]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", model.ErrQuery, model.ErrNotFound, target)
	}

	start := time.Now()
	result, err := runQuery(ctx, table.db, query)
	if err != nil {
		s.logger.Debug("query failed", "document", target, "query", SanitizeForLog(query), "error", err)
		return nil, fmt.Errorf("%w: %w", model.ErrQuery, err)
	}

	s.logger.Debug("query executed",
		"document", target,
		"query", SanitizeForLog(query),
		"rows", len(result.Rows),
		"elapsed", time.Since(start),
	)
	return result, nil
}

// runQuery executes query and renders every value back to text
func runQuery(ctx context.Context, db *sql.DB, query string) (*ResultSet, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	result := &ResultSet{
		Header: make(model.Header, len(columnTypes)),
		Rows:   make([]model.Row, 0),
	}
	declTypes := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		result.Header[i] = ct.Name()
		declTypes[i] = ct.DatabaseTypeName()
	}

	values := make([]any, len(columnTypes))
	dest := make([]any, len(columnTypes))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(model.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v, declTypes[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Schema returns the columns of documentID's table
func (s *Store) Schema(documentID string) ([]Column, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.tables[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, documentID)
	}
	return slices.Clone(table.columns), nil
}

// RowCount returns the number of rows loaded for documentID
func (s *Store) RowCount(documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.tables[documentID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", model.ErrNotFound, documentID)
	}
	return table.rowCount, nil
}

// Documents returns the identifiers of all loaded documents, sorted
func (s *Store) Documents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.tables))
	for id := range s.tables {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Drop destroys the table of a closed document. Dropping the active document
// clears the active document.
func (s *Store) Drop(documentID string) error {
	s.mu.Lock()
	table, ok := s.tables[documentID]
	if ok {
		delete(s.tables, documentID)
		if s.hasActive && s.active == documentID {
			s.active = ""
			s.hasActive = false
		}
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", model.ErrNotFound, documentID)
	}
	return table.db.Close()
}

// Close destroys every table
func (s *Store) Close() error {
	s.mu.Lock()
	tables := s.tables
	s.tables = make(map[string]*documentTable)
	s.active = ""
	s.hasActive = false
	s.mu.Unlock()

	var errs []error
	for id, table := range tables {
		if err := table.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
