package textsql

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nao1215/textsql/domain/model"
	"github.com/nao1215/textsql/logging"
	"github.com/nao1215/textsql/tablestore"
)

// ResultSet is the outcome of a query: column names and rows rendered as text
type ResultSet = tablestore.ResultSet

// Column describes one column of a loaded table
type Column = tablestore.Column

// IngestReport describes the table an ingest produced
type IngestReport struct {
	// DocumentID is the document the table belongs to
	DocumentID string
	// Settings is the format the text was parsed with; zero for tabular sources
	Settings model.FormatSettings
	// Columns holds the column names and inferred types
	Columns []tablestore.Column
	// Rows is the number of data rows loaded
	Rows int
	// Malformed lists the 1-based line numbers of rows that were padded or truncated
	Malformed []int
}

// schemaMemo is the last loaded header and types of a document, used to
// narrow types when the same document is ingested again.
type schemaMemo struct {
	header model.Header
	types  []model.ColumnType
}

// Engine turns document text into a queryable table and runs queries
// against it. Ingest and RunQuery are admitted one at a time; a request that
// arrives while another is in flight fails with ErrBusy.
//
// Create an Engine with NewBuilder().Build(ctx) or NewEngine().
type Engine struct {
	store        *tablestore.Store
	guard        *TaskGuard
	detector     *model.Detector
	inferencer   *model.Inferencer
	rowPolicy    model.RowPolicy
	pipeCapacity int
	pool         *MemoryPool
	memoryLimit  *MemoryLimit
	logger       *slog.Logger

	mu      sync.Mutex
	schemas map[string]schemaMemo
}

// NewEngine creates an Engine with default settings
func NewEngine() *Engine {
	return newEngine(defaultEngineConfig())
}

type engineConfig struct {
	sampleLines    int
	typeSampleSize int
	rowPolicy      model.RowPolicy
	pipeCapacity   int
	memoryLimitMB  int64
	logger         *slog.Logger
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		sampleLines:    model.DefaultSampleLines,
		typeSampleSize: model.DefaultTypeSampleSize,
		rowPolicy:      model.RowPolicyPad,
		pipeCapacity:   DefaultPipeCapacity,
	}
}

func newEngine(cfg engineConfig) *Engine {
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:        tablestore.New(logger),
		guard:        NewTaskGuard(logger),
		detector:     model.NewDetector(cfg.sampleLines),
		inferencer:   model.NewInferencer(cfg.typeSampleSize),
		rowPolicy:    cfg.rowPolicy,
		pipeCapacity: cfg.pipeCapacity,
		pool:         NewMemoryPool(0),
		logger:       logger,
		schemas:      make(map[string]schemaMemo),
	}
	if cfg.memoryLimitMB > 0 {
		e.memoryLimit = NewMemoryLimit(cfg.memoryLimitMB)
	}
	return e
}

// DetectFormat guesses the format of text from its first lines
func (e *Engine) DetectFormat(text string) model.Detection {
	return e.detector.Detect(text)
}

// Ingest parses text with settings, infers column types and replaces the
// table of documentID. Unresolved settings fail with ErrDetectionFailure so
// the caller can ask the user for a format. On any error the previous table
// of the document is left as it was.
func (e *Engine) Ingest(ctx context.Context, documentID, text string, settings model.FormatSettings) (*IngestReport, error) {
	var report *IngestReport
	err := e.guard.Do(ctx, TaskIngest, func(ctx context.Context) error {
		if !settings.IsResolved() {
			return fmt.Errorf("%w: no separator or field widths for %s", ErrDetectionFailure, documentID)
		}
		if err := e.checkMemory("ingest"); err != nil {
			return err
		}

		parsed, err := model.Parse(text, settings, model.WithRowPolicy(e.rowPolicy))
		if err != nil {
			return NewErrorContext("ingest", documentID).WithDetails(settings.String()).Error(err)
		}
		logger := logging.WithFields(e.logger, "document", documentID, "settings", settings.String())
		if len(parsed.Malformed) > 0 {
			logger.Info("malformed rows fitted to header",
				"count", len(parsed.Malformed),
				"first_line", parsed.Malformed[0],
			)
		}

		report, err = e.load(ctx, documentID, parsed.Header, parsed.Rows)
		if err != nil {
			return err
		}
		report.Settings = settings
		report.Malformed = parsed.Malformed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// IngestAuto detects the format of text and ingests it. When no format can
// be detected it fails with ErrDetectionFailure and nothing changes.
func (e *Engine) IngestAuto(ctx context.Context, documentID, text string) (*IngestReport, error) {
	settings, ok := e.DetectFormat(text).Settings()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDetectionFailure, documentID)
	}
	e.logger.Debug("format detected", "document", documentID, "settings", settings.String())
	return e.Ingest(ctx, documentID, text, settings)
}

// IngestRows loads rows that are already tabular, such as a spreadsheet.
// Short rows are padded and long rows truncated to the header width.
func (e *Engine) IngestRows(ctx context.Context, documentID string, header []string, rows [][]string) (*IngestReport, error) {
	var report *IngestReport
	err := e.guard.Do(ctx, TaskIngest, func(ctx context.Context) error {
		if len(header) == 0 {
			return ErrEmptyData
		}
		if err := e.checkMemory("ingest"); err != nil {
			return err
		}

		normalized := model.NormalizeHeader(header)
		records := make([]model.Row, len(rows))
		for i, row := range rows {
			records[i] = fitRow(row, len(normalized))
		}

		var err error
		report, err = e.load(ctx, documentID, normalized, records)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// IngestDocument ingests an opened document, detecting the format of text
// documents.
func (e *Engine) IngestDocument(ctx context.Context, doc *Document) (*IngestReport, error) {
	if doc.Tabular() {
		rows := make([][]string, len(doc.Rows))
		for i, row := range doc.Rows {
			rows[i] = row
		}
		return e.IngestRows(ctx, doc.ID, doc.Header, rows)
	}
	return e.IngestAuto(ctx, doc.ID, doc.Text)
}

// load infers types and swaps in the new table. Caller holds the guard.
func (e *Engine) load(ctx context.Context, documentID string, header model.Header, rows []model.Row) (*IngestReport, error) {
	types := e.inferencer.Infer(header, rows, e.priorTypes(documentID, header))

	if err := e.store.Load(ctx, documentID, header, rows, types); err != nil {
		return nil, NewErrorContext("ingest", documentID).WithTable(tablestore.ThisTable).Error(err)
	}

	e.mu.Lock()
	e.schemas[documentID] = schemaMemo{header: header, types: types}
	e.mu.Unlock()

	columns, err := e.store.Schema(documentID)
	if err != nil {
		return nil, err
	}
	e.logger.Info("document ingested", "document", documentID, "columns", len(columns), "rows", len(rows))
	return &IngestReport{
		DocumentID: documentID,
		Columns:    columns,
		Rows:       len(rows),
	}, nil
}

// priorTypes returns the types of the previous load when its header matches
func (e *Engine) priorTypes(documentID string, header model.Header) []model.ColumnType {
	e.mu.Lock()
	defer e.mu.Unlock()

	memo, ok := e.schemas[documentID]
	if !ok || !memo.header.Equal(header) {
		return nil
	}
	return memo.types
}

func (e *Engine) checkMemory(operation string) error {
	if e.memoryLimit == nil {
		return nil
	}
	switch e.memoryLimit.CheckMemoryUsage() {
	case MemoryStatusExceeded:
		return e.memoryLimit.CreateMemoryError(operation)
	case MemoryStatusWarning:
		e.logger.Warn("memory usage approaching limit", "operation", operation)
	case MemoryStatusOK:
	}
	return nil
}

// RunQuery runs query against the table of documentID, or of the active
// document when useActive is true. A nil error means the query succeeded and
// may be recorded in the history; zero rows is a success.
func (e *Engine) RunQuery(ctx context.Context, documentID, query string, useActive bool) (*tablestore.ResultSet, error) {
	var result *tablestore.ResultSet
	err := e.guard.Do(ctx, TaskQuery, func(ctx context.Context) error {
		var err error
		result, err = e.store.Execute(ctx, documentID, query, useActive)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetActive makes documentID the target of queries run with useActive
func (e *Engine) SetActive(documentID string) error {
	return e.store.SetActive(documentID)
}

// Active returns the active document, if any
func (e *Engine) Active() (string, bool) {
	return e.store.Active()
}

// CloseDocument destroys the table of a closed document
func (e *Engine) CloseDocument(documentID string) error {
	e.mu.Lock()
	delete(e.schemas, documentID)
	e.mu.Unlock()
	return e.store.Drop(documentID)
}

// Schema returns the columns of documentID's table
func (e *Engine) Schema(documentID string) ([]tablestore.Column, error) {
	return e.store.Schema(documentID)
}

// Documents returns the identifiers of all loaded documents
func (e *Engine) Documents() []string {
	return e.store.Documents()
}

// Busy reports whether an ingest or query is in flight
func (e *Engine) Busy() bool {
	return e.guard.Busy()
}

// GenerateText renders rows as text with settings. The text is produced by a
// separate goroutine through a BoundedPipe; a generator failure surfaces as
// an ErrStream error from Read. Close the reader to stop early.
func (e *Engine) GenerateText(rows []model.Row, settings model.FormatSettings) io.ReadCloser {
	pipe := NewBoundedPipe(e.pipeCapacity, e.pool)
	go func() {
		if err := model.Generate(pipe, rows, settings); err != nil {
			pipe.CloseWithError(err)
			return
		}
		_ = pipe.Close() // Close never fails
	}()
	return pipe.Reader()
}

// GenerateResult renders a query result, header first, as text with settings
func (e *Engine) GenerateResult(result *tablestore.ResultSet, settings model.FormatSettings) io.ReadCloser {
	return e.GenerateText(result.Table(), settings)
}

// Close destroys every table
func (e *Engine) Close() error {
	e.mu.Lock()
	e.schemas = make(map[string]schemaMemo)
	e.mu.Unlock()
	return e.store.Close()
}
