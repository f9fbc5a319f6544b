package textsql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	"github.com/nao1215/textsql/domain/model"
)

// File extensions
const (
	// extCSV is the CSV file extension
	extCSV = ".csv"
	// extTSV is the TSV file extension
	extTSV = ".tsv"
	// extParquet is the Parquet file extension
	extParquet = ".parquet"
	// extXLSX is the Excel XLSX file extension
	extXLSX = ".xlsx"
	// extGZ is the gzip compression extension
	extGZ = ".gz"
	// extBZ2 is the bzip2 compression extension
	extBZ2 = ".bz2"
	// extXZ is the xz compression extension
	extXZ = ".xz"
	// extZSTD is the zstd compression extension
	extZSTD = ".zst"
)

// DocumentKind tells how a document's content is turned into rows
type DocumentKind int

const (
	// DocumentText is delimited or fixed-width text; its format is detected
	DocumentText DocumentKind = iota
	// DocumentXLSX is an Excel workbook; the first sheet is used
	DocumentXLSX
	// DocumentParquet is a Parquet file
	DocumentParquet
)

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	switch k {
	case DocumentXLSX:
		return "xlsx"
	case DocumentParquet:
		return "parquet"
	default:
		return "text"
	}
}

// KindOf returns the document kind for a file name, ignoring any
// compression suffix
func KindOf(name string) DocumentKind {
	switch strings.ToLower(filepath.Ext(RemoveCompressionExtension(name))) {
	case extXLSX:
		return DocumentXLSX
	case extParquet:
		return DocumentParquet
	default:
		return DocumentText
	}
}

// Document is the content of one opened document. Text documents carry
// Text; tabular documents carry Header and Rows instead.
type Document struct {
	ID     string
	Kind   DocumentKind
	Text   string
	Header model.Header
	Rows   []model.Row
}

// Tabular reports whether the document already has rows
func (d *Document) Tabular() bool {
	return d.Kind != DocumentText
}

// OpenDocument reads the file at path, decompressing it when needed. The
// document ID is the path.
func OpenDocument(ctx context.Context, path string) (*Document, error) {
	reader, cleanup, err := openDecompressed(path)
	if err != nil {
		return nil, err
	}
	defer cleanup() //nolint:errcheck // read-only file

	return readDocument(ctx, reader, path, path)
}

// ReadDocument reads a document from r. name selects the document kind and,
// when it has a compression suffix, the decompressor; otherwise compressed
// input is recognised by its leading bytes.
func ReadDocument(ctx context.Context, r io.Reader, id, name string) (*Document, error) {
	reader, cleanup, err := NewDecompressingReader(r, name)
	if err != nil {
		return nil, err
	}
	defer cleanup() //nolint:errcheck // nothing buffered on the read side

	return readDocument(ctx, reader, id, name)
}

// readDocument reads already decompressed content
func readDocument(ctx context.Context, reader io.Reader, id, name string) (*Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	doc := &Document{ID: id, Kind: KindOf(name)}
	switch doc.Kind {
	case DocumentXLSX:
		doc.Header, doc.Rows, err = readXLSX(data)
	case DocumentParquet:
		doc.Header, doc.Rows, err = readParquet(ctx, data)
	default:
		doc.Text = string(data)
	}
	if err != nil {
		return nil, NewErrorContext("open", id).WithDetails(doc.Kind.String()).Error(err)
	}
	return doc, nil
}

// readXLSX returns the first sheet of a workbook. The first row is the header.
func readXLSX(data []byte) (model.Header, []model.Row, error) {
	xlsxFile, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer func() {
		_ = xlsxFile.Close() // Ignore close error
	}()

	sheetNames := xlsxFile.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, nil, errors.New("no sheets found in XLSX file")
	}

	rows, err := xlsxFile.GetRows(sheetNames[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheetNames[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyData
	}

	header := model.NormalizeHeader(rows[0])
	records := make([]model.Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// GetRows trims trailing empty cells
		records = append(records, fitRow(row, len(header)))
	}
	return header, records, nil
}

// readParquet returns every row of a Parquet file with values rendered as text
func readParquet(ctx context.Context, data []byte) (model.Header, []model.Row, error) {
	if len(data) == 0 {
		return nil, nil, ErrEmptyData
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer table.Release()

	schema := table.Schema()
	names := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		names[i] = field.Name
	}
	header := model.NormalizeHeader(names)

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()

	var records []model.Row
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := range int(batch.NumRows()) {
			row := make(model.Row, batch.NumCols())
			for j, col := range batch.Columns() {
				if !col.IsNull(i) {
					row[j] = col.ValueStr(i)
				}
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading table records: %w", err)
	}
	return header, records, nil
}

// fitRow pads or truncates row to width fields
func fitRow(row []string, width int) model.Row {
	out := make(model.Row, width)
	copy(out, row)
	return out
}
