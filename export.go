package textsql

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	"github.com/nao1215/textsql/domain/model"
	"github.com/nao1215/textsql/tablestore"
)

// exportSheetName is the sheet an XLSX export writes to
const exportSheetName = "Sheet1"

// Export writes result to w in the format and compression named by options.
// The header row is always written first.
func Export(w io.Writer, result *tablestore.ResultSet, options ExportOptions) (err error) {
	if result == nil {
		return errors.New("textsql: nil result")
	}

	writer, cleanup, err := NewCompressionHandler(options.Compression).CreateWriter(w)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := cleanup(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close compressor: %w", closeErr)
		}
	}()

	if settings, ok := options.Format.textSettings(); ok {
		return model.Generate(writer, result.Table(), settings)
	}
	return writeBinary(writer, result, options.Format)
}

// Export writes result like the package level Export, but csv and tsv text is
// produced by the engine's generator and streamed through a bounded pipe.
func (e *Engine) Export(w io.Writer, result *tablestore.ResultSet, options ExportOptions) (err error) {
	settings, ok := options.Format.textSettings()
	if !ok || result == nil {
		return Export(w, result, options)
	}

	writer, cleanup, err := NewCompressionHandler(options.Compression).CreateWriter(w)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := cleanup(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close compressor: %w", closeErr)
		}
	}()

	r := e.GenerateResult(result, settings)
	defer r.Close()
	if _, err := io.Copy(writer, r); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// textSettings returns the generator settings of the text formats
func (f ExportFormat) textSettings() (model.FormatSettings, bool) {
	switch f {
	case ExportFormatCSV:
		return model.NewDelimitedSettings(',', '"'), true
	case ExportFormatTSV:
		return model.NewDelimitedSettings('\t', '"'), true
	default:
		return model.FormatSettings{}, false
	}
}

func writeBinary(writer io.Writer, result *tablestore.ResultSet, format ExportFormat) error {
	switch format {
	case ExportFormatXLSX:
		return writeXLSX(writer, result)
	case ExportFormatParquet:
		return writeParquet(writer, result)
	default:
		return fmt.Errorf("unsupported export format: %v", format)
	}
}

func writeXLSX(w io.Writer, result *tablestore.ResultSet) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close() // Ignore close error
	}()

	for i, row := range result.Table() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(exportSheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write XLSX file: %w", err)
	}
	return nil
}

// writeParquet writes result as a single row group with nullable string columns
func writeParquet(w io.Writer, result *tablestore.ResultSet) error {
	fields := make([]arrow.Field, len(result.Header))
	for i, name := range result.Header {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, row := range result.Rows {
		for j := range fields {
			sb, ok := builder.Field(j).(*array.StringBuilder)
			if !ok {
				return fmt.Errorf("unexpected builder for column %s", fields[j].Name)
			}
			sb.Append(row[j])
		}
	}
	record := builder.NewRecord()
	defer record.Release()

	// The parquet writer closes its sink when it is an io.Closer; the caller owns w.
	sink := struct{ io.Writer }{w}
	fw, err := pqarrow.NewFileWriter(schema, sink, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := fw.Write(record); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	return fw.Close()
}
