package textsql

import (
	"fmt"
	"strings"
)

// ExportFormat represents the output format of an exported result
type ExportFormat int

const (
	// ExportFormatCSV represents comma separated output
	ExportFormatCSV ExportFormat = iota
	// ExportFormatTSV represents tab separated output
	ExportFormatTSV
	// ExportFormatXLSX represents an Excel workbook with one sheet
	ExportFormatXLSX
	// ExportFormatParquet represents a Parquet file with string columns
	ExportFormatParquet
)

// String returns the string representation of ExportFormat
func (f ExportFormat) String() string {
	switch f {
	case ExportFormatCSV:
		return "csv"
	case ExportFormatTSV:
		return "tsv"
	case ExportFormatXLSX:
		return "xlsx"
	case ExportFormatParquet:
		return "parquet"
	default:
		return "csv"
	}
}

// Extension returns the file extension for the format
func (f ExportFormat) Extension() string {
	switch f {
	case ExportFormatCSV:
		return extCSV
	case ExportFormatTSV:
		return extTSV
	case ExportFormatXLSX:
		return extXLSX
	case ExportFormatParquet:
		return extParquet
	default:
		return extCSV
	}
}

// ParseExportFormat parses a format name such as "csv" or "parquet"
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return ExportFormatCSV, nil
	case "tsv":
		return ExportFormatTSV, nil
	case "xlsx":
		return ExportFormatXLSX, nil
	case "parquet":
		return ExportFormatParquet, nil
	default:
		return ExportFormatCSV, fmt.Errorf("unsupported export format: %q", s)
	}
}

// CompressionType represents the compression type
type CompressionType int

const (
	// CompressionNone represents no compression
	CompressionNone CompressionType = iota
	// CompressionGZ represents gzip compression
	CompressionGZ
	// CompressionBZ2 represents bzip2 compression (read only)
	CompressionBZ2
	// CompressionXZ represents xz compression
	CompressionXZ
	// CompressionZSTD represents zstd compression
	CompressionZSTD
)

// String returns the string representation of CompressionType
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGZ:
		return "gz"
	case CompressionBZ2:
		return "bz2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// Extension returns the file extension for the compression type
func (c CompressionType) Extension() string {
	switch c {
	case CompressionGZ:
		return extGZ
	case CompressionBZ2:
		return extBZ2
	case CompressionXZ:
		return extXZ
	case CompressionZSTD:
		return extZSTD
	default:
		return ""
	}
}

// ParseCompressionType parses a compression name such as "gz" or "zstd"
func ParseCompressionType(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "gz", "gzip":
		return CompressionGZ, nil
	case "bz2", "bzip2":
		return CompressionBZ2, nil
	case "xz":
		return CompressionXZ, nil
	case "zst", "zstd":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("unsupported compression type: %q", s)
	}
}

// ExportOptions configures how a query result is written out.
//
// Example:
//
//	options := NewExportOptions().
//		WithFormat(ExportFormatTSV).
//		WithCompression(CompressionGZ)
//
//	err := Export(w, result, options)
type ExportOptions struct {
	// Format specifies the output format
	Format ExportFormat
	// Compression specifies the compression applied to the output stream
	Compression CompressionType
}

// NewExportOptions creates default export options (CSV, no compression).
func NewExportOptions() ExportOptions {
	return ExportOptions{
		Format:      ExportFormatCSV,
		Compression: CompressionNone,
	}
}

// WithFormat sets the output format.
func (o ExportOptions) WithFormat(format ExportFormat) ExportOptions {
	o.Format = format
	return o
}

// WithCompression adds compression to the output.
//
// Options:
//   - CompressionNone: No compression (default)
//   - CompressionGZ: Gzip compression (.gz)
//   - CompressionXZ: XZ compression (.xz)
//   - CompressionZSTD: Zstandard compression (.zst)
func (o ExportOptions) WithCompression(compression CompressionType) ExportOptions {
	o.Compression = compression
	return o
}

// FileExtension returns the complete file extension including compression
func (o ExportOptions) FileExtension() string {
	return o.Format.Extension() + o.Compression.Extension()
}
