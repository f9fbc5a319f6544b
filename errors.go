package textsql

import (
	"fmt"
	"strings"

	"github.com/nao1215/textsql/domain/model"
)

// Sentinel errors. Match them with errors.Is.
var (
	// ErrDetectionFailure indicates that no format could be detected; ask the user
	ErrDetectionFailure = model.ErrDetectionFailure

	// ErrSchemaMismatch indicates a column count that disagrees with the type count
	ErrSchemaMismatch = model.ErrSchemaMismatch

	// ErrQuery indicates a malformed query or a query against a missing table
	ErrQuery = model.ErrQuery

	// ErrNotFound indicates that no table exists for a document
	ErrNotFound = model.ErrNotFound

	// ErrBusy indicates that another ingest or query is in flight
	ErrBusy = model.ErrBusy

	// ErrStream indicates a producer or consumer fault on a pipe
	ErrStream = model.ErrStream

	// ErrPipeClosed indicates a write after the producer closed the pipe
	ErrPipeClosed = model.ErrPipeClosed

	// ErrEmptyData indicates that the data source contains no records
	ErrEmptyData = model.ErrEmptyData

	// ErrInvalidSettings indicates unusable format settings
	ErrInvalidSettings = model.ErrInvalidSettings

	// ErrMalformedRow indicates a field count mismatch under the strict row policy
	ErrMalformedRow = model.ErrMalformedRow

	// ErrUnquotableField indicates a field that cannot be written with the given settings
	ErrUnquotableField = model.ErrUnquotableField

	// ErrMemoryLimit indicates memory limit exceeded
	ErrMemoryLimit = model.ErrMemoryLimit
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation  string
	DocumentID string
	TableName  string
	Details    string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, documentID string) *ErrorContext {
	return &ErrorContext{
		Operation:  operation,
		DocumentID: documentID,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("textsql: %s failed", ec.Operation))

	if ec.DocumentID != "" {
		parts = append(parts, "document: "+ec.DocumentID)
	}

	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}
