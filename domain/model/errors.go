package model

import "errors"

var (
	// ErrDetectionFailure is returned when neither a separator nor a fixed-width
	// layout could be inferred. Callers should ask the user for a format.
	ErrDetectionFailure = errors.New("textsql: format not detected")

	// ErrSchemaMismatch is returned when the column count disagrees with the type count
	ErrSchemaMismatch = errors.New("textsql: schema mismatch")

	// ErrQuery is returned for malformed queries or queries against a missing table
	ErrQuery = errors.New("textsql: query failed")

	// ErrNotFound is returned when no table exists for a document
	ErrNotFound = errors.New("textsql: document not found")

	// ErrBusy is returned when a request arrives while another one is in flight
	ErrBusy = errors.New("textsql: engine busy")

	// ErrStream is returned when a producer or consumer of a pipe fails
	ErrStream = errors.New("textsql: stream failed")

	// ErrPipeClosed is returned when writing to a pipe that was already closed
	ErrPipeClosed = errors.New("textsql: write on closed pipe")

	// ErrEmptyData indicates that the text contains no rows
	ErrEmptyData = errors.New("textsql: empty data")

	// ErrInvalidSettings indicates unusable format settings
	ErrInvalidSettings = errors.New("textsql: invalid format settings")

	// ErrMalformedRow is returned by the strict row policy on field count mismatch
	ErrMalformedRow = errors.New("textsql: malformed row")

	// ErrUnquotableField is returned when a field cannot be written with the given settings
	ErrUnquotableField = errors.New("textsql: field cannot be represented")

	// ErrMemoryLimit indicates memory limit exceeded
	ErrMemoryLimit = errors.New("textsql: memory limit exceeded")
)
