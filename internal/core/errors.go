package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for uploads whose extension is not .csv or .txt.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyBatch is returned when no record survives normalization.
	// The store is never called in that case.
	ErrEmptyBatch = errors.New("empty file: no records to import")

	// ErrCorruptInput wraps read and CSV syntax errors from the parser.
	ErrCorruptInput = errors.New("invalid csv")

	ErrNoFile              = errors.New("no file provided")
	ErrFileTooLarge        = errors.New("file too large")
	ErrNotFound            = errors.New("record not found")
	ErrInvalidID           = errors.New("invalid id")
	ErrNothingToUpdate     = errors.New("nothing to update")
	ErrProductsUnsupported = errors.New("products are not supported by this store")
)

// WriteFailure reports that the store rejected a bulk insert.
// The cause is logged but not shown to clients.
type WriteFailure struct {
	Cause error
}

func (e *WriteFailure) Error() string {
	return "write failure: " + e.Cause.Error()
}

func (e *WriteFailure) Unwrap() error { return e.Cause }

// NamelessRecordError is returned under RejectNameless for the first record
// that has no usable name.
type NamelessRecordError struct {
	Line int
}

func (e *NamelessRecordError) Error() string {
	return fmt.Sprintf("line %d: no value for any of the name columns", e.Line)
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field string
	Rule  string
	Param string
}

func (e FieldError) String() string {
	switch e.Rule {
	case "required", "min":
		return e.Field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field, e.Param)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", e.Field, e.Param)
	default:
		return fmt.Sprintf("%s is invalid (%s)", e.Field, e.Rule)
	}
}

// ValidationError collects every failed rule of a request payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// FailureKind names the class of an upload error for logs and metrics.
func FailureKind(err error) string {
	var wf *WriteFailure
	var nr *NamelessRecordError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrEmptyBatch):
		return "empty_batch"
	case errors.Is(err, ErrCorruptInput):
		return "corrupt_input"
	case errors.As(err, &nr):
		return "nameless_record"
	case errors.As(err, &wf):
		return "write_failure"
	case errors.Is(err, ErrTooManyUploads):
		return "too_many_uploads"
	case errors.Is(err, ErrNoFile):
		return "no_file"
	default:
		return "error"
	}
}

// IsClientFailure reports whether an upload failed because of its input
// rather than the server or store.
func IsClientFailure(err error) bool {
	switch FailureKind(err) {
	case "unsupported_format", "empty_batch", "corrupt_input", "nameless_record", "no_file", "too_many_uploads":
		return true
	}
	return false
}
