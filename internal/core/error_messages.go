package core

// error_messages.go maps errors to user-facing messages with codes for
// support reference. Users quote the code; support staff look it up here.
//
// Known sentinel and typed errors are matched first with errors.Is/As.
// Anything else (raw driver errors from CRUD calls) is matched by
// case-insensitive substring against errorPatterns. The first match wins.
//
// # Database Errors (DB000-DB099)
//
//	DB000 - Bulk insert rejected by the store (cause is logged, not shown)
//	DB001 - Duplicate key           "duplicate key", "duplicate entry"
//	DB002 - Unique constraint       "unique constraint", "violates unique"
//	DB003 - Not-null violation      "not-null", "cannot be null"
//	DB004 - Connection refused      "connection refused", "server selection"
//	DB005 - Connection reset        "connection reset", "broken pipe"
//	DB006 - Timeout                 "timeout", "i/o timeout"
//	DB007 - Deadlock                "deadlock"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Request payload failed validation (message lists the fields)
//	VAL002 - Request body is not valid JSON
//	VAL003 - Record without a name under the strict policy
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV (unreadable or malformed quoting)
//	FILE004 - No file part in the request
//	FILE005 - No usable records in the file
//	FILE006 - Extension other than .csv or .txt
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - Too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// # Record Errors (USR001-USR099)
//
//	USR001 - Record not found
//	USR002 - Id is not valid for the configured store
//	USR003 - Update without any field
//	USR004 - Products not available on this store
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the original error.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// ErrInvalidJSON is returned by transports when a request body cannot be decoded.
var ErrInvalidJSON = errors.New("invalid JSON body")

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []sentinelMessage{
	{ErrUnsupportedFormat, UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a .csv or .txt file",
		Code:    "FILE006",
	}},
	{ErrEmptyBatch, UserMessage{
		Message: "The file is empty or contains no valid names",
		Action:  "Add a username, user, name or nombre column with values",
		Code:    "FILE005",
	}},
	{ErrCorruptInput, UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with a header row",
		Code:    "FILE002",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Send the file in a form field named \"file\"",
		Code:    "FILE004",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{ErrTooManyUploads, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{ErrNotFound, UserMessage{
		Message: "Record not found",
		Action:  "Refresh the list and try again",
		Code:    "USR001",
	}},
	{ErrInvalidID, UserMessage{
		Message: "Invalid id",
		Action:  "Use an id returned by the list endpoint",
		Code:    "USR002",
	}},
	{ErrNothingToUpdate, UserMessage{
		Message: "Nothing to update",
		Action:  "Send at least one field to change",
		Code:    "USR003",
	}},
	{ErrProductsUnsupported, UserMessage{
		Message: "Products are not available on this store",
		Action:  "Use the postgres or mongo backend for products",
		Code:    "USR004",
	}},
	{ErrInvalidJSON, UserMessage{
		Message: "Request body is not valid JSON",
		Action:  "Check the request payload",
		Code:    "VAL002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or check your connection",
		Code:    "UPL005",
	}},
}

// writeFailureMessage hides the store's error text from clients.
var writeFailureMessage = UserMessage{
	Message: "Internal error while saving the uploaded users",
	Action:  "Please try again or contact support",
	Code:    "DB000",
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps driver error text (case-insensitive) to user messages.
// More specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{"A record with this key already exists", "Use a different value", "DB001"}},
	{"duplicate entry", UserMessage{"A record with this key already exists", "Use a different value", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Use a different value", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Use a different value", "DB002"}},
	{"not-null", UserMessage{"A required value is missing", "Fill in every required field", "DB003"}},
	{"cannot be null", UserMessage{"A required value is missing", "Fill in every required field", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"server selection", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"broken pipe", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Please try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("upload: %w", ErrEmptyBatch))
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return UserMessage{
			Message: ve.Error(),
			Action:  "Correct the listed fields",
			Code:    "VAL001",
		}
	}

	var nr *NamelessRecordError
	if errors.As(err, &nr) {
		return UserMessage{
			Message: fmt.Sprintf("Line %d has no name", nr.Line),
			Action:  "Fill in a username, user, name or nombre value on every line",
			Code:    "VAL003",
		}
	}

	var wf *WriteFailure
	if errors.As(err, &wf) {
		return writeFailureMessage
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
