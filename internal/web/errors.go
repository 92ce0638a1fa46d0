package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls s.respondError(w, r, err)
//  3. StatusFor picks the HTTP status, core.MapError the user message and code
//  4. Technical error is logged with the request ID for correlation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/crudimport/internal/core"
	"github.com/JonMunkholm/crudimport/internal/logging"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	var (
		ve *core.ValidationError
		nr *core.NamelessRecordError
		wf *core.WriteFailure
		mb *http.MaxBytesError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &wf):
		return http.StatusInternalServerError
	case errors.As(err, &ve), errors.As(err, &nr), errors.As(err, &mb):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, core.ErrEmptyBatch),
		errors.Is(err, core.ErrCorruptInput),
		errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrFileTooLarge),
		errors.Is(err, core.ErrInvalidID),
		errors.Is(err, core.ErrNothingToUpdate),
		errors.Is(err, core.ErrInvalidJSON):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrProductsUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err with request context and writes the mapped
// ErrorResponse.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	writeJSON(w, status, ErrorResponse{
		Error:  msg.Message,
		Action: msg.Action,
		Code:   msg.Code,
	})
}

// decodeJSON decodes the request body into v. Unknown fields are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(core.ErrInvalidJSON, err)
	}
	return nil
}
