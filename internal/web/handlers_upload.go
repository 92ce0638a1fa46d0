package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/crudimport/internal/core"
	"github.com/JonMunkholm/crudimport/internal/logging"
)

// UploadResponse is the body of a successful bulk upload.
type UploadResponse struct {
	Message  string `json:"message"`
	Inserted int64  `json:"inserted"`
	Skipped  int    `json:"skipped"`
	UploadID string `json:"upload_id"`
}

// handleUploadUsers imports the users in a single multipart file part named
// "file". The part is passed to the service as a stream; the service spools
// it to a temp file it always removes.
func (s *Server) handleUploadUsers(w http.ResponseWriter, r *http.Request) {
	s.extendWriteDeadline(w, r)

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	// Parts beyond 32MB of memory go to disk; MaxBytesReader caps the total.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mb *http.MaxBytesError
		if errors.As(err, &mb) {
			s.respondError(w, r, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, mb.Limit))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.ImportUsers(ctx, core.Upload{
		FileName: header.Filename,
		Body:     file,
		Size:     header.Size,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Message:  fmt.Sprintf("%d users created successfully.", result.Inserted),
		Inserted: result.Inserted,
		Skipped:  result.Skipped,
		UploadID: result.UploadID,
	})
}

// extendWriteDeadline lets the response outlive the server-wide write timeout
// for as long as an upload may queue and run.
func (s *Server) extendWriteDeadline(w http.ResponseWriter, r *http.Request) {
	budget := s.cfg.Upload.MaxWaitTime + s.cfg.Upload.Timeout
	if budget <= s.cfg.Server.WriteTimeout {
		return
	}
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(budget)); err != nil {
		logging.FromContext(r.Context()).Debug("write deadline not extended", "error", err)
	}
}
