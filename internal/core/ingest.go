package core

// ingest.go implements the upload side of the import pipeline.
//
// An upload moves through Received -> Parsing -> Normalizing -> Writing and
// ends in Completed or Failed. There are no retries: the first error moves the
// upload to Failed. The spooled temp file is removed whatever the outcome.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/crudimport/internal/logging"
)

// Upload is one file handed to the Ingestor.
type Upload struct {
	FileName string
	Body     io.Reader
	Size     int64 // 0 if unknown
}

// Ingestor runs Parse, Normalize and one BulkWriter.Write for each upload.
type Ingestor struct {
	writer     *BulkWriter
	normalizer Normalizer
	tempDir    string
}

// NewIngestor creates an ingestor writing to store. Uploads are spooled to
// tempDir, or os.TempDir() when empty.
func NewIngestor(store BatchInserter, normalizer Normalizer, tempDir string) *Ingestor {
	return &Ingestor{
		writer:     NewBulkWriter(store),
		normalizer: normalizer,
		tempDir:    tempDir,
	}
}

// ingestRun tracks the phase of one upload and logs each transition.
type ingestRun struct {
	id     string
	phase  UploadPhase
	start  time.Time
	logger *slog.Logger
}

func (r *ingestRun) enter(phase UploadPhase) {
	r.phase = phase
	r.logger.Debug("upload phase", "phase", phase)
}

// Ingest processes one upload synchronously and returns the inserted count.
// The format is chosen from the file extension before any I/O; unknown
// extensions fail with ErrUnsupportedFormat and the store is never called.
func (in *Ingestor) Ingest(ctx context.Context, up Upload) (BatchResult, error) {
	run := &ingestRun{
		id:    uuid.NewString(),
		phase: PhaseReceived,
		start: time.Now(),
	}
	run.logger = logging.WithFields(ctx,
		"upload_id", run.id,
		"file", up.FileName,
	)
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		run.logger = run.logger.With("client_ip", ip)
	}
	if ua := GetUserAgentFromContext(ctx); ua != "" {
		run.logger = run.logger.With("user_agent", ua)
	}
	run.logger.Info("upload received", "size", up.Size)

	result := BatchResult{UploadID: run.id, FileName: up.FileName}
	err := in.ingest(ctx, run, up, &result)
	result.Duration = time.Since(run.start)

	if err != nil {
		kind := FailureKind(err)
		level := slog.LevelError
		if IsClientFailure(err) {
			level = slog.LevelWarn
		}
		run.logger.Log(ctx, level, "upload failed",
			"phase", run.phase,
			"kind", kind,
			"error", err,
			"duration", result.Duration,
		)
		run.phase = PhaseFailed
		UploadsTotal.WithLabelValues(kind).Inc()
		return result, err
	}

	run.phase = PhaseCompleted
	run.logger.Info("upload completed",
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"duration", result.Duration,
	)
	UploadsTotal.WithLabelValues(string(PhaseCompleted)).Inc()
	UploadRowsInserted.Add(float64(result.Inserted))
	UploadDuration.WithLabelValues(string(result.Format)).Observe(result.Duration.Seconds())
	return result, nil
}

func (in *Ingestor) ingest(ctx context.Context, run *ingestRun, up Upload, result *BatchResult) error {
	format, err := FormatForFile(up.FileName)
	if err != nil {
		return err
	}
	result.Format = format

	tmp, err := in.spool(up.Body, run.id, filepath.Ext(up.FileName))
	if err != nil {
		return err
	}
	defer releaseTemp(tmp, run.logger)

	run.enter(PhaseParsing)
	counter := NewCountingReader(tmp)
	seq, err := Parse(counter, format)
	if err != nil {
		return err
	}

	run.enter(PhaseNormalizing)
	records, skipped, err := in.normalizer.NormalizeAll(seq)
	UploadBytes.Add(float64(counter.BytesRead))
	UploadRowsSkipped.Add(float64(skipped))
	result.Skipped = skipped
	if err != nil {
		return err
	}
	if skipped > 0 {
		run.logger.Info("skipped records without a name", "skipped", skipped)
	}

	// Nothing is written once the caller has gone away.
	if err := ctx.Err(); err != nil {
		return err
	}

	run.enter(PhaseWriting)
	n, err := in.writer.Write(ctx, records)
	if err != nil {
		return err
	}
	result.Inserted = n
	return nil
}

// spool copies the upload body into a fresh temp file and rewinds it.
func (in *Ingestor) spool(body io.Reader, uploadID, ext string) (*os.File, error) {
	if body == nil {
		return nil, ErrNoFile
	}

	pattern := "upload-" + uploadID + "-*" + strings.ToLower(ext)
	tmp, err := os.CreateTemp(in.tempDir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		releaseTemp(tmp, slog.Default())
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		releaseTemp(tmp, slog.Default())
		return nil, fmt.Errorf("rewind temp file: %w", err)
	}
	return tmp, nil
}

func releaseTemp(f *os.File, logger *slog.Logger) {
	_ = f.Close()
	if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove temp file", "path", f.Name(), "error", err)
	}
}
