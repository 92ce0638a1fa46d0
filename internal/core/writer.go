package core

import "context"

// BulkWriter issues exactly one multi-row insert per batch. It never retries.
type BulkWriter struct {
	store BatchInserter
}

// NewBulkWriter creates a writer bound to one table or collection.
func NewBulkWriter(store BatchInserter) *BulkWriter {
	return &BulkWriter{store: store}
}

// Write inserts records in order and returns the count reported by the store.
// An empty batch is rejected with ErrEmptyBatch before the store is touched.
// Store errors are wrapped in *WriteFailure.
func (w *BulkWriter) Write(ctx context.Context, records []NormalizedRecord) (int64, error) {
	if len(records) == 0 {
		return 0, ErrEmptyBatch
	}

	n, err := w.store.InsertUsers(ctx, records)
	if err != nil {
		return 0, &WriteFailure{Cause: err}
	}
	return n, nil
}
