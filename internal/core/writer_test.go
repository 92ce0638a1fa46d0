package core

import (
	"context"
	"errors"
	"testing"
)

func TestBulkWriter_Write(t *testing.T) {
	store := &fakeStore{}
	w := NewBulkWriter(store)

	records := []NormalizedRecord{{"alice", "admin"}, {"bob", "member"}}
	n, err := w.Write(context.Background(), records)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}
	if store.calls() != 1 {
		t.Errorf("insert calls = %d, want exactly 1", store.calls())
	}
	if got := store.inserted[0]; got[0].Name != "alice" || got[1].Name != "bob" {
		t.Errorf("order not preserved: %+v", got)
	}
}

func TestBulkWriter_EmptyBatch(t *testing.T) {
	store := &fakeStore{}

	_, err := NewBulkWriter(store).Write(context.Background(), nil)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("error = %v, want ErrEmptyBatch", err)
	}
	if store.calls() != 0 {
		t.Errorf("store called %d times for an empty batch", store.calls())
	}
}

func TestBulkWriter_StoreError(t *testing.T) {
	store := &fakeStore{insertErr: errStoreDown}

	n, err := NewBulkWriter(store).Write(context.Background(), []NormalizedRecord{{"alice", "member"}})

	var wf *WriteFailure
	if !errors.As(err, &wf) {
		t.Fatalf("error = %v, want *WriteFailure", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Error("WriteFailure should unwrap to the store error")
	}
	if n != 0 {
		t.Errorf("inserted = %d, want 0", n)
	}
	if store.calls() != 1 {
		t.Errorf("insert calls = %d, want 1 (no retries)", store.calls())
	}
}
