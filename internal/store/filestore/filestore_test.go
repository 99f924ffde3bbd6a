package filestore

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T, capacity uint64) *FileStore {
	t.Helper()
	dir := t.TempDir()
	backend, err := NewLocalBackend(dir)
	if err != nil {
		t.Fatalf("NewLocalBackend failed: %v", err)
	}
	store, err := New(dir, backend, capacity)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return store
}

func TestSave_GetRoundTrip(t *testing.T) {
	store := newTestStore(t, 1<<20)
	ctx := context.Background()

	if err := store.Save(ctx, "hash1", []byte("payload"), "text/plain", "file.txt"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entry, ok := store.Get("hash1")
	if !ok {
		t.Fatal("expected hash1 to be held after Save")
	}
	if entry.FileName != "file.txt" || entry.ContentType != "text/plain" {
		t.Errorf("unexpected entry metadata: %+v", entry)
	}

	data, err := store.Read(ctx, "hash1")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("expected payload, got %q", data)
	}
}

func TestRemove_DeletesEntryAndBytes(t *testing.T) {
	store := newTestStore(t, 1<<20)
	ctx := context.Background()
	store.Save(ctx, "hash1", []byte("payload"), "text/plain", "file.txt")

	if err := store.Remove(ctx, "hash1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if store.Holds("hash1") {
		t.Error("expected hash1 to be gone after Remove")
	}
	if _, err := store.Read(ctx, "hash1"); err == nil {
		t.Error("expected Read to fail after Remove")
	}
}

func TestCapacityLeft_TracksOnDiskSize(t *testing.T) {
	store := newTestStore(t, 100)
	ctx := context.Background()

	left, err := store.CapacityLeft(ctx)
	if err != nil {
		t.Fatalf("CapacityLeft failed: %v", err)
	}
	if left != 100 {
		t.Errorf("expected full capacity with no files, got %d", left)
	}

	store.Save(ctx, "hash1", make([]byte, 40), "application/octet-stream", "a.bin")
	left, err = store.CapacityLeft(ctx)
	if err != nil {
		t.Fatalf("CapacityLeft failed: %v", err)
	}
	if left != 60 {
		t.Errorf("expected 60 bytes left after a 40-byte save, got %d", left)
	}
}

func TestCapacityLeft_NeverNegative(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()
	store.Save(ctx, "hash1", make([]byte, 100), "application/octet-stream", "a.bin")

	left, err := store.CapacityLeft(ctx)
	if err != nil {
		t.Fatalf("CapacityLeft failed: %v", err)
	}
	if left != 0 {
		t.Errorf("expected capacity left to floor at 0, got %d", left)
	}
}

func TestInsertFilesToRecover_RejectsAlreadyHeld(t *testing.T) {
	store := newTestStore(t, 1<<20)
	ctx := context.Background()
	store.Save(ctx, "hash1", []byte("payload"), "text/plain", "file.txt")

	store.InsertFilesToRecover([]RecoverEntry{
		NewRecoverEntry("hash1"),
		NewRecoverEntry("hash2"),
	})

	rejected := store.RejectedHashes()
	if len(rejected) != 1 || rejected[0] != "hash1" {
		t.Errorf("expected hash1 rejected as already held, got %v", rejected)
	}

	entry, ok := store.NextFileToRecover()
	if !ok || entry.Hash != "hash2" {
		t.Errorf("expected hash2 queued for recovery, got %+v ok=%v", entry, ok)
	}
}

func TestNextFileToRecover_RespectsCooldown(t *testing.T) {
	store := newTestStore(t, 1<<20)
	store.InsertFilesToRecover([]RecoverEntry{
		{Hash: "hash1", LastChecked: time.Now()},
	})

	if _, ok := store.NextFileToRecover(); ok {
		t.Error("expected entry still cooling down to not be returned")
	}

	store.InsertFilesToRecover([]RecoverEntry{NewRecoverEntry("hash2")})
	entry, ok := store.NextFileToRecover()
	if !ok || entry.Hash != "hash2" {
		t.Errorf("expected hash2 eligible immediately, got %+v ok=%v", entry, ok)
	}
}

func TestDistributeQueue_FIFO(t *testing.T) {
	store := newTestStore(t, 1<<20)
	store.InsertFileToDistribute("hash1")
	store.InsertFileToDistribute("hash2")

	h, ok := store.NextFileToDistribute()
	if !ok || h != "hash1" {
		t.Errorf("expected hash1 first out, got %q ok=%v", h, ok)
	}
	h, ok = store.NextFileToDistribute()
	if !ok || h != "hash2" {
		t.Errorf("expected hash2 second out, got %q ok=%v", h, ok)
	}
	if _, ok := store.NextFileToDistribute(); ok {
		t.Error("expected empty queue to report ok=false")
	}
}

func TestUploadedAndRejected_ClearIndependently(t *testing.T) {
	store := newTestStore(t, 1<<20)
	store.AddUploaded("hash1")
	store.Reject("hash2")

	if got := store.UploadedHashes(); len(got) != 1 || got[0] != "hash1" {
		t.Errorf("expected uploaded list [hash1], got %v", got)
	}
	if got := store.RejectedHashes(); len(got) != 1 || got[0] != "hash2" {
		t.Errorf("expected rejected list [hash2], got %v", got)
	}

	store.ClearUploaded()
	if got := store.UploadedHashes(); len(got) != 0 {
		t.Errorf("expected uploaded list cleared, got %v", got)
	}
	if got := store.RejectedHashes(); len(got) != 1 {
		t.Errorf("expected rejected list untouched by ClearUploaded, got %v", got)
	}
}

func TestSerialize_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewLocalBackend(dir)
	if err != nil {
		t.Fatalf("NewLocalBackend failed: %v", err)
	}
	store, err := New(dir, backend, 1<<20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	store.Save(ctx, "hash1", []byte("payload"), "text/plain", "file.txt")

	if err := store.Serialize(); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	reloaded, err := New(dir, backend, 1<<20)
	if err != nil {
		t.Fatalf("reload New failed: %v", err)
	}
	if !reloaded.Holds("hash1") {
		t.Error("expected hash1 to survive a reload from disk")
	}
}
