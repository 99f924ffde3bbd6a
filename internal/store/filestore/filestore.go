// Package filestore implements FileStore (C1): the content-addressed
// on-disk store, its in-memory index, the to-recover/to-distribute queues,
// and the per-ping uploaded/rejected deltas.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/timokae/ma-node/internal/logger"
)

// FileStore holds the file map, queues, and capacity quota, each guarded by
// a single RWMutex kept to short critical sections.
type FileStore struct {
	mu sync.RWMutex

	stateDir string
	backend  Backend
	capacity uint64

	files map[string]FileEntry

	filesToSync       []RecoverEntry
	filesToDistribute []string
	hashesToReject    []string
	newHashes         []string
}

// New loads (or initializes) a FileStore rooted at stateDir, backed by
// backend for byte storage, with the given declared quota in bytes.
func New(stateDir string, backend Backend, capacity uint64) (*FileStore, error) {
	files, err := deserialize(stateDir)
	if err != nil {
		logger.Warn("failed to load file_state.json, starting with an empty inventory", logger.KeyError, err)
		files = map[string]FileEntry{}
	}
	return &FileStore{
		stateDir: stateDir,
		backend:  backend,
		capacity: capacity,
		files:    files,
	}, nil
}

// Get returns the FileEntry for hash, if held.
func (s *FileStore) Get(hash string) (FileEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.files[hash]
	return e, ok
}

// Read fetches the bytes for hash on demand.
func (s *FileStore) Read(ctx context.Context, hash string) ([]byte, error) {
	s.mu.RLock()
	_, ok := s.files[hash]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("filestore: %s not held", hash)
	}
	return s.backend.Read(ctx, hash)
}

// Save writes bytes for hash and inserts its FileEntry, overwriting any
// existing entry for the same hash.
func (s *FileStore) Save(ctx context.Context, hash string, data []byte, contentType, fileName string) error {
	if err := s.backend.Write(ctx, hash, data); err != nil {
		return err
	}
	s.mu.Lock()
	s.files[hash] = FileEntry{
		Hash:        hash,
		FileName:    fileName,
		ContentType: contentType,
		Path:        hash,
	}
	s.mu.Unlock()
	return nil
}

// Remove deletes hash's bytes and its index entry (monitor-directed or
// operator action).
func (s *FileStore) Remove(ctx context.Context, hash string) error {
	if err := s.backend.Remove(ctx, hash); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.files, hash)
	s.mu.Unlock()
	return nil
}

// Hashes returns every hash currently held.
func (s *FileStore) Hashes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for h := range s.files {
		out = append(out, h)
	}
	return out
}

// Holds reports whether hash is in the inventory, without fetching bytes.
func (s *FileStore) Holds(hash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[hash]
	return ok
}

// CapacityLeft computes max(0, capacity - sum(size(path_i))) by summing
// current on-disk sizes of every indexed entry.
func (s *FileStore) CapacityLeft(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	hashes := make([]string, 0, len(s.files))
	for h := range s.files {
		hashes = append(hashes, h)
	}
	capacity := s.capacity
	s.mu.RUnlock()

	var used uint64
	for _, h := range hashes {
		size, err := s.backend.Size(ctx, h)
		if err != nil {
			return 0, fmt.Errorf("filestore: capacity accounting: %w", err)
		}
		used += uint64(size)
	}
	if used >= capacity {
		return 0, nil
	}
	return capacity - used, nil
}

// InsertFilesToRecover enqueues entries the monitor told this node to pull.
// A hash already held is rejected instead.
func (s *FileStore) InsertFilesToRecover(entries []RecoverEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, held := s.files[e.Hash]; held {
			s.hashesToReject = append(s.hashesToReject, e.Hash)
			continue
		}
		s.filesToSync = append(s.filesToSync, e)
	}
}

// NextFileToRecover scans files_to_sync in insertion order and returns the
// first entry past its cool-down, removing it from the queue. Entries still
// cooling down are skipped in place.
func (s *FileStore) NextFileToRecover() (RecoverEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for i, e := range s.filesToSync {
		if e.waitedEnough(now) {
			s.filesToSync = append(s.filesToSync[:i:i], s.filesToSync[i+1:]...)
			return e, true
		}
	}
	return RecoverEntry{}, false
}

// InsertFileToDistribute enqueues hash for outward replication (FIFO).
func (s *FileStore) InsertFileToDistribute(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filesToDistribute = append(s.filesToDistribute, hash)
}

// NextFileToDistribute pops from the head of the distribute queue.
func (s *FileStore) NextFileToDistribute() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.filesToDistribute) == 0 {
		return "", false
	}
	h := s.filesToDistribute[0]
	s.filesToDistribute = s.filesToDistribute[1:]
	return h, true
}

// RecoverQueueDepth reports how many entries are waiting in the to-recover
// queue, cooling down or not.
func (s *FileStore) RecoverQueueDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filesToSync)
}

// DistributeQueueDepth reports how many hashes are waiting in the
// to-distribute queue.
func (s *FileStore) DistributeQueueDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filesToDistribute)
}

// Reject appends hash to the reject list, reported in the next ping and
// cleared after.
func (s *FileStore) Reject(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashesToReject = append(s.hashesToReject, hash)
}

// RejectedHashes returns the current reject list without clearing it.
func (s *FileStore) RejectedHashes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.hashesToReject))
	copy(out, s.hashesToReject)
	return out
}

// ClearRejected empties the reject list.
func (s *FileStore) ClearRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashesToReject = nil
}

// AddUploaded appends hash to the uploaded-this-interval list.
func (s *FileStore) AddUploaded(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newHashes = append(s.newHashes, hash)
}

// UploadedHashes returns the current uploaded list without clearing it.
func (s *FileStore) UploadedHashes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.newHashes))
	copy(out, s.newHashes)
	return out
}

// ClearUploaded empties the uploaded list.
func (s *FileStore) ClearUploaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newHashes = nil
}

// Serialize persists the full FileEntry map as file_state.json.
func (s *FileStore) Serialize() error {
	s.mu.RLock()
	snapshot := make(map[string]FileEntry, len(s.files))
	for k, v := range s.files {
		snapshot[k] = v
	}
	s.mu.RUnlock()
	return serialize(s.stateDir, snapshot)
}

func statePath(stateDir string) string {
	return filepath.Join(stateDir, "file_state.json")
}

func serialize(stateDir string, files map[string]FileEntry) error {
	data, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: failed to marshal file_state.json: %w", err)
	}
	if err := os.WriteFile(statePath(stateDir), data, 0o644); err != nil {
		return fmt.Errorf("filestore: failed to write file_state.json: %w", err)
	}
	return nil
}

// deserialize reads file_state.json; a missing file is not an error (first
// boot). A present-but-unparseable file is returned as an error so the
// caller can log it instead of treating it as fatal.
func deserialize(stateDir string) (map[string]FileEntry, error) {
	data, err := os.ReadFile(statePath(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]FileEntry{}, nil
		}
		return nil, fmt.Errorf("filestore: failed to read file_state.json: %w", err)
	}
	var files map[string]FileEntry
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("filestore: failed to parse file_state.json: %w", err)
	}
	if files == nil {
		files = map[string]FileEntry{}
	}
	return files, nil
}
