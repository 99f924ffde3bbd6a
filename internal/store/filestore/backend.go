package filestore

import "context"

// Backend is the pluggable byte-storage contract FileStore's on-disk
// behavior is expressed against. The in-memory index and queue/quota
// semantics are backend-agnostic; only the byte read/write/size path
// changes between implementations.
type Backend interface {
	// Write stores data under hash, creating any required containers
	// (directories, buckets) on first use. Overwrites on duplicate writes.
	Write(ctx context.Context, hash string, data []byte) error
	// Read returns the bytes stored under hash.
	Read(ctx context.Context, hash string) ([]byte, error)
	// Remove deletes the bytes stored under hash. Removing a hash that
	// does not exist is not an error.
	Remove(ctx context.Context, hash string) error
	// Size returns the byte size of the object stored under hash, used for
	// capacity accounting.
	Size(ctx context.Context, hash string) (int64, error)
}
