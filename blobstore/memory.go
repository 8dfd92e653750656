package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore is an in-memory RangeReader implementation for testing.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

// Put stores an object.
func (m *MemoryStore) Put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to prevent external mutation
	copied := make([]byte, len(data))
	copy(copied, data)
	m.objects[objectKey(bucket, key)] = copied
}

// Delete removes an object.
func (m *MemoryStore) Delete(bucket, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, objectKey(bucket, key))
}

// ReadRange implements RangeReader. Ranges that extend past the end of the
// object are truncated; ranges that start past the end are not found.
func (m *MemoryStore) ReadRange(ctx context.Context, bucket, key string, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateRange(off, length); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[objectKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	if off >= int64(len(data)) {
		return nil, fmt.Errorf("%s/%s %s: %w", bucket, key, RangeHeader(off, length), ErrNotFound)
	}

	end := off + length
	if end > int64(len(data)) {
		end = int64(len(data))
	}

	copied := make([]byte, end-off)
	copy(copied, data[off:end])
	return NopReadCloser(bytes.NewReader(copied)), nil
}
