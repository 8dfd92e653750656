package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/blockgate/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestRangeHeader(t *testing.T) {
	assert.Equal(t, "bytes=100-149", RangeHeader(100, 50))
	assert.Equal(t, "bytes=0-0", RangeHeader(0, 1))
}

func TestRegions(t *testing.T) {
	m := NewMemoryStore()
	regions := Regions{"us-west-2": m, "us-east-2": m, "broken": nil}

	s, ok := regions.Store("us-west-2")
	assert.True(t, ok)
	assert.Equal(t, m, s)

	_, ok = regions.Store("eu-central-1")
	assert.False(t, ok)

	_, ok = regions.Store("broken")
	assert.False(t, ok)

	assert.Equal(t, []string{"broken", "us-east-2", "us-west-2"}, regions.Names())
}

func TestMemoryStore_ReadRange(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Put("b", "k/1.car", []byte("hello world"))

	t.Run("Range", func(t *testing.T) {
		rc, err := m.ReadRange(ctx, "b", "k/1.car", 6, 5)
		require.NoError(t, err)
		assert.Equal(t, "world", readAll(t, rc))
	})

	t.Run("TruncatedAtEnd", func(t *testing.T) {
		rc, err := m.ReadRange(ctx, "b", "k/1.car", 6, 100)
		require.NoError(t, err)
		assert.Equal(t, "world", readAll(t, rc))
	})

	t.Run("PastEnd", func(t *testing.T) {
		_, err := m.ReadRange(ctx, "b", "k/1.car", 11, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("MissingObject", func(t *testing.T) {
		_, err := m.ReadRange(ctx, "b", "nope", 0, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("InvalidRange", func(t *testing.T) {
		_, err := m.ReadRange(ctx, "b", "k/1.car", -1, 1)
		assert.ErrorIs(t, err, ErrInvalidRange)
		_, err = m.ReadRange(ctx, "b", "k/1.car", 0, 0)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("Deleted", func(t *testing.T) {
		m.Put("b", "gone", []byte("x"))
		m.Delete("b", "gone")
		_, err := m.ReadRange(ctx, "b", "gone", 0, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLocalStore_ReadRange(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bucket", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bucket", "nested", "a.car"), []byte("0123456789"), 0o644))

	store := NewLocalStore(root)

	rc, err := store.ReadRange(ctx, "bucket", "nested/a.car", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "234", readAll(t, rc))

	rc, err = store.ReadRange(ctx, "bucket", "nested/a.car", 8, 10)
	require.NoError(t, err)
	assert.Equal(t, "89", readAll(t, rc))

	_, err = store.ReadRange(ctx, "bucket", "nested/a.car", 10, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.ReadRange(ctx, "bucket", "missing.car", 0, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.ReadRange(ctx, "..", "../etc/passwd", 0, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

type failingStore struct{ err error }

func (f failingStore) ReadRange(context.Context, string, string, int64, int64) (io.ReadCloser, error) {
	return nil, f.err
}

func TestLimitedStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Put("b", "k", []byte("limited"))

	rc := resource.NewController(resource.Config{MaxConcurrentReads: 1, IOLimitBytesPerSec: 1 << 20})
	regions := Limit(Regions{"r": m}, rc)
	store, ok := regions.Store("r")
	require.True(t, ok)

	body, err := store.ReadRange(ctx, "b", "k", 0, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rc.InFlight())
	assert.False(t, rc.TryAcquireRead())

	assert.Equal(t, "limited", readAll(t, body))
	assert.Equal(t, int64(0), rc.InFlight())

	// Double close releases once.
	require.NoError(t, body.Close())
	assert.Equal(t, int64(0), rc.InFlight())

	t.Run("ReleasesOnError", func(t *testing.T) {
		boom := errors.New("boom")
		limited := NewLimitedStore(failingStore{err: boom}, rc)
		_, err := limited.ReadRange(ctx, "b", "k", 0, 1)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int64(0), rc.InFlight())
	})

	t.Run("NilController", func(t *testing.T) {
		same := Limit(Regions{"r": m}, nil)
		s, _ := same.Store("r")
		assert.Equal(t, m, s)
	})
}
