package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements RangeReader using the local file system.
// Objects live at root/bucket/key.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(bucket, key string) (string, error) {
	p := filepath.Join(s.root, bucket, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s/%s: path escapes root: %w", bucket, key, ErrNotFound)
	}
	return p, nil
}

// ReadRange implements RangeReader.
func (s *LocalStore) ReadRange(ctx context.Context, bucket, key string, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateRange(off, length); err != nil {
		return nil, err
	}

	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if off >= info.Size() {
		_ = f.Close()
		return nil, fmt.Errorf("%s/%s %s: %w", bucket, key, RangeHeader(off, length), ErrNotFound)
	}

	return &localRange{
		Reader: io.NewSectionReader(f, off, length),
		f:      f,
	}, nil
}

type localRange struct {
	io.Reader
	f *os.File
}

func (r *localRange) Close() error {
	if err := r.f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}
