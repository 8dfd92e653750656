package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// ErrNotFound is returned when an object or range does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrInvalidRange is returned for a negative offset or a non-positive length.
// Reading the same range again fails the same way.
var ErrInvalidRange = errors.New("invalid range")

// RangeReader reads byte ranges of objects.
type RangeReader interface {
	// ReadRange returns a reader for length bytes of bucket/key starting at off.
	ReadRange(ctx context.Context, bucket, key string, off, length int64) (io.ReadCloser, error)
}

// Regions maps a region name to the store serving that region.
type Regions map[string]RangeReader

// Store returns the store for region.
func (r Regions) Store(region string) (RangeReader, bool) {
	s, ok := r[region]
	return s, ok && s != nil
}

// Names returns the configured region names in sorted order.
func (r Regions) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RangeHeader formats an HTTP byte range for [off, off+length).
// The end of an HTTP range is inclusive.
func RangeHeader(off, length int64) string {
	return fmt.Sprintf("bytes=%d-%d", off, off+length-1)
}

// NopReadCloser wraps r with a no-op Close.
func NopReadCloser(r io.Reader) io.ReadCloser {
	return io.NopCloser(r)
}

// ValidateRange returns ErrInvalidRange unless off >= 0 and length > 0.
func ValidateRange(off, length int64) error {
	if off < 0 || length <= 0 {
		return fmt.Errorf("%w: offset %d, length %d", ErrInvalidRange, off, length)
	}
	return nil
}
