package blobstore

import (
	"context"
	"io"
	"sync"

	"github.com/hupe1980/blockgate/resource"
)

// LimitedStore wraps a RangeReader and enforces the read limits of a
// resource.Controller. A read slot is held until the returned body is closed.
type LimitedStore struct {
	inner RangeReader
	rc    *resource.Controller
}

// NewLimitedStore creates a new LimitedStore.
func NewLimitedStore(inner RangeReader, rc *resource.Controller) *LimitedStore {
	return &LimitedStore{
		inner: inner,
		rc:    rc,
	}
}

// Limit wraps every store in regions with rc.
func Limit(regions Regions, rc *resource.Controller) Regions {
	if rc == nil {
		return regions
	}
	out := make(Regions, len(regions))
	for name, store := range regions {
		out[name] = NewLimitedStore(store, rc)
	}
	return out
}

// ReadRange implements RangeReader.
func (s *LimitedStore) ReadRange(ctx context.Context, bucket, key string, off, length int64) (io.ReadCloser, error) {
	if err := s.rc.AcquireRead(ctx); err != nil {
		return nil, err
	}

	body, err := s.inner.ReadRange(ctx, bucket, key, off, length)
	if err != nil {
		s.rc.ReleaseRead()
		return nil, err
	}

	return &limitedBody{
		Reader: resource.NewRateLimitedReader(ctx, body, s.rc),
		body:   body,
		rc:     s.rc,
	}, nil
}

type limitedBody struct {
	io.Reader
	body io.Closer
	rc   *resource.Controller
	once sync.Once
}

func (b *limitedBody) Close() error {
	err := b.body.Close()
	b.once.Do(b.rc.ReleaseRead)
	return err
}
