// Package blobstore provides ranged read access to container objects held in
// regional object stores.
//
// RangeReader is the only primitive the blockstore needs: read the byte range
// [off, off+length) of bucket/key. Regions maps a region name to the store
// serving it. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - s3.Store: Amazon S3 GetObject with a Range header
//   - minio.Store: MinIO and other S3-compatible services
//   - LocalStore: containers on the local file system
//   - MemoryStore: in-memory objects for tests
//
// # Custom Implementations
//
//	type RangeReader interface {
//	    ReadRange(ctx, bucket, key, off, length) (io.ReadCloser, error)
//	}
//
// ReadRange returns an error satisfying errors.Is(err, ErrNotFound) when the
// object (or the requested range) does not exist. Any other error is treated
// as transient by callers and may be retried.
package blobstore
