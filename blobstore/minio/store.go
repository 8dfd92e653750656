package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/blockgate/blobstore"
	"github.com/minio/minio-go/v7"
)

// Store implements blobstore.RangeReader for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
}

// NewStore creates a new MinIO range reader.
func NewStore(client *minio.Client) *Store {
	return &Store{
		client: client,
	}
}

// ReadRange implements blobstore.RangeReader.
func (s *Store) ReadRange(ctx context.Context, bucket, key string, off, length int64) (io.ReadCloser, error) {
	if err := blobstore.ValidateRange(off, length); err != nil {
		return nil, err
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, off+length-1); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, mapError(bucket, key, err)
	}

	// GetObject is lazy; Stat issues the request so missing objects surface
	// here instead of on the first Read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapError(bucket, key, err)
	}

	return obj, nil
}

func mapError(bucket, key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound", "NoSuchBucket", "InvalidRange":
		return fmt.Errorf("%s/%s: %w", bucket, key, blobstore.ErrNotFound)
	}
	return err
}
