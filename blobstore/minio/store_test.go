package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hupe1980/blockgate/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	for _, code := range []string{"NoSuchKey", "NotFound", "NoSuchBucket", "InvalidRange"} {
		err := mapError("b", "k", minio.ErrorResponse{Code: code})
		assert.ErrorIs(t, err, blobstore.ErrNotFound, code)
	}

	boom := errors.New("connection reset")
	assert.Equal(t, boom, mapError("b", "k", boom))
}

func TestStore_InvalidRange(t *testing.T) {
	store := NewStore(nil)
	_, err := store.ReadRange(context.Background(), "b", "k", 5, 0)
	assert.ErrorIs(t, err, blobstore.ErrInvalidRange)
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-blockgate"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	_, err = client.ListBuckets(ctx)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	data := []byte("hello minio world")
	_, err = client.PutObject(ctx, bucket, "dir/test.car", bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.RemoveObject(ctx, bucket, "dir/test.car", minio.RemoveObjectOptions{})
	})

	store := NewStore(client)

	body, err := store.ReadRange(ctx, bucket, "dir/test.car", 6, 5)
	require.NoError(t, err)
	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "minio", string(got))

	_, err = store.ReadRange(ctx, bucket, "dir/missing.car", 0, 1)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
