package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/hupe1980/blockgate/blobstore"
)

// Client is the subset of the S3 API used by Store.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ Client = (*s3.Client)(nil)

// Store implements blobstore.RangeReader for S3.
type Store struct {
	client Client
}

// NewStore creates a new S3 range reader.
func NewStore(client Client) *Store {
	return &Store{
		client: client,
	}
}

// ReadRange implements blobstore.RangeReader.
func (s *Store) ReadRange(ctx context.Context, bucket, key string, off, length int64) (io.ReadCloser, error) {
	if err := blobstore.ValidateRange(off, length); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(blobstore.RangeHeader(off, length)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, blobstore.ErrNotFound)
		}
		return nil, err
	}

	if resp.Body == nil {
		return nil, fmt.Errorf("s3://%s/%s: empty body: %w", bucket, key, blobstore.ErrNotFound)
	}

	return resp.Body, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "InvalidRange":
			return true
		}
	}
	return false
}
