// Package s3 provides an Amazon S3 implementation of blobstore.RangeReader.
//
// # Usage
//
//	regions, err := s3.NewRegional(ctx, []string{"us-west-2", "us-east-2"})
//
//	bs := blockgate.New(idx, regions, blockgate.WithPreferredRegion("us-west-2"))
//
// # Features
//
//   - Ranged GetObject reads (inclusive HTTP byte ranges)
//   - One client per region, sharing credentials from the default chain
//   - Custom endpoints and path-style addressing for S3-compatible services
package s3
