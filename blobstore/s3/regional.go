package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/blockgate/blobstore"
)

// Options configures the clients built by NewRegional.
type Options struct {
	// Endpoint overrides the service endpoint, e.g. for local testing.
	Endpoint string

	// UsePathStyle enables path-style addressing.
	UsePathStyle bool

	// LoadOptions are passed to config.LoadDefaultConfig for every region.
	LoadOptions []func(*config.LoadOptions) error
}

// NewRegional builds one Store per region.
func NewRegional(ctx context.Context, regions []string, optFns ...func(*Options)) (blobstore.Regions, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	out := make(blobstore.Regions, len(regions))
	for _, region := range regions {
		if region == "" {
			continue
		}

		loadOpts := append([]func(*config.LoadOptions) error{config.WithRegion(region)}, opts.LoadOptions...)
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config for region %s: %w", region, err)
		}

		out[region] = NewStore(NewClient(cfg, opts))
	}

	return out, nil
}

// NewClient creates an S3 client from cfg honoring opts.
func NewClient(cfg aws.Config, opts Options) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
}
