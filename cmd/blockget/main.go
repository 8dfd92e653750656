// blockget fetches blocks by CID through a blockgate blockstore and writes
// their raw bytes to stdout, or to one file per block with --out.
//
// Configuration is read from the YAML file named by --config or the
// BLOCKGATE_CONFIG environment variable; flags override file values.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/hupe1980/blockgate"
	"github.com/hupe1980/blockgate/blobstore"
	"github.com/hupe1980/blockgate/blobstore/minio"
	"github.com/hupe1980/blockgate/blobstore/s3"
	"github.com/hupe1980/blockgate/index"
	"github.com/hupe1980/blockgate/metric"
	"github.com/hupe1980/blockgate/resource"
	"github.com/ipfs/go-cid"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var outDir string

	flagSet := pflag.NewFlagSet("blockget", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $BLOCKGATE_CONFIG)")
	flagSet.StringVar(&outDir, "out", "", "write each block to <dir>/<cid> instead of stdout")
	AddFlags(flagSet)
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	cids, err := parseCIDs(flagSet.Args())
	if err != nil {
		return err
	}

	var cfg *Config
	if configPath != "" {
		cfg, err = LoadFile(configPath)
	} else {
		cfg, err = Load()
	}
	if err != nil {
		return err
	}
	cfg.ApplyFlags(flagSet)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	idx, err := newIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}

	regions, err := newRegions(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []blockgate.Option{
		blockgate.WithLogger(logger),
		blockgate.WithPreferredRegion(cfg.PreferredRegion),
		blockgate.WithBatchWindow(cfg.BatchWindow),
		blockgate.WithGroupConcurrency(cfg.GroupConcurrency),
		blockgate.WithResourceController(resource.NewController(resource.Config{
			MaxConcurrentReads: cfg.MaxConcurrentReads,
			IOLimitBytesPerSec: cfg.IOLimitBytesPerSec,
		})),
	}

	policy := blockgate.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.MaxAttempts
	opts = append(opts, blockgate.WithRetryPolicy(policy))

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, blockgate.WithMetricsCollector(metric.NewPrometheusCollector(reg, "blockgate")))

		server := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer server.Close()
	}

	bs := blockgate.New(idx, regions, opts...)
	defer bs.Close()

	logger.Debug("blockstore ready",
		"backend", cfg.Backend,
		"regions", regions.Names(),
		"table", cfg.Table,
	)

	return fetch(ctx, bs, cids, outDir)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `blockget: fetch raw blocks by CID.

Usage:
  blockget [flags] <cid>...

Examples:
  # Print a block to stdout
  BLOCKGATE_CONFIG=blockgate.yaml blockget bafkreigh2akiscaildc...

  # Write several blocks to ./blocks, preferring us-east-2 replicas
  blockget --config blockgate.yaml --preferred-region us-east-2 --out ./blocks <cid> <cid>

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

func parseCIDs(args []string) ([]cid.Cid, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one CID is required")
	}

	cids := make([]cid.Cid, 0, len(args))
	for _, arg := range args {
		c, err := cid.Decode(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid CID %q: %w", arg, err)
		}
		cids = append(cids, c)
	}
	return cids, nil
}

func newLogger(cfg *Config) (*blockgate.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat == "json" {
		return blockgate.NewJSONLogger(level), nil
	}
	return blockgate.NewTextLogger(level), nil
}

func newIndex(ctx context.Context, cfg *Config, logger *blockgate.Logger) (*index.DynamoIndex, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.IndexRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.IndexEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.IndexEndpoint)
		}
	})

	return index.NewDynamoIndex(client, cfg.Table, func(o *index.DynamoOptions) {
		o.Logger = logger.Logger
	}), nil
}

func newRegions(ctx context.Context, cfg *Config) (blobstore.Regions, error) {
	switch cfg.Backend {
	case BackendS3:
		return s3.NewRegional(ctx, cfg.Regions, func(o *s3.Options) {
			o.Endpoint = cfg.Endpoint
			o.UsePathStyle = cfg.PathStyle
		})
	case BackendMinIO:
		regions := make(blobstore.Regions, len(cfg.Regions))
		for _, region := range cfg.Regions {
			client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
				Creds:  credentials.NewEnvAWS(),
				Secure: cfg.Secure,
				Region: region,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create MinIO client for region %s: %w", region, err)
			}
			regions[region] = minio.NewStore(client)
		}
		return regions, nil
	case BackendLocal:
		regions := make(blobstore.Regions, len(cfg.Regions))
		for _, region := range cfg.Regions {
			regions[region] = blobstore.NewLocalStore(filepath.Join(cfg.LocalRoot, region))
		}
		return regions, nil
	default:
		return nil, fmt.Errorf("invalid backend: %s", cfg.Backend)
	}
}

// fetch gets all cids concurrently and writes them in argument order.
func fetch(ctx context.Context, bs *blockgate.Blockstore, cids []cid.Cid, outDir string) error {
	blocks := make([]blockgate.Block, len(cids))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range cids {
		g.Go(func() error {
			blk, err := bs.Get(gctx, c)
			if err != nil {
				return fmt.Errorf("%s: %w", c, err)
			}
			blocks[i] = blk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
	}

	for _, blk := range blocks {
		if outDir == "" {
			if _, err := os.Stdout.Write(blk.Data); err != nil {
				return err
			}
			continue
		}
		if err := os.WriteFile(filepath.Join(outDir, blk.CID.String()), blk.Data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
