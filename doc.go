// Package blockgate serves content-addressed blocks out of packed CAR
// containers stored across regional object-storage buckets.
//
// A Blockstore resolves a CID to candidate locations through an index.Index,
// queues the wanted block in a batch.Batcher and lets a drain cycle fetch it.
// Requests that arrive close together are coalesced: every container object
// touched by a cycle is read once, with a single ranged read spanning all
// wanted blocks, and the range is decoded section by section to answer every
// waiting caller whose block it contains.
//
// # Quick Start
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	idx := index.NewDynamoIndex(dynamodb.NewFromConfig(cfg), "blocks-cars-position")
//	regions, _ := s3.NewRegional(ctx, []string{"us-west-2", "us-east-2"})
//
//	bs := blockgate.New(idx, regions,
//	    blockgate.WithPreferredRegion("us-west-2"),
//	    blockgate.WithLogger(blockgate.NewJSONLogger(slog.LevelInfo)),
//	)
//	defer bs.Close()
//
//	blk, err := bs.Get(ctx, c)
//	if errors.Is(err, blockgate.ErrNotFound) {
//	    // absent
//	}
//
// # Failure Semantics
//
// Absence is ordinary: a block with no index entry, a container range that
// cannot be read after retries, or a range that does not contain the block
// all yield ErrNotFound. Only index failures surface as errors, and only to
// the caller that triggered the lookup.
//
// # Observability
//
// Use WithLogger for structured logging and WithMetricsCollector for metrics.
// The metric package provides a Prometheus collector.
package blockgate
