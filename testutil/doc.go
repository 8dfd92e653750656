// Package testutil provides testing utilities for blockgate.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random blocks and building packed
// containers together with the index locations of their blocks.
//
// # Random Blocks
//
//	rng := testutil.NewRNG(seed)
//	c, data := rng.Block(128)
//
// # Containers
//
//	ctr := testutil.NewContainer("us-west-2", "bucket", "1.car")
//	loc := ctr.Add(c, data)
//	store.Put(ctr.Bucket, ctr.Key, ctr.Bytes())
//	idx.Put(c, loc)
package testutil
