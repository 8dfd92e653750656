// Package batch accumulates wanted blocks and drains them grouped by the
// container object that holds them.
//
// A Batcher is pure bookkeeping: it does no I/O and holds no long-lived
// resources. For every CID it picks exactly one candidate location using a
// Selector, and Next returns all entries that share one container object,
// sorted by offset, so a single ranged read can serve the whole group.
package batch
