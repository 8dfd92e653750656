// Package index resolves content identifiers to the physical locations of
// their bytes inside packed CAR containers.
//
// An Index returns at most MaxLocations candidate locations for a CID, in the
// order the backing index ranks them. Each location names a regional store, a
// bucket, an object key and the byte range of the block data inside that
// object.
//
// # Implementations
//
//   - DynamoIndex: DynamoDB table keyed by the base58btc multihash
//   - MemoryIndex: in-memory map, useful for tests and local tooling
package index
