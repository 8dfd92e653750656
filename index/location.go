package index

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
)

// ErrInvalidPath is returned when a composite container path does not have
// the region/bucket/key shape.
var ErrInvalidPath = errors.New("invalid container path")

// Object identifies a single container object in a regional store.
type Object struct {
	Region string
	Bucket string
	Key    string
}

// String returns the composite path "region/bucket/key".
func (o Object) String() string {
	return o.Region + "/" + o.Bucket + "/" + o.Key
}

// Location describes where the data of one block lives.
//
// Offset and Length address the block data, not its section header.
type Location struct {
	Region string
	Bucket string
	Key    string
	Offset int64
	Length int64
}

// Object returns the container object this location points into.
func (l Location) Object() Object {
	return Object{Region: l.Region, Bucket: l.Bucket, Key: l.Key}
}

// End returns the exclusive end offset of the block data.
func (l Location) End() int64 {
	return l.Offset + l.Length
}

// Valid reports whether the location addresses a non-negative byte range.
func (l Location) Valid() bool {
	return l.Offset >= 0 && l.Length >= 0
}

func (l Location) String() string {
	return fmt.Sprintf("%s@%d+%d", l.Object(), l.Offset, l.Length)
}

// ParsePath splits a composite "region/bucket/key" path. The key may itself
// contain slashes.
func ParsePath(path string) (Object, error) {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Object{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return Object{Region: parts[0], Bucket: parts[1], Key: parts[2]}, nil
}

// KeyOf returns the stable string key for a CID: the base58btc encoding of
// its multihash. CIDs of different versions or codecs that share a multihash
// map to the same key.
func KeyOf(c cid.Cid) string {
	key, err := multibase.Encode(multibase.Base58BTC, c.Hash())
	if err != nil {
		// Base58BTC is always registered.
		panic(err)
	}
	return key
}
