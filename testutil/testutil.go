package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/blockgate/car"
	"github.com/hupe1980/blockgate/index"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Bytes returns n pseudo-random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]byte, n)
	_, _ = r.rand.Read(buf)
	return buf
}

// Block returns a random block of size bytes and its CID.
func (r *RNG) Block(size int) (cid.Cid, []byte) {
	data := r.Bytes(size)
	return CID(data), data
}

// Blocks returns num random blocks with sizes in [1, maxSize].
func (r *RNG) Blocks(num, maxSize int) ([]cid.Cid, [][]byte) {
	cids := make([]cid.Cid, num)
	datas := make([][]byte, num)
	for i := range num {
		cids[i], datas[i] = r.Block(1 + r.Intn(maxSize))
	}
	return cids, datas
}

// CID returns the CIDv1 (raw codec, sha2-256) of data.
func CID(data []byte) cid.Cid {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		panic(err)
	}
	return cid.NewCidV1(cid.Raw, mh)
}

// Container builds a packed container in memory.
type Container struct {
	Region string
	Bucket string
	Key    string

	buf []byte
}

// NewContainer creates an empty container stored at region/bucket/key.
func NewContainer(region, bucket, key string) *Container {
	return &Container{
		Region: region,
		Bucket: bucket,
		Key:    key,
	}
}

// Add appends a section for (c, data) and returns the location of its data.
func (ct *Container) Add(c cid.Cid, data []byte) index.Location {
	start := len(ct.buf)

	var headerLen int
	ct.buf, headerLen = car.AppendSection(ct.buf, c, data)

	return index.Location{
		Region: ct.Region,
		Bucket: ct.Bucket,
		Key:    ct.Key,
		Offset: int64(start + headerLen),
		Length: int64(len(data)),
	}
}

// AddRaw appends b verbatim, e.g. to corrupt the container.
func (ct *Container) AddRaw(b []byte) {
	ct.buf = append(ct.buf, b...)
}

// Len returns the current size of the container.
func (ct *Container) Len() int {
	return len(ct.buf)
}

// Bytes returns the container bytes.
func (ct *Container) Bytes() []byte {
	return ct.buf
}
