package blockgate

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/blockgate/blobstore"
	"github.com/hupe1980/blockgate/index"
	"github.com/hupe1980/blockgate/testutil"
	"github.com/ipfs/go-cid"
)

func benchmarkFixture(b *testing.B, containers, perContainer int) (*index.MemoryIndex, blobstore.Regions, []cid.Cid) {
	b.Helper()

	rng := testutil.NewRNG(4711)
	idx := index.NewMemoryIndex()
	store := blobstore.NewMemoryStore()

	var cids []cid.Cid
	for i := range containers {
		ct := testutil.NewContainer(usWest, "b", fmt.Sprintf("%d.car", i))
		for range perContainer {
			c, data := rng.Block(1024)
			idx.Put(c, ct.Add(c, data))
			cids = append(cids, c)
		}
		store.Put(ct.Bucket, ct.Key, ct.Bytes())
	}

	return idx, blobstore.Regions{usWest: store}, cids
}

func BenchmarkGet(b *testing.B) {
	idx, regions, cids := benchmarkFixture(b, 8, 512)

	for _, window := range []time.Duration{0, 500 * time.Microsecond} {
		b.Run(fmt.Sprintf("window=%s", window), func(b *testing.B) {
			bs := New(idx, regions, WithBatchWindow(window))
			defer bs.Close()

			ctx := context.Background()
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					if _, err := bs.Get(ctx, cids[i%len(cids)]); err != nil {
						b.Error(err)
					}
					i += 7
				}
			})
		})
	}
}

func BenchmarkGetBurst(b *testing.B) {
	idx, regions, cids := benchmarkFixture(b, 4, 256)

	metrics := &BasicMetricsCollector{}
	bs := New(idx, regions, WithMetricsCollector(metrics))
	defer bs.Close()

	ctx := context.Background()
	b.ResetTimer()
	for range b.N {
		var wg sync.WaitGroup
		for _, c := range cids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = bs.Get(ctx, c)
			}()
		}
		wg.Wait()
	}
	b.StopTimer()

	stats := metrics.GetStats()
	b.ReportMetric(float64(stats.RangeReads)/float64(b.N), "reads/burst")
}
