package index

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	c := testCID(t, "block")

	t.Run("Unknown", func(t *testing.T) {
		locs, err := idx.Get(ctx, c)
		require.NoError(t, err)
		assert.Empty(t, locs)
	})

	t.Run("CapsLocations", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			idx.Put(c, Location{Region: "r", Bucket: "b", Key: fmt.Sprintf("%d.car", i), Offset: int64(i), Length: 1})
		}

		locs, err := idx.Get(ctx, c)
		require.NoError(t, err)
		require.Len(t, locs, MaxLocations)
		assert.Equal(t, "0.car", locs[0].Key)
		assert.Equal(t, "2.car", locs[2].Key)
	})

	t.Run("ReturnsCopy", func(t *testing.T) {
		locs, err := idx.Get(ctx, c)
		require.NoError(t, err)
		locs[0].Key = "mutated"

		again, err := idx.Get(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "0.car", again[0].Key)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := idx.Get(cctx, c)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
