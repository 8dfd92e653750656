package testutil

import (
	"bytes"
	"testing"

	"github.com/hupe1980/blockgate/car"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(4711)
	b := NewRNG(4711)

	assert.Equal(t, a.Bytes(32), b.Bytes(32))

	a.Reset()
	b.Reset()
	ca, _ := a.Block(16)
	cb, _ := b.Block(16)
	assert.True(t, ca.Equals(cb))
	assert.Equal(t, int64(4711), a.Seed())
}

func TestBlocks(t *testing.T) {
	rng := NewRNG(1)

	cids, datas := rng.Blocks(10, 64)
	require.Len(t, cids, 10)
	require.Len(t, datas, 10)

	for i := range cids {
		assert.NotEmpty(t, datas[i])
		assert.LessOrEqual(t, len(datas[i]), 64)
		assert.True(t, CID(datas[i]).Equals(cids[i]))
	}
}

func TestContainer(t *testing.T) {
	rng := NewRNG(2)
	ct := NewContainer("r", "b", "k/1.car")

	c1, d1 := rng.Block(10)
	c2, d2 := rng.Block(20)
	l1 := ct.Add(c1, d1)
	l2 := ct.Add(c2, d2)

	assert.Equal(t, "r", l1.Region)
	assert.Equal(t, "k/1.car", l2.Key)
	assert.Equal(t, int64(10), l1.Length)
	assert.Equal(t, d1, ct.Bytes()[l1.Offset:l1.End()])
	assert.Equal(t, d2, ct.Bytes()[l2.Offset:l2.End()])
	assert.Equal(t, int64(ct.Len()), l2.End())

	r := car.NewReader(bytes.NewReader(ct.Bytes()[l1.End():]), l1.End())
	h, err := r.ReadHeader()
	require.NoError(t, err)
	assert.True(t, h.CID.Equals(c2))
	assert.Equal(t, l2.Offset, h.DataOffset)
}
