package car

import (
	"bytes"
	"io"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlock(t *testing.T, data string) (cid.Cid, []byte) {
	t.Helper()
	mh, err := multihash.Sum([]byte(data), multihash.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(cid.Raw, mh), []byte(data)
}

func TestReader_Sections(t *testing.T) {
	a, aData := testBlock(t, "alpha")
	b, bData := testBlock(t, "bravo bravo")

	var buf []byte
	buf, aHdr := AppendSection(buf, a, aData)
	bStart := len(buf)
	buf, bHdr := AppendSection(buf, b, bData)

	r := NewReader(bytes.NewReader(buf), 1000)

	h, err := r.ReadHeader()
	require.NoError(t, err)
	assert.True(t, h.CID.Equals(a))
	assert.Equal(t, int64(1000), h.Offset)
	assert.Equal(t, int64(1000+aHdr), h.DataOffset)
	assert.Equal(t, int64(len(aData)), h.Length)

	data, err := r.ReadExactly(h.Length)
	require.NoError(t, err)
	assert.Equal(t, aData, data)
	assert.Equal(t, int64(1000+bStart), r.Pos())

	h, err = r.ReadHeader()
	require.NoError(t, err)
	assert.True(t, h.CID.Equals(b))
	assert.Equal(t, int64(1000+bStart+bHdr), h.DataOffset)
	require.NoError(t, r.Seek(h.Length))

	_, err = r.ReadHeader()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, int64(1000+len(buf)), r.Pos())
}

func TestReader_CIDv0(t *testing.T) {
	v1, data := testBlock(t, "legacy")
	v0 := cid.NewCidV0(v1.Hash())

	buf, _ := AppendSection(nil, v0, data)
	r := NewReader(bytes.NewReader(buf), 0)

	h, err := r.ReadHeader()
	require.NoError(t, err)
	assert.True(t, h.CID.Equals(v0))
	assert.Equal(t, int64(len(data)), h.Length)
}

func TestReader_Malformed(t *testing.T) {
	c, data := testBlock(t, "payload")
	buf, _ := AppendSection(nil, c, data)

	t.Run("TruncatedData", func(t *testing.T) {
		r := NewReader(bytes.NewReader(buf[:len(buf)-2]), 0)
		h, err := r.ReadHeader()
		require.NoError(t, err)
		_, err = r.ReadExactly(h.Length)
		assert.ErrorIs(t, err, ErrMalformed)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("TruncatedCID", func(t *testing.T) {
		r := NewReader(bytes.NewReader(buf[:4]), 0)
		_, err := r.ReadHeader()
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("ZeroLength", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte{0x00, 0x01}), 0)
		_, err := r.ReadHeader()
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("Oversized", func(t *testing.T) {
		r := NewReader(bytes.NewReader(varint.ToUvarint(MaxSectionLength+1)), 0)
		_, err := r.ReadHeader()
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("GarbageCID", func(t *testing.T) {
		garbage := append(varint.ToUvarint(8), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		r := NewReader(bytes.NewReader(garbage), 0)
		_, err := r.ReadHeader()
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("SeekPastEnd", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte{1, 2, 3}), 0)
		err := r.Seek(10)
		assert.ErrorIs(t, err, ErrMalformed)
		assert.Equal(t, int64(3), r.Pos())
	})

	t.Run("NegativeLength", func(t *testing.T) {
		r := NewReader(bytes.NewReader(buf), 0)
		_, err := r.ReadExactly(-1)
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestReader_ReadExactlyAtStart(t *testing.T) {
	a, aData := testBlock(t, "first block data")
	b, bData := testBlock(t, "second")

	var buf []byte
	buf, aHdr := AppendSection(buf, a, aData)
	buf, _ = AppendSection(buf, b, bData)

	// Start the stream at the data of the first block, the way a ranged read
	// at an index offset does.
	r := NewReader(bytes.NewReader(buf[aHdr:]), int64(aHdr))
	data, err := r.ReadExactly(int64(len(aData)))
	require.NoError(t, err)
	assert.Equal(t, aData, data)

	h, err := r.ReadHeader()
	require.NoError(t, err)
	assert.True(t, h.CID.Equals(b))
	data, err = r.ReadExactly(h.Length)
	require.NoError(t, err)
	assert.Equal(t, bData, data)
}
