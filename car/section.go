package car

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
)

// AppendSection appends the section for (c, data) to dst and returns the
// extended slice together with the offset of data relative to the start of
// the appended section.
func AppendSection(dst []byte, c cid.Cid, data []byte) ([]byte, int) {
	cidBytes := c.Bytes()
	size := uint64(len(cidBytes) + len(data))

	dst = append(dst, varint.ToUvarint(size)...)
	dst = append(dst, cidBytes...)
	headerLen := varint.UvarintSize(size) + len(cidBytes)
	dst = append(dst, data...)
	return dst, headerLen
}
