package car

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
)

// MaxSectionLength bounds the declared length of a single section: 2MiB (the
// largest block we serve) plus header overhead and some leeway.
const MaxSectionLength = (1024 * 1024 * 2) + 39 + 61

// ErrMalformed is returned for truncated or invalid container bytes.
var ErrMalformed = errors.New("malformed container")

// Header describes one block section.
type Header struct {
	// CID of the block.
	CID cid.Cid
	// Offset of the section (its length prefix) in the container.
	Offset int64
	// DataOffset is the offset of the block data in the container.
	DataOffset int64
	// Length of the block data.
	Length int64
}

// Reader is a forward-only cursor over container bytes.
type Reader struct {
	br  *bufio.Reader
	pos int64
}

// NewReader returns a Reader over r. base is the container offset of the
// first byte of r and is only used to report positions.
func NewReader(r io.Reader, base int64) *Reader {
	return &Reader{
		br:  bufio.NewReader(r),
		pos: base,
	}
}

// Pos returns the container offset of the next unread byte.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadHeader reads the section header at the current position. It returns
// io.EOF if the stream ends exactly at a section boundary.
func (r *Reader) ReadHeader() (Header, error) {
	start := r.pos

	if _, err := r.br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return Header{}, io.EOF
		}
		return Header{}, r.malformed("section length", err)
	}

	n, err := varint.ReadUvarint(r.br)
	if err != nil {
		return Header{}, r.malformed("section length", err)
	}
	r.pos += int64(varint.UvarintSize(n))

	if n == 0 || n > MaxSectionLength {
		return Header{}, r.malformed("section length", fmt.Errorf("invalid length %d", n))
	}

	cidLen, c, err := cid.CidFromReader(r.br)
	r.pos += int64(cidLen)
	if err != nil {
		return Header{}, r.malformed("cid", err)
	}
	if uint64(cidLen) > n {
		return Header{}, r.malformed("cid", fmt.Errorf("cid length %d exceeds section length %d", cidLen, n))
	}

	return Header{
		CID:        c,
		Offset:     start,
		DataOffset: r.pos,
		Length:     int64(n) - int64(cidLen),
	}, nil
}

// ReadExactly reads exactly n bytes.
func (r *Reader) ReadExactly(n int64) ([]byte, error) {
	if n < 0 || n > MaxSectionLength {
		return nil, r.malformed("data", fmt.Errorf("invalid length %d", n))
	}

	buf := make([]byte, n)
	read, err := io.ReadFull(r.br, buf)
	r.pos += int64(read)
	if err != nil {
		return nil, r.malformed("data", err)
	}
	return buf, nil
}

// Seek skips n bytes.
func (r *Reader) Seek(n int64) error {
	if n < 0 || n > MaxSectionLength {
		return r.malformed("seek", fmt.Errorf("invalid length %d", n))
	}

	skipped, err := r.br.Discard(int(n))
	r.pos += int64(skipped)
	if err != nil {
		return r.malformed("seek", err)
	}
	return nil
}

func (r *Reader) malformed(what string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %s at offset %d: %w", ErrMalformed, what, r.pos, err)
}
