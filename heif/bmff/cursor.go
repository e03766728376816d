package bmff

import (
	"io"

	"github.com/pkg/errors"
)

// Cursor wraps a seekable byte source with the primitive reads BMFF parsing
// needs: exact-length reads, big-endian integers, ASCII tags, and a
// position-restoring peek. A Cursor has a single position shared by every
// Box parsed from it; accessors must seek to a known offset before reading
// and must not assume the position left behind by a previous caller.
type Cursor struct {
	rs  io.ReadSeeker
	pos int64
}

// NewCursor returns a Cursor positioned at the source's current offset.
func NewCursor(rs io.ReadSeeker) (*Cursor, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	return &Cursor{rs: rs, pos: pos}, nil
}

// Pos reports the current absolute position.
func (c *Cursor) Pos() int64 { return c.pos }

// Seek moves the position. The whence argument is mandatory (io.SeekStart,
// io.SeekCurrent, io.SeekEnd) to keep relative and absolute moves explicit.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	pos, err := c.rs.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	c.pos = pos
	return pos, nil
}

// Read returns exactly n bytes. At a clean end of input with zero bytes
// consumed the error is io.EOF; a partial read reports ErrTruncatedInput.
// Partial results are never returned.
func (c *Cursor) Read(n int64) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.rs, buf); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(ErrTruncatedInput, "%d bytes at offset %d", n, c.pos)
		}
		return nil, err
	}
	c.pos += n
	return buf, nil
}

// ReadUint reads an n-byte big-endian unsigned integer, n in 0..8.
// n == 0 reads nothing and yields 0, matching zero-width table fields.
func (c *Cursor) ReadUint(n int) (uint64, error) {
	if n < 0 || n > 8 {
		return 0, errors.Wrapf(ErrBoxFormat, "bad integer width %d", n)
	}
	if n == 0 {
		return 0, nil
	}
	buf, err := c.Read(int64(n))
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// ReadASCII reads n bytes as a string.
func (c *Cursor) ReadASCII(n int) (string, error) {
	buf, err := c.Read(int64(n))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Peek reads n bytes at the current position without moving it.
func (c *Cursor) Peek(n int64) ([]byte, error) {
	return c.PeekAt(n, c.pos)
}

// PeekAt reads n bytes at an arbitrary absolute offset and restores the
// prior position, so interleaved sequential reads are unaffected.
func (c *Cursor) PeekAt(n, offset int64) ([]byte, error) {
	orig := c.pos
	if _, err := c.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	buf, err := c.Read(n)
	if err != nil {
		c.Seek(orig, io.SeekStart)
		return nil, err
	}
	if _, err := c.Seek(orig, io.SeekStart); err != nil {
		return nil, err
	}
	return buf, nil
}

// TotalLength reports the total length of the underlying source without
// perturbing the position.
func (c *Cursor) TotalLength() (int64, error) {
	orig := c.pos
	end, err := c.rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := c.rs.Seek(orig, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}
