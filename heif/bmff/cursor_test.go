package bmff_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/heifkit/unheif/heif/bmff"
)

func newCursor(t *testing.T, data []byte) *bmff.Cursor {
	t.Helper()
	c, err := bmff.NewCursor(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	return c
}

func TestCursorExactRead(t *testing.T) {
	c := newCursor(t, []byte{1, 2, 3, 4, 5})

	buf, err := c.Read(3)
	if err != nil {
		t.Fatalf("Read(3): %v", err)
	}
	if !bytes.Equal(buf, []byte{1, 2, 3}) {
		t.Errorf("Read(3) = %v, want [1 2 3]", buf)
	}
	if got := c.Pos(); got != 3 {
		t.Errorf("Pos() = %d, want 3", got)
	}

	if _, err := c.Read(4); !errors.Is(err, bmff.ErrTruncatedInput) {
		t.Errorf("short read error = %v, want ErrTruncatedInput", err)
	}
}

func TestCursorCleanEOF(t *testing.T) {
	c := newCursor(t, []byte{1, 2})
	if _, err := c.Read(2); err != nil {
		t.Fatalf("Read(2): %v", err)
	}
	if _, err := c.Read(1); err != io.EOF {
		t.Errorf("read at end = %v, want io.EOF", err)
	}
}

func TestCursorReadUint(t *testing.T) {
	c := newCursor(t, []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0})

	v, err := c.ReadUint(2)
	if err != nil {
		t.Fatalf("ReadUint(2): %v", err)
	}
	if v != 0x1234 {
		t.Errorf("ReadUint(2) = %#x, want 0x1234", v)
	}

	v, err = c.ReadUint(0)
	if err != nil || v != 0 {
		t.Errorf("ReadUint(0) = %d, %v, want 0, nil", v, err)
	}
	if got := c.Pos(); got != 2 {
		t.Errorf("Pos() after zero-width read = %d, want 2", got)
	}

	v, err = c.ReadUint(4)
	if err != nil {
		t.Fatalf("ReadUint(4): %v", err)
	}
	if v != 0x56789ABC {
		t.Errorf("ReadUint(4) = %#x, want 0x56789abc", v)
	}
}

func TestCursorReadASCII(t *testing.T) {
	c := newCursor(t, []byte("ftypheic"))
	s, err := c.ReadASCII(4)
	if err != nil {
		t.Fatalf("ReadASCII: %v", err)
	}
	if s != "ftyp" {
		t.Errorf("ReadASCII(4) = %q, want %q", s, "ftyp")
	}
}

func TestCursorPeekRestoresPosition(t *testing.T) {
	c := newCursor(t, []byte{1, 2, 3, 4, 5, 6})
	if _, err := c.Seek(2, io.SeekStart); err != nil {
		t.Fatal(err)
	}

	buf, err := c.Peek(2)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if !bytes.Equal(buf, []byte{3, 4}) {
		t.Errorf("Peek(2) = %v, want [3 4]", buf)
	}
	if got := c.Pos(); got != 2 {
		t.Errorf("Pos() after Peek = %d, want 2", got)
	}

	buf, err = c.PeekAt(2, 4)
	if err != nil {
		t.Fatalf("PeekAt: %v", err)
	}
	if !bytes.Equal(buf, []byte{5, 6}) {
		t.Errorf("PeekAt(2, 4) = %v, want [5 6]", buf)
	}
	if got := c.Pos(); got != 2 {
		t.Errorf("Pos() after PeekAt = %d, want 2", got)
	}

	// The next sequential read must be unaffected.
	next, err := c.Read(1)
	if err != nil {
		t.Fatal(err)
	}
	if next[0] != 3 {
		t.Errorf("read after peeks = %d, want 3", next[0])
	}
}

func TestCursorTotalLength(t *testing.T) {
	c := newCursor(t, make([]byte, 40))
	if _, err := c.Seek(10, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	n, err := c.TotalLength()
	if err != nil {
		t.Fatalf("TotalLength: %v", err)
	}
	if n != 40 {
		t.Errorf("TotalLength() = %d, want 40", n)
	}
	if got := c.Pos(); got != 10 {
		t.Errorf("Pos() after TotalLength = %d, want 10", got)
	}
}

func TestCursorSeekWhence(t *testing.T) {
	c := newCursor(t, make([]byte, 20))
	if pos, _ := c.Seek(5, io.SeekStart); pos != 5 {
		t.Errorf("SeekStart pos = %d, want 5", pos)
	}
	if pos, _ := c.Seek(3, io.SeekCurrent); pos != 8 {
		t.Errorf("SeekCurrent pos = %d, want 8", pos)
	}
	if pos, _ := c.Seek(-4, io.SeekEnd); pos != 16 {
		t.Errorf("SeekEnd pos = %d, want 16", pos)
	}
}
