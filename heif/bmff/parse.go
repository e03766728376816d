package bmff

import (
	"io"

	"github.com/pkg/errors"
)

// ParseBox reads one box at the cursor's current position and returns its
// node, recursing into container kinds. A clean end of input at a box
// boundary returns (nil, io.EOF); end of input mid-field is
// ErrTruncatedInput. On success the cursor is left exactly at the box end,
// so sibling parsing always resumes from a known position.
func ParseBox(c *Cursor) (Node, error) {
	start := c.Pos()
	end := int64(-1)

	size, err := c.ReadUint(4)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}

	var typ BoxType
	tag, err := c.Read(4)
	if err != nil {
		// Some encoders pad the stream with trailing NULs; a zero size
		// whose type field runs off the end is that padding, not a box.
		if size == 0 && (err == io.EOF || errors.Is(err, ErrTruncatedInput)) {
			return nil, io.EOF
		}
		if err == io.EOF {
			return nil, errors.Wrapf(ErrTruncatedInput, "box type at offset %d", start)
		}
		return nil, err
	}
	copy(typ[:], tag)

	switch {
	case size == 0:
		// Box extends to the end of the stream.
		end, err = c.TotalLength()
		if err != nil {
			return nil, err
		}
	case size == 1:
		// Large box: 64-bit size follows the type. End of input here is
		// mid-header, never a clean boundary.
		size, err = c.ReadUint(8)
		if err != nil {
			if err == io.EOF {
				return nil, errors.Wrapf(ErrTruncatedInput, "%q large box size at offset %d", typ, start)
			}
			return nil, err
		}
	case size < 4:
		return nil, errors.Wrapf(ErrBoxFormat, "%q box too short (size %d)", typ, size)
	}

	if typ == Tag("uuid") {
		return nil, errors.Wrapf(ErrUnsupported, "uuid box at offset %d", start)
	}

	payloadStart := c.Pos()
	if end < 0 {
		end = start + int64(size)
	}
	if end < payloadStart {
		return nil, errors.Wrapf(ErrBoxFormat, "%q box too short (size %d)", typ, size)
	}

	b := Box{
		Type:         typ,
		Start:        start,
		End:          end,
		PayloadStart: payloadStart,
		cur:          c,
	}
	var n Node = &b
	if ctor, ok := registry[typ]; ok {
		n = ctor(b)
	}

	if cn, ok := n.(Container); ok {
		if err := parseChildren(c, cn); err != nil {
			return nil, err
		}
	}

	// Re-synchronize: a node's own payload seeking must never leak into
	// sibling parsing.
	if _, err := c.Seek(n.Base().End, io.SeekStart); err != nil {
		return nil, err
	}
	return n, nil
}

func parseChildren(c *Cursor, cn Container) error {
	if err := cn.SeekToChildren(); err != nil {
		return err
	}
	b := cn.Base()
	for c.Pos() < b.End {
		child, err := ParseBox(c)
		if err == io.EOF {
			return errors.Wrapf(ErrTruncatedInput, "%q box cut off before its declared end", b.Type)
		}
		if err != nil {
			return err
		}
		b.Children = append(b.Children, child)
	}
	if c.Pos() != b.End {
		return errors.Wrapf(ErrBoxFormat, "children beyond %q box end", b.Type)
	}
	return nil
}

// ParseAll reads the file-level box list: boxes until a clean end of input.
func ParseAll(c *Cursor) ([]Node, error) {
	var boxes []Node
	for {
		n, err := ParseBox(c)
		if err == io.EOF {
			return boxes, nil
		}
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, n)
	}
}

// Walker yields boxes in breadth-first order by draining a queue seeded
// with a root list; every visited node's children extend the queue, so
// descent does not depend on the filter. A Walker is single-use.
type Walker struct {
	queue    []Node
	typ      BoxType
	filtered bool
}

// Walk returns a Walker over boxes. With a type argument, Next yields only
// boxes of that type while still descending through everything.
func Walk(boxes []Node, typ ...BoxType) *Walker {
	w := &Walker{queue: append([]Node(nil), boxes...)}
	if len(typ) > 0 {
		w.typ = typ[0]
		w.filtered = true
	}
	return w
}

// Next returns the next matching box, or false when the tree is exhausted.
func (w *Walker) Next() (Node, bool) {
	for len(w.queue) > 0 {
		n := w.queue[0]
		w.queue = w.queue[1:]
		w.queue = append(w.queue, n.Base().Children...)
		if w.filtered && n.Base().Type != w.typ {
			continue
		}
		return n, true
	}
	return nil, false
}
