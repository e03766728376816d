/*
Copyright 2018 The go4 Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package bmff reads ISO BMFF boxes, as used by HEIF, etc.
//
// A parsed Box holds only its coordinates into the shared Cursor; payload
// bytes are read on demand and may be read any number of times by
// re-seeking. Unknown box types parse as opaque leaves, and callers may
// Register additional types (including containers) before parsing.
package bmff

import (
	"io"
)

// BoxType is a 4-byte ASCII box tag.
type BoxType [4]byte

func (t BoxType) String() string { return string(t[:]) }

// Tag converts a 4-character literal to a BoxType.
func Tag(s string) BoxType {
	if len(s) != 4 {
		panic("bogus box tag length")
	}
	return BoxType{s[0], s[1], s[2], s[3]}
}

// Common box types.
var (
	TypeFtyp = Tag("ftyp")
	TypeMeta = Tag("meta")
	TypeMdat = Tag("mdat")
)

// Box is one ISOBMFF box: a type tag plus absolute byte coordinates into
// the shared cursor. Start and PayloadStart are inclusive, End exclusive;
// Start <= PayloadStart <= End always holds for a parsed box. Children is
// empty unless the box kind is a container.
type Box struct {
	Type         BoxType
	Start        int64
	End          int64
	PayloadStart int64
	Children     []Node

	cur *Cursor
}

// Node is implemented by every parsed box kind. Unregistered types are
// represented by *Box itself. The accessor is named Base rather than Box
// so that typed kinds embedding Box as a field still promote it.
type Node interface {
	Base() *Box
}

// Container marks box kinds whose payload is a sequence of child boxes.
// The engine calls SeekToChildren and then parses until the box end.
type Container interface {
	Node
	SeekToChildren() error
}

func (b *Box) Base() *Box { return b }

// Size is the full box length including the header.
func (b *Box) Size() int64 { return b.End - b.Start }

// Cursor exposes the shared cursor for payload reads. Callers take
// short-lived control of it and must seek before reading.
func (b *Box) Cursor() *Cursor { return b.cur }

// SeekToPayload positions the cursor at the first payload byte.
func (b *Box) SeekToPayload() error {
	_, err := b.cur.Seek(b.PayloadStart, io.SeekStart)
	return err
}

// Payload reads the whole payload. Re-entrant: it seeks first.
func (b *Box) Payload() ([]byte, error) {
	if err := b.SeekToPayload(); err != nil {
		return nil, err
	}
	return b.cur.Read(b.End - b.PayloadStart)
}

// FullBox is a box whose payload begins with a 1-byte version and 24-bit
// flags field. Version and flags are derived by seeking, not stored.
type FullBox struct {
	Box
}

const fullBoxHeaderLen = 4

func (fb *FullBox) Version() (uint8, error) {
	if _, err := fb.cur.Seek(fb.PayloadStart, io.SeekStart); err != nil {
		return 0, err
	}
	v, err := fb.cur.ReadUint(1)
	return uint8(v), err
}

func (fb *FullBox) Flags() (uint32, error) {
	if _, err := fb.cur.Seek(fb.PayloadStart+1, io.SeekStart); err != nil {
		return 0, err
	}
	v, err := fb.cur.ReadUint(3)
	return uint32(v), err
}

// SeekToPayload positions the cursor past the version/flags header.
func (fb *FullBox) SeekToPayload() error {
	_, err := fb.cur.Seek(fb.PayloadStart+fullBoxHeaderLen, io.SeekStart)
	return err
}

// Constructor builds a typed node around a parsed generic box.
type Constructor func(b Box) Node

var registry = map[BoxType]Constructor{}

// Register maps a box tag to a node constructor. The registry is consulted
// once per box header during parsing; callers may extend it before the
// first parse. Registering an existing tag replaces it.
func Register(t BoxType, fn Constructor) {
	registry[t] = fn
}

func init() {
	Register(Tag("ftyp"), func(b Box) Node { return &FileTypeBox{Box: b} })
	Register(Tag("meta"), func(b Box) Node { return &MetaBox{FullBox{Box: b}} })
	Register(Tag("pitm"), func(b Box) Node { return &PrimaryItemBox{FullBox{Box: b}} })
	Register(Tag("iloc"), func(b Box) Node { return &ItemLocationBox{FullBox{Box: b}} })
	Register(Tag("iinf"), func(b Box) Node { return &ItemInfoBox{FullBox{Box: b}} })
	Register(Tag("infe"), func(b Box) Node { return &ItemInfoEntry{FullBox{Box: b}} })
	Register(Tag("iref"), func(b Box) Node { return &ItemReferenceBox{FullBox{Box: b}} })
	Register(Tag("iprp"), func(b Box) Node { return &ItemPropertiesBox{Box: b} })
	Register(Tag("ipco"), func(b Box) Node { return &ItemPropertyContainerBox{Box: b} })
	Register(Tag("ipma"), func(b Box) Node { return &ItemPropertyAssociationBox{FullBox{Box: b}} })
	Register(Tag("ispe"), func(b Box) Node { return &ImageSpatialExtentsBox{FullBox{Box: b}} })
}
