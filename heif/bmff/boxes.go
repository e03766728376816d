package bmff

import (
	"io"

	"github.com/pkg/errors"
)

// FileTypeBox is the "ftyp" box declaring the file's brand set.
type FileTypeBox struct {
	Box
}

// Brands returns the major brand together with all compatible brands.
func (b *FileTypeBox) Brands() (map[BoxType]bool, error) {
	if err := b.SeekToPayload(); err != nil {
		return nil, err
	}
	major, err := b.cur.Read(4)
	if err != nil {
		return nil, err
	}
	brands := map[BoxType]bool{}
	var t BoxType
	copy(t[:], major)
	brands[t] = true
	if _, err := b.cur.Seek(4, io.SeekCurrent); err != nil { // minor version
		return nil, err
	}
	for b.cur.Pos() < b.End {
		if b.End-b.cur.Pos() < 4 {
			return nil, errors.Wrapf(ErrBoxFormat, "ftyp brand list cut off at offset %d", b.cur.Pos())
		}
		buf, err := b.cur.Read(4)
		if err != nil {
			return nil, err
		}
		copy(t[:], buf)
		brands[t] = true
	}
	return brands, nil
}

// MetaBox is the "meta" container.
type MetaBox struct {
	FullBox
}

func (b *MetaBox) SeekToChildren() error { return b.SeekToPayload() }

// ItemReferenceBox is the "iref" container.
type ItemReferenceBox struct {
	FullBox
}

func (b *ItemReferenceBox) SeekToChildren() error { return b.SeekToPayload() }

// ItemPropertiesBox is the "iprp" container.
type ItemPropertiesBox struct {
	Box
}

func (b *ItemPropertiesBox) SeekToChildren() error { return b.SeekToPayload() }

// ItemPropertyContainerBox is the "ipco" container; ipma property indices
// are 1-based pointers into its children.
type ItemPropertyContainerBox struct {
	Box
}

func (b *ItemPropertyContainerBox) SeekToChildren() error { return b.SeekToPayload() }

// ItemInfoBox is the "iinf" container. Its children begin after an
// entry-count field whose width depends on the box version.
type ItemInfoBox struct {
	FullBox
}

func (b *ItemInfoBox) SeekToChildren() error {
	version, err := b.Version()
	if err != nil {
		return err
	}
	if err := b.SeekToPayload(); err != nil {
		return err
	}
	n := int64(2)
	if version != 0 {
		n = 4
	}
	_, err = b.cur.Seek(n, io.SeekCurrent)
	return err
}

// ItemInfoEntry is an "infe" box describing one item.
type ItemInfoEntry struct {
	FullBox
}

// ItemID returns the entry's item ID. Only versions 2 and 3 carry the
// fields this package needs; earlier versions are unsupported.
func (b *ItemInfoEntry) ItemID() (uint32, error) {
	version, err := b.Version()
	if err != nil {
		return 0, err
	}
	if err := b.SeekToPayload(); err != nil {
		return 0, err
	}
	switch version {
	case 2:
		v, err := b.cur.ReadUint(2)
		return uint32(v), err
	case 3:
		v, err := b.cur.ReadUint(4)
		return uint32(v), err
	}
	return 0, errors.Wrapf(ErrUnsupported, "infe version %d", version)
}

// ItemType returns the entry's 4-byte item type, e.g. "hvc1" or "Exif".
func (b *ItemInfoEntry) ItemType() (string, error) {
	if _, err := b.ItemID(); err != nil {
		return "", err
	}
	if _, err := b.cur.Seek(2, io.SeekCurrent); err != nil { // protection index
		return "", err
	}
	return b.cur.ReadASCII(4)
}

// PrimaryItemBox is the "pitm" box naming the file's primary item.
type PrimaryItemBox struct {
	FullBox
}

func (b *PrimaryItemBox) ItemID() (uint32, error) {
	version, err := b.Version()
	if err != nil {
		return 0, err
	}
	if err := b.SeekToPayload(); err != nil {
		return 0, err
	}
	if version == 0 {
		v, err := b.cur.ReadUint(2)
		return uint32(v), err
	}
	v, err := b.cur.ReadUint(4)
	return uint32(v), err
}

// Extent is one (absolute offset, length) span of an item's data.
type Extent struct {
	Offset uint64
	Length uint64
}

// ItemLocationBox is the "iloc" box.
type ItemLocationBox struct {
	FullBox
}

// Extents returns each item's data extents in declared order. Offsets are
// absolute within the whole file (base offset + extent offset), not
// relative to mdat. Only version 0 is supported, and every entry must
// reference this file (data-reference index 0).
func (b *ItemLocationBox) Extents() (map[uint32][]Extent, error) {
	version, err := b.Version()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, errors.Wrapf(ErrUnsupported, "iloc version %d", version)
	}
	if err := b.SeekToPayload(); err != nil {
		return nil, err
	}
	c := b.cur
	sizes, err := c.ReadUint(1)
	if err != nil {
		return nil, err
	}
	offsetSize := int(sizes >> 4)
	lengthSize := int(sizes & 0x0F)
	sizes, err = c.ReadUint(1)
	if err != nil {
		return nil, err
	}
	baseOffsetSize := int(sizes >> 4)
	itemCount, err := c.ReadUint(2)
	if err != nil {
		return nil, err
	}

	items := make(map[uint32][]Extent, itemCount)
	for i := uint64(0); i < itemCount; i++ {
		itemID, err := c.ReadUint(2)
		if err != nil {
			return nil, err
		}
		dataRef, err := c.ReadUint(2)
		if err != nil {
			return nil, err
		}
		if dataRef != 0 {
			return nil, errors.Wrapf(ErrUnsupported, "iloc item %d stored in another file", itemID)
		}
		baseOffset, err := c.ReadUint(baseOffsetSize)
		if err != nil {
			return nil, err
		}
		extentCount, err := c.ReadUint(2)
		if err != nil {
			return nil, err
		}
		extents := make([]Extent, 0, extentCount)
		for j := uint64(0); j < extentCount; j++ {
			off, err := c.ReadUint(offsetSize)
			if err != nil {
				return nil, err
			}
			length, err := c.ReadUint(lengthSize)
			if err != nil {
				return nil, err
			}
			extents = append(extents, Extent{Offset: baseOffset + off, Length: length})
		}
		items[uint32(itemID)] = extents
	}
	if c.Pos() != b.End {
		return nil, errors.Wrap(ErrBoxFormat, "extra content after iloc items")
	}
	return items, nil
}

// ItemPropertyAssociationBox is the "ipma" box.
type ItemPropertyAssociationBox struct {
	FullBox
}

// Associations returns each item's property indices in declared order.
// Indices are 1-based pointers into the sibling ipco box's children. The
// "essential" bit on each entry is masked off and discarded: properties
// are read unconditionally either way.
func (b *ItemPropertyAssociationBox) Associations() (map[uint32][]uint16, error) {
	version, err := b.Version()
	if err != nil {
		return nil, err
	}
	flags, err := b.Flags()
	if err != nil {
		return nil, err
	}
	if err := b.SeekToPayload(); err != nil {
		return nil, err
	}
	c := b.cur
	entryCount, err := c.ReadUint(4)
	if err != nil {
		return nil, err
	}
	items := make(map[uint32][]uint16, entryCount)
	for i := uint64(0); i < entryCount; i++ {
		idWidth := 2
		if version != 0 {
			idWidth = 4
		}
		itemID, err := c.ReadUint(idWidth)
		if err != nil {
			return nil, err
		}
		assocCount, err := c.ReadUint(1)
		if err != nil {
			return nil, err
		}
		indices := make([]uint16, 0, assocCount)
		for j := uint64(0); j < assocCount; j++ {
			var index uint16
			if flags&1 != 0 {
				v, err := c.ReadUint(2)
				if err != nil {
					return nil, err
				}
				index = uint16(v) & 0x7FFF
			} else {
				v, err := c.ReadUint(1)
				if err != nil {
					return nil, err
				}
				index = uint16(v) & 0x7F
			}
			indices = append(indices, index)
		}
		items[uint32(itemID)] = indices
	}
	if c.Pos() != b.End {
		return nil, errors.Wrap(ErrBoxFormat, "extra content after ipma items")
	}
	return items, nil
}

// ImageSpatialExtentsBox is the "ispe" property carrying pixel dimensions.
type ImageSpatialExtentsBox struct {
	FullBox
}

func (b *ImageSpatialExtentsBox) Resolution() (width, height uint32, err error) {
	if err := b.SeekToPayload(); err != nil {
		return 0, 0, err
	}
	w, err := b.cur.ReadUint(4)
	if err != nil {
		return 0, 0, err
	}
	h, err := b.cur.ReadUint(4)
	if err != nil {
		return 0, 0, err
	}
	return uint32(w), uint32(h), nil
}
