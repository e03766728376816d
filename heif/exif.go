package heif

import (
	"io"

	"github.com/pkg/errors"

	"github.com/heifkit/unheif/heif/bmff"
)

// ErrNoEXIF is returned by Image.EXIF when the file has no Exif item.
var ErrNoEXIF = errors.New("heif: no EXIF found")

// EXIF returns the raw EXIF blob of the file's Exif item, past the 4-byte
// TIFF-offset prefix that heads the item payload.
func (im *Image) EXIF() ([]byte, error) {
	exifID, err := im.exifItemID()
	if err != nil {
		return nil, err
	}

	ilocNode, err := findBox(im.boxes, bmff.Tag("iloc"))
	if err != nil {
		return nil, err
	}
	iloc, ok := ilocNode.(*bmff.ItemLocationBox)
	if !ok {
		return nil, errors.Wrap(bmff.ErrBoxFormat, "iloc box did not parse as an item-location box")
	}
	extents, err := iloc.Extents()
	if err != nil {
		return nil, err
	}
	exifExtents, ok := extents[exifID]
	if !ok {
		return nil, errors.Wrapf(bmff.ErrBoxFormat, "Exif item %d has no iloc entry", exifID)
	}

	var data []byte
	for _, ext := range exifExtents {
		if _, err := im.cur.Seek(int64(ext.Offset), io.SeekStart); err != nil {
			return nil, err
		}
		buf, err := im.cur.Read(int64(ext.Length))
		if err != nil {
			return nil, err
		}
		data = append(data, buf...)
	}
	if len(data) < 4 {
		return nil, errors.Wrap(bmff.ErrBoxFormat, "Exif item payload shorter than its offset prefix")
	}
	return data[4:], nil
}

// exifItemID scans iinf entries for the Exif item.
func (im *Image) exifItemID() (uint32, error) {
	iinf, err := findBox(im.boxes, bmff.Tag("iinf"))
	if err != nil {
		return 0, ErrNoEXIF
	}
	for _, child := range iinf.Base().Children {
		entry, ok := child.(*bmff.ItemInfoEntry)
		if !ok {
			continue
		}
		itemType, err := entry.ItemType()
		if err != nil {
			// Entries of unsupported versions cannot be the one we want.
			continue
		}
		if itemType != "Exif" {
			continue
		}
		return entry.ItemID()
	}
	return 0, ErrNoEXIF
}
