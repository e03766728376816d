package heif

import (
	"io"

	"github.com/heifkit/unheif/heif/bmff"
)

// annexBStartCode is the 4-byte start code preceding each emitted NAL unit.
var annexBStartCode = []byte{0x00, 0x00, 0x00, 0x01}

// copyNALUnit reads one length-prefixed NAL unit at the cursor's current
// position and writes it to w in Annex-B form.
func copyNALUnit(c *bmff.Cursor, w io.Writer, lengthSize int) error {
	length, err := c.ReadUint(lengthSize)
	if err != nil {
		return err
	}
	unit, err := c.Read(int64(length))
	if err != nil {
		return err
	}
	if _, err := w.Write(annexBStartCode); err != nil {
		return err
	}
	_, err = w.Write(unit)
	return err
}

// copyExtentsAnnexB walks the primary item's extents, reading
// length-prefixed sample units and emitting them as Annex-B. The prefix
// width comes from the codec configuration record's length size, which is
// distinct from the fixed 2-byte prefixes inside the record itself.
func (im *Image) copyExtentsAnnexB(w io.Writer, lengthSize int) error {
	c := im.cur
	for _, ext := range im.extents {
		if _, err := c.Seek(int64(ext.Offset), io.SeekStart); err != nil {
			return err
		}
		end := c.Pos() + int64(ext.Length)
		for c.Pos() < end {
			if err := copyNALUnit(c, w, lengthSize); err != nil {
				return err
			}
		}
	}
	return nil
}
