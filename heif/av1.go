package heif

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/heifkit/unheif/heif/bmff"
)

const (
	ivfHeaderLen      = 32
	ivfFrameHeaderLen = 12
)

// The sample data is already OBU-framed, but a decoder expects a stream to
// open with a temporal delimiter: obu_type 2 with obu_has_size_field set,
// and a zero payload size.
var obuTemporalDelimiter = []byte{0x12, 0x00}

// unpackAV1 wraps the primary item's OBU data in a minimal IVF container:
// a 32-byte file header, one frame record, a synthetic temporal delimiter,
// then every extent copied verbatim.
func (im *Image) unpackAV1(w io.Writer) error {
	ispe, err := oneBox(im.props, bmff.Tag("ispe"))
	if err != nil {
		return err
	}
	prop, ok := ispe.(*bmff.ImageSpatialExtentsBox)
	if !ok {
		return errors.Wrap(bmff.ErrBoxFormat, "ispe box did not parse as a spatial-extents box")
	}
	width, height, err := prop.Resolution()
	if err != nil {
		return err
	}

	// The IVF frame length field is 32 bits; refuse streams it cannot
	// describe instead of writing a wrapped value.
	total := uint64(len(obuTemporalDelimiter))
	for _, ext := range im.extents {
		total += ext.Length
	}
	if total > math.MaxUint32 {
		return errors.Wrapf(bmff.ErrUnsupported, "OBU stream of %d bytes exceeds the IVF frame size limit", total)
	}
	frameLen := uint32(total)

	hdr := make([]byte, ivfHeaderLen+ivfFrameHeaderLen)
	copy(hdr[0:4], "DKIF")
	binary.LittleEndian.PutUint16(hdr[4:6], 0)            // version
	binary.LittleEndian.PutUint16(hdr[6:8], ivfHeaderLen) // header length
	copy(hdr[8:12], "AV01")
	binary.LittleEndian.PutUint16(hdr[12:14], uint16(width))
	binary.LittleEndian.PutUint16(hdr[14:16], uint16(height))
	// The container does not record a framerate; 25/1 matches the ffmpeg
	// convention for still AV1 streams.
	binary.LittleEndian.PutUint32(hdr[16:20], 25)
	binary.LittleEndian.PutUint32(hdr[20:24], 1)
	// Frame count in some IVF specs, duration in others; ffmpeg writes
	// all ones, as does the reserved field after it.
	copy(hdr[24:28], []byte{0xFF, 0xFF, 0xFF, 0xFF})
	copy(hdr[28:32], []byte{0xFF, 0xFF, 0xFF, 0xFF})

	binary.LittleEndian.PutUint32(hdr[32:36], frameLen)
	binary.LittleEndian.PutUint64(hdr[36:44], 0) // presentation timestamp

	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if _, err := w.Write(obuTemporalDelimiter); err != nil {
		return err
	}

	c := im.cur
	for _, ext := range im.extents {
		if _, err := c.Seek(int64(ext.Offset), io.SeekStart); err != nil {
			return err
		}
		buf, err := c.Read(int64(ext.Length))
		if err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
