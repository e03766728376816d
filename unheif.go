// Package unheif extracts the primary image bitstream from ISOBMFF image
// containers (HEIC, AVIF, AVIC) into a standalone elementary stream:
// Annex-B NAL units for HEVC/AVC payloads, an IVF-wrapped OBU stream for
// AV1 payloads. It does not decode pixels.
package unheif

import (
	"bytes"
	"io"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/heifkit/unheif/heif"
)

// Unpack reads a HEIC/AVIF/AVIC container from rs and writes the primary
// image's converted bitstream to w. On error no valid output is
// guaranteed; nothing written so far is cleaned up.
func Unpack(rs io.ReadSeeker, w io.Writer) error {
	im, err := heif.Open(rs)
	if err != nil {
		return err
	}
	return im.Unpack(w)
}

// ExtractExif returns the raw EXIF blob of the container's Exif item.
// The error is heif.ErrNoEXIF if the file carries none.
func ExtractExif(rs io.ReadSeeker) ([]byte, error) {
	im, err := heif.Open(rs)
	if err != nil {
		return nil, err
	}
	return im.EXIF()
}

// DecodeExif extracts and parses the container's EXIF metadata.
func DecodeExif(rs io.ReadSeeker) (*exif.Exif, error) {
	raw, err := ExtractExif(rs)
	if err != nil {
		return nil, err
	}
	return exif.Decode(bytes.NewReader(raw))
}
