package heif

import (
	"io"

	"github.com/pkg/errors"

	"github.com/heifkit/unheif/heif/bmff"
)

// AVC profiles carrying the Range Extensions fields at the end of the
// configuration record.
func isRangeExtensionProfile(profile uint8) bool {
	switch profile {
	case 100, 110, 122, 144:
		return true
	}
	return false
}

// unpackAVC emits the primary item as an Annex-B AVC stream, mirroring the
// HEVC strategy but with the avcC record layout.
func (im *Image) unpackAVC(w io.Writer) error {
	cfg, err := oneBox(im.props, bmff.Tag("avcC"))
	if err != nil {
		return err
	}
	lengthSize, err := writeAVCParameterSets(cfg.Base(), w)
	if err != nil {
		return err
	}
	return im.copyExtentsAnnexB(w, lengthSize)
}

// writeAVCParameterSets copies the SPS/PPS (and, for Range Extensions
// profiles, SPS-extension) arrays out of an AVCDecoderConfigurationRecord
// and returns the declared sample length-prefix width.
func writeAVCParameterSets(cfg *bmff.Box, w io.Writer) (lengthSize int, err error) {
	if err := cfg.SeekToPayload(); err != nil {
		return 0, err
	}
	c := cfg.Cursor()

	version, err := c.ReadUint(1)
	if err != nil {
		return 0, err
	}
	if version != 1 {
		return 0, errors.Wrapf(bmff.ErrUnsupported, "avcC configuration version %d", version)
	}
	profile, err := c.ReadUint(1)
	if err != nil {
		return 0, err
	}
	if _, err := c.Seek(2, io.SeekCurrent); err != nil { // compatibility, level
		return 0, err
	}
	v, err := c.ReadUint(1)
	if err != nil {
		return 0, err
	}
	lengthSizeMinusOne := int(v & 0x03)

	copyArray := func(count uint64) error {
		for i := uint64(0); i < count; i++ {
			if c.Pos() > cfg.End {
				return errors.Wrap(bmff.ErrBoxFormat, "read past end of avcC record")
			}
			if err := copyNALUnit(c, w, 2); err != nil {
				return err
			}
		}
		return nil
	}

	spsCount, err := c.ReadUint(1)
	if err != nil {
		return 0, err
	}
	if err := copyArray(spsCount & 0x1F); err != nil {
		return 0, err
	}
	ppsCount, err := c.ReadUint(1)
	if err != nil {
		return 0, err
	}
	if err := copyArray(ppsCount); err != nil {
		return 0, err
	}

	if isRangeExtensionProfile(uint8(profile)) {
		// chroma_format, bit_depth_luma, bit_depth_chroma.
		if _, err := c.Seek(3, io.SeekCurrent); err != nil {
			return 0, err
		}
		extCount, err := c.ReadUint(1)
		if err != nil {
			return 0, err
		}
		if err := copyArray(extCount); err != nil {
			return 0, err
		}
	}
	return lengthSizeMinusOne + 1, nil
}
