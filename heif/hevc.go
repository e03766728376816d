package heif

import (
	"io"

	"github.com/pkg/errors"

	"github.com/heifkit/unheif/heif/bmff"
)

// unpackHEVC emits the primary item as an Annex-B HEVC stream: first the
// parameter-set NAL units from the hvcC record, then the sample units
// from every extent.
func (im *Image) unpackHEVC(w io.Writer) error {
	cfg, err := oneBox(im.props, bmff.Tag("hvcC"))
	if err != nil {
		return err
	}
	lengthSize, err := writeHEVCParameterSets(cfg.Base(), w)
	if err != nil {
		return err
	}
	return im.copyExtentsAnnexB(w, lengthSize)
}

// writeHEVCParameterSets copies the NAL-unit arrays out of an
// HEVCDecoderConfigurationRecord and returns the sample length-prefix
// width the record declares.
func writeHEVCParameterSets(cfg *bmff.Box, w io.Writer) (lengthSize int, err error) {
	if err := cfg.SeekToPayload(); err != nil {
		return 0, err
	}
	c := cfg.Cursor()

	// The length-size field begins 174 bits into the record; the fields
	// before it tile evenly into 21 bytes.
	if _, err := c.Seek(21, io.SeekCurrent); err != nil {
		return 0, err
	}
	v, err := c.ReadUint(1)
	if err != nil {
		return 0, err
	}
	lengthSizeMinusOne := int(v & 0x03)

	numArrays, err := c.ReadUint(1)
	if err != nil {
		return 0, err
	}
	for i := uint64(0); i < numArrays; i++ {
		if c.Pos() > cfg.End {
			return 0, errors.Wrap(bmff.ErrBoxFormat, "read past end of hvcC record")
		}
		// Each array starts with 24 bits: array_completeness (1),
		// reserved (1), NAL_unit_type (6), numNalus (16). Exactly one
		// unit per array follows, with a fixed 2-byte length prefix
		// regardless of the record's declared sample length size.
		if _, err := c.Seek(3, io.SeekCurrent); err != nil {
			return 0, err
		}
		if err := copyNALUnit(c, w, 2); err != nil {
			return 0, err
		}
	}
	return lengthSizeMinusOne + 1, nil
}
