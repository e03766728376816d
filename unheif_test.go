package unheif_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/heifkit/unheif"
	"github.com/heifkit/unheif/heif/bmff"
	"github.com/heifkit/unheif/internal/heiftest"
)

func TestUnpack(t *testing.T) {
	param := []byte{0x40, 0x01, 0xAA}
	sample := []byte{0x26, 0x01, 0xBB}
	mdatPayload := heiftest.LengthPrefixed(4, sample)

	file := heiftest.Assemble(
		heiftest.Ftyp("heic", "mif1"),
		func(off uint32) []byte {
			return heiftest.Meta(
				heiftest.Pitm(1),
				heiftest.Iloc(heiftest.IlocItem{
					ItemID:  1,
					Base:    off,
					Extents: [][2]uint32{{0, uint32(len(mdatPayload))}},
				}),
				heiftest.Iprp(
					heiftest.Ipco(heiftest.HvcC(3, param)),
					heiftest.Ipma(false, heiftest.IpmaEntry{ItemID: 1, Indices: []uint16{1}}),
				),
			)
		},
		mdatPayload,
	)

	var out bytes.Buffer
	if err := unheif.Unpack(bytes.NewReader(file), &out); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	want := heiftest.AnnexB(param, sample)
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("output = %x, want %x", out.Bytes(), want)
	}
}

func TestUnpackUnsupportedBrand(t *testing.T) {
	file := heiftest.Ftyp("isom")
	err := unheif.Unpack(bytes.NewReader(file), &bytes.Buffer{})
	if !errors.Is(err, bmff.ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}
