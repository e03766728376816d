// Package heiftest assembles minimal ISOBMFF image files in memory for
// tests: hand-built boxes with byte-exact sizes, so expected output
// streams can be computed by hand.
package heiftest

import "encoding/binary"

func U16(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

func U32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

// Box frames payload parts with a 32-bit size and the given 4-byte type.
func Box(typ string, parts ...[]byte) []byte {
	if len(typ) != 4 {
		panic("heiftest: box type must be 4 bytes")
	}
	size := 8
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	out = append(out, U32(uint32(size))...)
	out = append(out, typ...)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// FullBox is Box with a version/flags header prepended to the payload.
func FullBox(typ string, version uint8, flags uint32, parts ...[]byte) []byte {
	hdr := U32(flags & 0x00FFFFFF)
	hdr[0] = version
	return Box(typ, append([][]byte{hdr}, parts...)...)
}

func Ftyp(major string, compatible ...string) []byte {
	parts := [][]byte{[]byte(major), U32(0)}
	for _, b := range compatible {
		parts = append(parts, []byte(b))
	}
	return Box("ftyp", parts...)
}

func Pitm(itemID uint16) []byte {
	return FullBox("pitm", 0, 0, U16(itemID))
}

// IlocItem is one version-0 iloc entry with 4-byte offset, length and base
// offset fields.
type IlocItem struct {
	ItemID  uint16
	Base    uint32
	Extents [][2]uint32 // {offset, length}, relative to Base
}

func Iloc(items ...IlocItem) []byte {
	parts := [][]byte{{0x44}, {0x40}, U16(uint16(len(items)))}
	for _, it := range items {
		parts = append(parts, U16(it.ItemID), U16(0), U32(it.Base), U16(uint16(len(it.Extents))))
		for _, ext := range it.Extents {
			parts = append(parts, U32(ext[0]), U32(ext[1]))
		}
	}
	return FullBox("iloc", 0, 0, parts...)
}

// IpmaEntry associates an item with 1-based ipco property indices.
type IpmaEntry struct {
	ItemID  uint16
	Indices []uint16
}

// Ipma builds a version-0 ipma box. With wide set, entries are 2 bytes
// (flags bit 0) and indices may carry the essential top bit.
func Ipma(wide bool, entries ...IpmaEntry) []byte {
	var flags uint32
	if wide {
		flags = 1
	}
	parts := [][]byte{U32(uint32(len(entries)))}
	for _, e := range entries {
		parts = append(parts, U16(e.ItemID), []byte{byte(len(e.Indices))})
		for _, idx := range e.Indices {
			if wide {
				parts = append(parts, U16(idx))
			} else {
				parts = append(parts, []byte{byte(idx)})
			}
		}
	}
	return FullBox("ipma", 0, flags, parts...)
}

func Ispe(width, height uint32) []byte {
	return FullBox("ispe", 0, 0, U32(width), U32(height))
}

// Infe builds a version-2 item-info entry.
func Infe(itemID uint16, itemType string) []byte {
	return FullBox("infe", 2, 0, U16(itemID), U16(0), []byte(itemType), []byte{0x00})
}

// HvcC builds an hvcC record: a 21-byte preamble, the length-size byte,
// then one NAL array per parameter set with a 2-byte length prefix.
func HvcC(lengthSizeMinusOne byte, params ...[]byte) []byte {
	payload := make([]byte, 21)
	payload[0] = 1 // configurationVersion
	payload = append(payload, 0xFC|lengthSizeMinusOne&0x03)
	payload = append(payload, byte(len(params)))
	for _, p := range params {
		payload = append(payload, 0xA0, 0x00, 0x01) // completeness, NAL type, numNalus=1
		payload = append(payload, U16(uint16(len(p)))...)
		payload = append(payload, p...)
	}
	return Box("hvcC", payload)
}

// AvcC builds an avcC record for a non-Range-Extensions profile.
func AvcC(profile, lengthSizeMinusOne byte, sps, pps [][]byte) []byte {
	payload := []byte{1, profile, 0x00, 0x1E, 0xFC | lengthSizeMinusOne&0x03}
	payload = append(payload, 0xE0|byte(len(sps)))
	for _, p := range sps {
		payload = append(payload, U16(uint16(len(p)))...)
		payload = append(payload, p...)
	}
	payload = append(payload, byte(len(pps)))
	for _, p := range pps {
		payload = append(payload, U16(uint16(len(p)))...)
		payload = append(payload, p...)
	}
	return Box("avcC", payload)
}

// Assemble builds ftyp + meta + mdat. The meta callback receives the
// absolute offset of the mdat payload so iloc entries can point into it;
// it must produce the same length regardless of that value (fixed-width
// offset fields), which Assemble verifies with a trial pass.
func Assemble(ftyp []byte, meta func(mdatOff uint32) []byte, mdatPayload []byte) []byte {
	trial := meta(0)
	mdatOff := uint32(len(ftyp) + len(trial) + 8)
	m := meta(mdatOff)
	if len(m) != len(trial) {
		panic("heiftest: meta size depends on mdat offset")
	}
	out := append([]byte{}, ftyp...)
	out = append(out, m...)
	out = append(out, Box("mdat", mdatPayload)...)
	return out
}

// Meta wraps children in a meta full box.
func Meta(children ...[]byte) []byte {
	return FullBox("meta", 0, 0, children...)
}

// Iprp wraps an ipco box and an ipma box.
func Iprp(ipco, ipma []byte) []byte {
	return Box("iprp", ipco, ipma)
}

// Ipco wraps property boxes; association indices are 1-based into this
// child order.
func Ipco(properties ...[]byte) []byte {
	return Box("ipco", properties...)
}

// Iinf wraps infe entries with a version-0 entry count.
func Iinf(entries ...[]byte) []byte {
	parts := append([][]byte{U16(uint16(len(entries)))}, entries...)
	return FullBox("iinf", 0, 0, parts...)
}

// AnnexB frames each unit with a 4-byte start code.
func AnnexB(units ...[]byte) []byte {
	var out []byte
	for _, u := range units {
		out = append(out, 0x00, 0x00, 0x00, 0x01)
		out = append(out, u...)
	}
	return out
}

// LengthPrefixed frames each unit with an n-byte big-endian length.
func LengthPrefixed(n int, units ...[]byte) []byte {
	var out []byte
	for _, u := range units {
		switch n {
		case 2:
			out = append(out, U16(uint16(len(u)))...)
		case 4:
			out = append(out, U32(uint32(len(u)))...)
		default:
			panic("heiftest: unsupported length-prefix width")
		}
		out = append(out, u...)
	}
	return out
}
