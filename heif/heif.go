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

// Package heif resolves the primary image of a HEIC/AVIF/AVIC container
// and remuxes its compressed bitstream into a standalone stream: Annex-B
// NAL units for HEVC and AVC, an IVF-wrapped OBU stream for AV1.
//
// Methods on Image share one cursor and must not be called concurrently.
package heif

import (
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/heifkit/unheif/heif/bmff"
)

// Codec identifies the remux strategy chosen from the file brand.
type Codec int

const (
	CodecHEVC Codec = iota
	CodecAVC
	CodecAV1
)

func (c Codec) String() string {
	switch c {
	case CodecHEVC:
		return "hevc"
	case CodecAVC:
		return "avc"
	case CodecAV1:
		return "av1"
	}
	return "unknown"
}

// Image is a parsed container with its primary item resolved: the item's
// data extents, its associated property boxes, and the codec implied by
// the file brand.
type Image struct {
	cur     *bmff.Cursor
	boxes   []bmff.Node
	mdat    *bmff.Box
	codec   Codec
	itemID  uint32
	extents []bmff.Extent
	props   []bmff.Node
}

// Open parses the container and resolves its primary item. The brand is
// checked before any meta or mdat content is touched, so an unsupported
// file fails with bmff.ErrUnsupported rather than a structural error.
func Open(rs io.ReadSeeker) (*Image, error) {
	cur, err := bmff.NewCursor(rs)
	if err != nil {
		return nil, err
	}
	boxes, err := bmff.ParseAll(cur)
	if err != nil {
		return nil, err
	}

	if len(boxes) == 0 || boxes[0].Base().Type != bmff.TypeFtyp {
		return nil, errors.Wrap(bmff.ErrBoxFormat, "file does not start with an ftyp box")
	}
	ftypNode, err := oneBox(boxes, bmff.TypeFtyp)
	if err != nil {
		return nil, err
	}
	ftyp, ok := ftypNode.(*bmff.FileTypeBox)
	if !ok {
		return nil, errors.Wrap(bmff.ErrBoxFormat, "ftyp box did not parse as a file-type box")
	}
	brands, err := ftyp.Brands()
	if err != nil {
		return nil, err
	}

	im := &Image{cur: cur, boxes: boxes}
	switch {
	case brands[bmff.Tag("heic")]:
		im.codec = CodecHEVC
	case brands[bmff.Tag("avif")]:
		im.codec = CodecAV1
	case brands[bmff.Tag("avic")]:
		im.codec = CodecAVC
	default:
		return nil, errors.Wrapf(bmff.ErrUnsupported, "HEIF brands %v", brandList(brands))
	}

	mdat, err := oneBox(boxes, bmff.TypeMdat)
	if err != nil {
		return nil, err
	}
	im.mdat = mdat.Base()

	if err := im.resolvePrimaryItem(); err != nil {
		return nil, err
	}
	return im, nil
}

func (im *Image) resolvePrimaryItem() error {
	pitmNode, err := findBox(im.boxes, bmff.Tag("pitm"))
	if err != nil {
		return err
	}
	pitm, ok := pitmNode.(*bmff.PrimaryItemBox)
	if !ok {
		return errors.Wrap(bmff.ErrBoxFormat, "pitm box did not parse as a primary-item box")
	}
	im.itemID, err = pitm.ItemID()
	if err != nil {
		return err
	}

	ilocNode, err := findBox(im.boxes, bmff.Tag("iloc"))
	if err != nil {
		return err
	}
	iloc, ok := ilocNode.(*bmff.ItemLocationBox)
	if !ok {
		return errors.Wrap(bmff.ErrBoxFormat, "iloc box did not parse as an item-location box")
	}
	extents, err := iloc.Extents()
	if err != nil {
		return err
	}
	im.extents, ok = extents[im.itemID]
	if !ok {
		return errors.Wrapf(bmff.ErrBoxFormat, "primary item %d has no iloc entry", im.itemID)
	}

	ipmaNode, err := findBox(im.boxes, bmff.Tag("ipma"))
	if err != nil {
		return err
	}
	ipma, ok := ipmaNode.(*bmff.ItemPropertyAssociationBox)
	if !ok {
		return errors.Wrap(bmff.ErrBoxFormat, "ipma box did not parse as a property-association box")
	}
	assocs, err := ipma.Associations()
	if err != nil {
		return err
	}
	indices, ok := assocs[im.itemID]
	if !ok {
		return errors.Wrapf(bmff.ErrBoxFormat, "primary item %d has no ipma entry", im.itemID)
	}

	ipco, err := findBox(im.boxes, bmff.Tag("ipco"))
	if err != nil {
		return err
	}
	properties := ipco.Base().Children
	im.props = make([]bmff.Node, 0, len(indices))
	for _, index := range indices {
		// Indices are 1-based; 0 is the reserved "no property" value.
		if index == 0 || int(index) > len(properties) {
			return errors.Wrapf(bmff.ErrBoxFormat, "property index %d out of range for item %d", index, im.itemID)
		}
		im.props = append(im.props, properties[index-1])
	}
	return nil
}

// Codec reports the remux strategy selected from the file brand.
func (im *Image) Codec() Codec { return im.codec }

// PrimaryItemID reports the item ID named by the pitm box.
func (im *Image) PrimaryItemID() uint32 { return im.itemID }

// Extents returns the primary item's data extents in declared order.
func (im *Image) Extents() []bmff.Extent { return im.extents }

// Properties returns the primary item's resolved property boxes.
func (im *Image) Properties() []bmff.Node { return im.props }

// Resolution reports the primary item's pixel dimensions, if it carries an
// ispe property.
func (im *Image) Resolution() (width, height int, ok bool) {
	for _, p := range im.props {
		if ispe, isIspe := p.(*bmff.ImageSpatialExtentsBox); isIspe {
			w, h, err := ispe.Resolution()
			if err != nil {
				return 0, 0, false
			}
			return int(w), int(h), true
		}
	}
	return 0, 0, false
}

// Unpack writes the primary item's bitstream to w in the codec's target
// format. It is single-pass: on error the partial output is not valid.
func (im *Image) Unpack(w io.Writer) error {
	switch im.codec {
	case CodecHEVC:
		return im.unpackHEVC(w)
	case CodecAVC:
		return im.unpackAVC(w)
	case CodecAV1:
		return im.unpackAV1(w)
	}
	return errors.Wrapf(bmff.ErrUnsupported, "codec %v", im.codec)
}

// oneBox requires exactly one box of the given type among boxes.
func oneBox(boxes []bmff.Node, typ bmff.BoxType) (bmff.Node, error) {
	var found bmff.Node
	for _, n := range boxes {
		if n.Base().Type != typ {
			continue
		}
		if found != nil {
			return nil, errors.Wrapf(bmff.ErrBoxFormat, "more than one %q box", typ)
		}
		found = n
	}
	if found == nil {
		return nil, errors.Wrapf(bmff.ErrBoxFormat, "missing %q box", typ)
	}
	return found, nil
}

// findBox returns the first box of the given type anywhere in the tree.
func findBox(boxes []bmff.Node, typ bmff.BoxType) (bmff.Node, error) {
	if n, ok := bmff.Walk(boxes, typ).Next(); ok {
		return n, nil
	}
	return nil, errors.Wrapf(bmff.ErrBoxFormat, "missing %q box", typ)
}

func brandList(brands map[bmff.BoxType]bool) []string {
	list := make([]string, 0, len(brands))
	for b := range brands {
		list = append(list, b.String())
	}
	sort.Strings(list)
	return list
}
