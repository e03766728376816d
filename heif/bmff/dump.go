package bmff

import (
	"fmt"
	"io"
	"strings"
)

// Dump renders the box tree for debugging: one line per box with its type
// and byte length, indented by depth, plus the raw payload for leaves.
// Purely a consumer of the parse API.
func Dump(w io.Writer, boxes []Node) error {
	for _, n := range boxes {
		if err := dumpNode(w, n, 0); err != nil {
			return err
		}
	}
	return nil
}

func dumpNode(w io.Writer, n Node, depth int) error {
	b := n.Base()
	indent := strings.Repeat(" ", depth)
	if _, err := fmt.Fprintf(w, "%sBox(type=%s, size=%d)\n", indent, b.Type, b.Size()); err != nil {
		return err
	}
	if len(b.Children) == 0 {
		payload, err := b.Payload()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s %q\n", indent, payload); err != nil {
			return err
		}
	}
	for _, child := range b.Children {
		if err := dumpNode(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
