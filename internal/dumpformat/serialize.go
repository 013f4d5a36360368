// Package dumpformat serializes the ordered-map payloads of
// BeginRevision/BeginNode/UserProperties events to their exact
// on-disk byte form. It is shared by pkg/editor, which needs the
// serialized length to recompute framing, and pkg/dumpwriter, which
// writes the same bytes to the sink - so the two can never disagree
// about what a given UserProperties map serializes to.
package dumpformat

import (
	"fmt"

	"github.com/bsmannschott/revisionist/pkg/ordmap"
)

// DumpProperties serializes a BeginRevision/BeginNode header as a
// sequence of "Name: Value\n" lines, in the map's key order.
func DumpProperties(props *ordmap.Map) []byte {
	var out []byte
	for _, k := range props.Keys() {
		v, _ := props.GetString(k)
		out = append(out, fmt.Sprintf("%s: %s\n", k, v)...)
	}
	return out
}

// UserProperties serializes a UserProperties event: one "K"/"V" pair
// per ordinary value, one "D" record per deletion record, in the
// map's key order, terminated by "PROPS-END\n".
func UserProperties(props *ordmap.Map) []byte {
	var out []byte
	for _, k := range props.Keys() {
		if props.IsDeletionRecord(k) {
			out = append(out, fmt.Sprintf("D %d\n%s\n", len(k), k)...)
			continue
		}
		v, _ := props.Get(k)
		out = append(out, fmt.Sprintf("K %d\n%s\nV %d\n%s\n", len(k), k, len(v), v)...)
	}
	out = append(out, "PROPS-END\n"...)
	return out
}
