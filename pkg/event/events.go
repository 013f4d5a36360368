// Package event defines the parse-event stream shared by the parser,
// editor stages, and writer. Every stage of the pipeline consumes and
// produces this same event type, so stages compose without adapters.
package event

import "github.com/bsmannschott/revisionist/pkg/ordmap"

// Kind identifies which variant an Event carries.
type Kind int

const (
	// BeginDumpfile opens the stream; carries Version and UUID.
	BeginDumpfile Kind = iota
	// EndDumpfile closes the stream. No event follows it.
	EndDumpfile
	// BeginRevision opens a revision; carries Props.
	BeginRevision
	// EndRevisionHeader separates a revision's header from its nodes.
	EndRevisionHeader
	// EndRevisionNodes closes a revision.
	EndRevisionNodes
	// BeginNode opens a node; carries Props.
	BeginNode
	// EndNode closes a node.
	EndNode
	// UserProperties carries a node's or revision's Subversion
	// properties, as an ordered map from name to value (nil value =
	// deletion record, see ordmap.Map.SetDeletionRecord).
	UserProperties
	// TextContent carries a node's raw text bytes.
	TextContent
	// BlankLine is a significant blank line that must round-trip.
	BlankLine
)

func (k Kind) String() string {
	switch k {
	case BeginDumpfile:
		return "BeginDumpfile"
	case EndDumpfile:
		return "EndDumpfile"
	case BeginRevision:
		return "BeginRevision"
	case EndRevisionHeader:
		return "EndRevisionHeader"
	case EndRevisionNodes:
		return "EndRevisionNodes"
	case BeginNode:
		return "BeginNode"
	case EndNode:
		return "EndNode"
	case UserProperties:
		return "UserProperties"
	case TextContent:
		return "TextContent"
	case BlankLine:
		return "BlankLine"
	default:
		return "Unknown"
	}
}

// Event is a single parse event. Only the fields relevant to Kind are
// meaningful; see the Kind constant docs above.
type Event struct {
	Kind Kind

	Version uint32  // BeginDumpfile
	UUID    *string // BeginDumpfile; nil when absent

	Props *ordmap.Map // BeginRevision, BeginNode, UserProperties

	Text []byte // TextContent
}

// Source is the minimal iterator every pipeline stage implements:
// parser, editor stages, and anything feeding the writer. Next
// returns (Event{}, io.EOF) once EndDumpfile has been consumed by the
// caller and no further events remain.
type Source interface {
	Next() (Event, error)
}

// BeginDumpfileEvent builds a BeginDumpfile event.
func BeginDumpfileEvent(version uint32, uuid *string) Event {
	return Event{Kind: BeginDumpfile, Version: version, UUID: uuid}
}

// EndDumpfileEvent builds an EndDumpfile event.
func EndDumpfileEvent() Event { return Event{Kind: EndDumpfile} }

// BeginRevisionEvent builds a BeginRevision event.
func BeginRevisionEvent(props *ordmap.Map) Event {
	return Event{Kind: BeginRevision, Props: props}
}

// EndRevisionHeaderEvent builds an EndRevisionHeader event.
func EndRevisionHeaderEvent() Event { return Event{Kind: EndRevisionHeader} }

// EndRevisionNodesEvent builds an EndRevisionNodes event.
func EndRevisionNodesEvent() Event { return Event{Kind: EndRevisionNodes} }

// BeginNodeEvent builds a BeginNode event.
func BeginNodeEvent(props *ordmap.Map) Event {
	return Event{Kind: BeginNode, Props: props}
}

// EndNodeEvent builds an EndNode event.
func EndNodeEvent() Event { return Event{Kind: EndNode} }

// UserPropertiesEvent builds a UserProperties event.
func UserPropertiesEvent(props *ordmap.Map) Event {
	return Event{Kind: UserProperties, Props: props}
}

// TextContentEvent builds a TextContent event.
func TextContentEvent(text []byte) Event {
	return Event{Kind: TextContent, Text: text}
}

// BlankLineEvent builds a BlankLine event.
func BlankLineEvent() Event { return Event{Kind: BlankLine} }
