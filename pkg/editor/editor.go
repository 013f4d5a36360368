// Package editor implements the property-editing pipeline stage: a
// middle stage that sits between the parser and the writer, consuming
// and producing the same event.Source interface so stages compose
// without adapters.
package editor

import (
	"fmt"
	"io"

	"github.com/bsmannschott/revisionist/internal/dumpformat"
	"github.com/bsmannschott/revisionist/internal/dumperr"
	"github.com/bsmannschott/revisionist/pkg/event"
	"github.com/bsmannschott/revisionist/pkg/ordmap"
)

// EditFunc mutates a header's or a UserProperties event's ordered map
// in place. It is invoked on BeginRevision and BeginNode headers, and
// again on the UserProperties event nested within them, if any.
type EditFunc func(*ordmap.Map) error

// editingSource buffers one header window - a BeginRevision or
// BeginNode event and everything up to its EndRevisionHeader/EndNode
// terminator - so that edits to UserProperties can be reflected in
// the header's Prop-content-length and Content-length before any of
// the window's events are released.
type editingSource struct {
	src   event.Source
	edit  EditFunc
	queue []event.Event
	err   error
	done  bool
}

// EditProperties wraps events, applying edit to every BeginRevision
// and BeginNode header and to the UserProperties event nested in each
// (if any), recomputing Prop-content-length and Content-length to
// match the edited properties' serialized length.
func EditProperties(events event.Source, edit EditFunc) event.Source {
	return &editingSource{src: events, edit: edit}
}

func (s *editingSource) Next() (event.Event, error) {
	if len(s.queue) > 0 {
		evt := s.queue[0]
		s.queue = s.queue[1:]
		return evt, nil
	}
	if s.done {
		return event.Event{}, io.EOF
	}
	if s.err != nil {
		return event.Event{}, s.err
	}

	evt, err := s.src.Next()
	if err != nil {
		return event.Event{}, err
	}

	if evt.Kind != event.BeginRevision && evt.Kind != event.BeginNode {
		if evt.Kind == event.EndDumpfile {
			s.done = true
		}
		return evt, nil
	}

	if err := s.edit(evt.Props); err != nil {
		return event.Event{}, fmt.Errorf("revisionist: editing %s header: %w", evt.Kind, err)
	}

	terminator := event.EndRevisionHeader
	if evt.Kind == event.BeginNode {
		terminator = event.EndNode
	}

	window := []event.Event{evt}
	propsIdx := -1
	for {
		next, err := s.src.Next()
		if err != nil {
			return event.Event{}, err
		}
		if next.Kind == terminator {
			window = append(window, next)
			break
		}
		if next.Kind == event.UserProperties {
			if propsIdx != -1 {
				return event.Event{}, dumperr.ErrEditConsistency
			}
			propsIdx = len(window)
		}
		window = append(window, next)
	}

	// window is now fixed; taking element addresses below is safe
	// since no further appends follow.
	if propsIdx != -1 {
		propsEvt := &window[propsIdx]
		if err := s.edit(propsEvt.Props); err != nil {
			return event.Event{}, fmt.Errorf("revisionist: editing user properties: %w", err)
		}
		newPropLen := len(dumpformat.UserProperties(propsEvt.Props))
		header := &window[0]
		header.Props.SetString("Prop-content-length", fmt.Sprintf("%d", newPropLen))

		textLen := 0
		if tl, ok := header.Props.GetString("Text-content-length"); ok {
			fmt.Sscanf(tl, "%d", &textLen)
		}
		header.Props.SetString("Content-length", fmt.Sprintf("%d", newPropLen+textLen))
	}

	s.queue = window
	first := s.queue[0]
	s.queue = s.queue[1:]
	return first, nil
}

// echoSource passes events through unchanged, writing selected
// property key/value pairs to w as they pass: BeginRevision/BeginNode
// dump-property values, and UserProperties values, for any name in
// names.
type echoSource struct {
	src   event.Source
	names []string
	w     io.Writer
}

// EchoProperties wraps events, writing the named properties to w on
// every BeginRevision, BeginNode, and UserProperties event, without
// modifying the stream.
func EchoProperties(events event.Source, names []string, w io.Writer) event.Source {
	return &echoSource{src: events, names: names, w: w}
}

func (s *echoSource) Next() (event.Event, error) {
	evt, err := s.src.Next()
	if err != nil {
		return event.Event{}, err
	}
	switch evt.Kind {
	case event.BeginRevision, event.BeginNode, event.UserProperties:
		for _, name := range s.names {
			if v, ok := evt.Props.GetString(name); ok {
				fmt.Fprintf(s.w, "%s: %s\n", name, v)
			}
		}
	}
	return evt, nil
}

// Chain composes 0..N editor stages in sequence, each wrapping the
// previous: Chain(events, a, b) behaves as b(a(events)).
func Chain(events event.Source, stages ...func(event.Source) event.Source) event.Source {
	for _, stage := range stages {
		events = stage(events)
	}
	return events
}
