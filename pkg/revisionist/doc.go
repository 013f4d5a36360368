/*
Package revisionist provides a high-level API for reading, editing,
and re-serializing Subversion dump files (format versions 2 and 3) as
a streaming pipeline of parse events.

# Quick Start

Rewrite every svn:externals property in a dump file read from stdin:

	err := revisionist.EditStream(os.Stdin, os.Stdout, func(props *ordmap.Map) error {
	    v, ok := props.GetString("svn:externals")
	    if !ok {
	        return nil
	    }
	    props.SetString("svn:externals", strings.ReplaceAll(v, "old.com", "new.com"))
	    return nil
	})

# Features

  - Streaming pull parser: memory use is bounded by one header window
    plus one text block, never the whole dump file
  - Round-trip-exact writer: re-serializes to the same bytes a
    conforming parser would accept, byte for byte
  - Insertion-ordered property maps, including deletion records
  - Format-version gating of Prop-delta/Text-delta/property deletion
  - Composable editor stages (pkg/editor) for building custom
    pipelines beyond the convenience functions here

# Basic Usage

Validate a dump file without writing anything:

	err := revisionist.Validate(f)

Build a custom pipeline from the lower-level packages when EditStream's
single-callback shape isn't enough:

	p, _ := dumpparser.New(r)
	events := editor.EchoProperties(p, []string{"svn:log"}, os.Stderr)
	events = editor.EditProperties(events, myEdit)
	w := dumpwriter.New(out)
	for {
	    evt, err := events.Next()
	    if err == io.EOF {
	        break
	    }
	    if err != nil {
	        w.Close()
	        log.Fatal(err)
	    }
	    w.WriteEvent(evt)
	}
	w.Close()

# Error Handling

Errors raised by the pipeline itself are one of the dumperr kinds:
FormatError (structural grammar violation or a length mismatch),
ErrVersionUnsupported, ErrVersionFeature (delta/deletion feature used
below format version 3), ErrChecksumMismatch, or ErrEditConsistency
(more than one UserProperties event in a single header window). Use
errors.Is/errors.As to distinguish them. Errors returned by an edit
callback and I/O errors from the underlying reader or writer are
returned as they are or wrapped with %w.

# Performance

The pipeline never buffers more than the current header window plus
the current node's text content; a multi-gigabyte dump file can be
edited with constant memory.

# Safety

The writer re-validates every length and checksum it finds in the
event stream rather than trusting the producer, so a bug in a custom
editor stage fails loudly instead of emitting a corrupt dump file.
*/
package revisionist

import (
	"io"

	"github.com/bsmannschott/revisionist/pkg/dumpparser"
	"github.com/bsmannschott/revisionist/pkg/dumpwriter"
	"github.com/bsmannschott/revisionist/pkg/editor"
)

// EditStream parses r as a dump file, applies edit to every
// BeginRevision/BeginNode header and to the UserProperties nested in
// each, and writes the result to w.
func EditStream(r io.Reader, w io.Writer, edit editor.EditFunc) error {
	p, err := dumpparser.New(r)
	if err != nil {
		return err
	}
	events := editor.EditProperties(p, edit)

	dw := dumpwriter.New(w)
	for {
		evt, err := events.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = dw.Close()
			return err
		}
		if err := dw.WriteEvent(evt); err != nil {
			_ = dw.Close()
			return err
		}
	}
	return dw.Close()
}

// Validate parses r as a dump file and returns the first error
// encountered, or nil once the stream has been fully consumed.
func Validate(r io.Reader) error {
	p, err := dumpparser.New(r)
	if err != nil {
		return err
	}
	for {
		_, err := p.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
