// Package lineio provides one-line look-ahead reading over a byte
// stream, with stable byte offsets for diagnostics.
//
// It is the only component in the pipeline that touches the input
// source directly: the parser reads exclusively through a *Reader.
package lineio

import (
	"bufio"
	"fmt"
	"io"
)

// Reader delivers one line at a time from an underlying io.Reader,
// exposing the current line, its half-open byte range, a 1-based line
// number, and an eof flag. A line is the longest byte sequence ending
// in '\n', or the trailing segment after the last '\n' if the stream
// does not end in one.
type Reader struct {
	src        *bufio.Reader
	closer     io.Closer
	cur        []byte
	start      int64
	stop       int64
	lineNumber int
	eof        bool
	closed     bool
}

// New wraps r. If r also implements io.Closer, it is closed exactly
// once, when the stream is exhausted.
func New(r io.Reader) *Reader {
	rd := &Reader{src: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd
}

// Advance reads the next line into the reader, updating Line, Start,
// Stop, and LineNumber. On exhaustion it sets EOF and clears Line;
// Start and Stop remain coherent (Start == Stop at EOF). The first
// call to Advance reads the first line of the stream.
func (r *Reader) Advance() error {
	if r.eof {
		return nil
	}
	line, err := r.src.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		r.cur = nil
		r.start, r.stop = r.stop, r.stop
		r.eof = true
		return r.closeOnce(ioErrorOrNil(err))
	}
	r.lineNumber++
	r.cur = line
	r.start, r.stop = r.stop, r.stop+int64(len(line))
	if err != nil {
		// Last line of a stream that doesn't end in '\n': still a
		// line, but the next Advance hits true EOF.
		if ioErrorOrNil(err) != nil {
			return r.closeOnce(ioErrorOrNil(err))
		}
	}
	return nil
}

// ioErrorOrNil collapses io.EOF (expected end of stream) to nil,
// surfacing any other read failure.
func ioErrorOrNil(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}

func (r *Reader) closeOnce(err error) error {
	if r.closed {
		return err
	}
	r.closed = true
	if r.closer != nil {
		if cerr := r.closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("lineio: closing input: %w", cerr)
		}
	}
	return err
}

// Line returns the current line, including its trailing '\n' unless
// it is the final, unterminated line of the stream. It is empty at
// EOF.
func (r *Reader) Line() []byte { return r.cur }

// Start returns the byte offset of the first byte of Line.
func (r *Reader) Start() int64 { return r.start }

// Stop returns the byte offset one past the last byte of Line.
func (r *Reader) Stop() int64 { return r.stop }

// LineNumber returns the 1-based number of the current line. It is 0
// before the first call to Advance.
func (r *Reader) LineNumber() int { return r.lineNumber }

// EOF reports whether the stream has been exhausted.
func (r *Reader) EOF() bool { return r.eof }

// Snapshot returns a human-readable multi-line description of the
// reader's current position, suitable for embedding in error
// messages. It includes the line number, byte range, and the first
// ~72 bytes of the current line.
func (r *Reader) Snapshot() string {
	preview := r.cur
	const maxPreview = 72
	truncated := false
	if len(preview) > maxPreview {
		preview = preview[:maxPreview]
		truncated = true
	}
	suffix := ""
	if truncated {
		suffix = "..."
	}
	return fmt.Sprintf(
		"line reader\n  line[%d] = %q%s\n  start    = %d\n  stop     = %d\n  eof      = %t",
		r.lineNumber, preview, suffix, r.start, r.stop, r.eof,
	)
}
