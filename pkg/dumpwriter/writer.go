// Package dumpwriter serializes a parse-event stream back to the
// dump-file byte format, asserting the same framing invariants a
// conforming parser would rely on rather than trusting the producer.
package dumpwriter

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/bsmannschott/revisionist/internal/dumpformat"
	"github.com/bsmannschott/revisionist/internal/dumperr"
	"github.com/bsmannschott/revisionist/internal/iosync"
	"github.com/bsmannschott/revisionist/pkg/event"
	"github.com/bsmannschott/revisionist/pkg/ordmap"
)

// Writer serializes events to an underlying sink, one event at a
// time. It must be driven to completion (an EndDumpfile event), and
// Close must always be called, even on error: Close is not merely a
// cleanup step, it's where the buffered output is flushed.
type Writer struct {
	bw  *bufio.Writer
	raw io.Writer

	version uint32

	// Declared lengths for the header currently open, tracked across
	// BeginNode/BeginRevision/EndNode/EndRevisionHeader.
	textMD5     string
	haveTextMD5 bool
	textLen     int
	propLen     int
	havePropLen bool
}

// New wraps w. Writes are buffered; call Close to flush them.
func New(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w), raw: w}
}

// WriteEvent serializes one event, validating it against the
// writer's running state machine before committing any bytes.
func (w *Writer) WriteEvent(evt event.Event) error {
	switch evt.Kind {
	case event.BeginDumpfile:
		if evt.Version < 2 || evt.Version > 3 {
			return fmt.Errorf("revisionist: dump format version %d: %w", evt.Version, dumperr.ErrVersionUnsupported)
		}
		w.version = evt.Version
		if _, err := fmt.Fprintf(w.bw, "SVN-fs-dump-format-version: %d\n\n", evt.Version); err != nil {
			return err
		}
		if evt.UUID != nil {
			if _, err := fmt.Fprintf(w.bw, "UUID: %s\n", *evt.UUID); err != nil {
				return err
			}
		}
		return nil

	case event.EndDumpfile:
		return nil

	case event.BeginRevision:
		if propDelta(evt.Props) && w.version == 2 {
			return fmt.Errorf("revisionist: Prop-delta in format-2 dumpfile: %w", dumperr.ErrVersionFeature)
		}
		w.propLen, w.havePropLen = intProp(evt.Props, "Prop-content-length")
		_, err := w.bw.Write(dumpformat.DumpProperties(evt.Props))
		return err

	case event.EndRevisionHeader:
		w.havePropLen = false
		return nil

	case event.EndRevisionNodes:
		return nil

	case event.BeginNode:
		if propDelta(evt.Props) && w.version == 2 {
			return fmt.Errorf("revisionist: Prop-delta in format-2 dumpfile: %w", dumperr.ErrVersionFeature)
		}
		if textDelta(evt.Props) && w.version == 2 {
			return fmt.Errorf("revisionist: Text-delta in format-2 dumpfile: %w", dumperr.ErrVersionFeature)
		}
		w.propLen, w.havePropLen = intProp(evt.Props, "Prop-content-length")
		w.textLen, _ = intProp(evt.Props, "Text-content-length")
		if textDelta(evt.Props) {
			w.haveTextMD5 = false
		} else if md5, ok := evt.Props.GetString("Text-content-md5"); ok {
			w.textMD5, w.haveTextMD5 = md5, true
		} else {
			w.haveTextMD5 = false
		}
		_, err := w.bw.Write(dumpformat.DumpProperties(evt.Props))
		return err

	case event.EndNode:
		w.havePropLen = false
		w.haveTextMD5 = false
		w.textLen = 0
		return nil

	case event.TextContent:
		if w.textLen != len(evt.Text) {
			return dumperr.NewFormatError(fmt.Sprintf(
				"text length mismatch: Text-content-length declared %d, got %d bytes",
				w.textLen, len(evt.Text)), "")
		}
		if w.haveTextMD5 {
			sum := md5.Sum(evt.Text)
			got := hex.EncodeToString(sum[:])
			if got != w.textMD5 {
				return fmt.Errorf("revisionist: expected md5 %s, computed %s: %w",
					w.textMD5, got, dumperr.ErrChecksumMismatch)
			}
		}
		_, err := w.bw.Write(evt.Text)
		return err

	case event.UserProperties:
		if hasDeletionRecord(evt.Props) && w.version == 2 {
			return fmt.Errorf("revisionist: property deletion in format-2 dumpfile: %w", dumperr.ErrVersionFeature)
		}
		buf := dumpformat.UserProperties(evt.Props)
		if w.havePropLen && len(buf) != w.propLen {
			return dumperr.NewFormatError(fmt.Sprintf(
				"property length mismatch: Prop-content-length declared %d, got %d bytes",
				w.propLen, len(buf)), "")
		}
		_, err := w.bw.Write(buf)
		return err

	case event.BlankLine:
		_, err := w.bw.Write([]byte("\n"))
		return err

	default:
		return fmt.Errorf("revisionist: unknown event kind %v", evt.Kind)
	}
}

// Close flushes buffered output, fsyncs the sink when it is an
// *os.File backed by a regular file (pipes and terminals are not
// synced), and closes it when it implements io.Closer. It always
// runs every step to completion, even after an earlier one fails, and
// reports the first error encountered.
func (w *Writer) Close() error {
	var firstErr error
	if err := w.bw.Flush(); err != nil {
		firstErr = err
	}
	if f, ok := w.raw.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode().IsRegular() {
			if err := iosync.Sync(f); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("revisionist: syncing output: %w", err)
			}
		}
	}
	if c, ok := w.raw.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("revisionist: closing output: %w", err)
		}
	}
	return firstErr
}

func intProp(props *ordmap.Map, key string) (int, bool) {
	v, ok := props.GetString(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func propDelta(props *ordmap.Map) bool {
	v, ok := props.GetString("Prop-delta")
	return ok && v == "true"
}

func textDelta(props *ordmap.Map) bool {
	v, ok := props.GetString("Text-delta")
	return ok && v == "true"
}

func hasDeletionRecord(props *ordmap.Map) bool {
	for _, k := range props.Keys() {
		if props.IsDeletionRecord(k) {
			return true
		}
	}
	return false
}
