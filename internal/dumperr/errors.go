// Package dumperr defines the error kinds surfaced by the dump-file
// pipeline: plain sentinels for conditions with no extra payload, and
// a richer FormatError for conditions that benefit from a reader
// position snapshot.
package dumperr

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionUnsupported: SVN-fs-dump-format-version outside {2,3}.
	ErrVersionUnsupported = errors.New("revisionist: unsupported dump format version")
	// ErrVersionFeature: Prop-delta/Text-delta/deletion used in a
	// format-2 stream.
	ErrVersionFeature = errors.New("revisionist: delta feature requires format version 3")
	// ErrChecksumMismatch: Text-content-md5 does not match computed MD5.
	ErrChecksumMismatch = errors.New("revisionist: text content MD5 mismatch")
	// ErrEditConsistency: more than one UserProperties event observed
	// in a single header window.
	ErrEditConsistency = errors.New("revisionist: multiple UserProperties events in one header window")
)

// FormatError reports a structural violation of the dump grammar,
// optionally with a reader snapshot.
type FormatError struct {
	Msg      string
	Snapshot string
}

func (e *FormatError) Error() string {
	if e.Snapshot == "" {
		return "revisionist: " + e.Msg
	}
	return fmt.Sprintf("revisionist: %s\n%s", e.Msg, e.Snapshot)
}

// NewFormatError builds a FormatError, attaching snapshot when
// non-empty.
func NewFormatError(msg, snapshot string) *FormatError {
	return &FormatError{Msg: msg, Snapshot: snapshot}
}
