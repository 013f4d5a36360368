// Package normalize implements the --normalize-line-breaks edit
// clause: stripping carriage returns from a property value.
//
// Every '\r' byte is removed unconditionally, not just the '\r' of a
// CRLF pair, so a lone '\r' not followed by '\n' is also stripped.
package normalize

import "golang.org/x/text/transform"

// CRStripper is a transform.Transformer that removes every '\r' byte
// from a stream without buffering the whole value up front.
type CRStripper struct{ transform.NopResetter }

// Transform implements transform.Transformer.
func (CRStripper) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		b := src[nSrc]
		if b == '\r' {
			nSrc++
			continue
		}
		if nDst == len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = b
		nDst++
		nSrc++
	}
	return nDst, nSrc, nil
}

// Bytes strips every '\r' from value, a convenience wrapper around
// transform.Bytes for callers (such as the edit stage) that already
// hold the whole property value in memory.
func Bytes(value []byte) []byte {
	out, _, err := transform.Bytes(CRStripper{}, value)
	if err != nil {
		// CRStripper never reports an error of its own; a failure here
		// can only come from the transform package's internal buffer
		// growth logic, which transform.Bytes already retries.
		return value
	}
	return out
}
