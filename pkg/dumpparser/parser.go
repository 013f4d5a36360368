// Package dumpparser implements a pull parser for the SVN dump file
// format: a strict, generator-style reader of the dump grammar that
// yields one event.Event per call to Next, consuming memory bounded by
// a single header window plus a single text block rather than the
// whole file.
//
// Go has no native generator/coroutine primitive suited to a strictly
// single-threaded pipeline, so Parser expresses the recursive grammar
// as an explicit stack of pending continuations: each step either
// yields an event or pushes the next steps and loops immediately. This
// keeps the parser synchronous and its memory bounded to the current
// nesting depth (dumpfile → revision → node), which is constant
// regardless of file size.
package dumpparser

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/bsmannschott/revisionist/internal/dumperr"
	"github.com/bsmannschott/revisionist/internal/lineio"
	"github.com/bsmannschott/revisionist/pkg/event"
	"github.com/bsmannschott/revisionist/pkg/ordmap"
)

var dumpPropertyRe = regexp.MustCompile(`^([-A-Za-z0-9_]+): (.*)$`)

// frame is one pending step of the parse. It returns the event to
// yield (when ok is true), or pushes further frames onto the parser's
// stack and returns ok=false to continue without yielding.
type frame func() (event.Event, bool, error)

// Parser is a pull parser over an SVN dump file stream.
type Parser struct {
	lr      *lineio.Reader
	version uint32
	stack   []frame
}

// New constructs a Parser reading from r. It performs the initial
// line read, so I/O errors on an unreadable source surface
// immediately rather than on the first call to Next. An empty source
// is not an error here; the first call to Next reports it.
func New(r io.Reader) (*Parser, error) {
	lr := lineio.New(r)
	if err := lr.Advance(); err != nil {
		return nil, fmt.Errorf("dumpparser: reading first line: %w", err)
	}
	p := &Parser{lr: lr}
	// Bottom of stack to top: EndDumpfile runs once the revisions loop
	// falls through with no more matches; BeginDumpfile runs first.
	p.stack = []frame{p.frameEndDumpfile, p.frameRevisionsLoop, p.frameBeginDumpfile}
	return p, nil
}

// Next returns the next parse event, or io.EOF once EndDumpfile has
// been returned and consumed.
func (p *Parser) Next() (event.Event, error) {
	for {
		if len(p.stack) == 0 {
			return event.Event{}, io.EOF
		}
		n := len(p.stack)
		f := p.stack[n-1]
		p.stack = p.stack[:n-1]

		ev, ok, err := f()
		if err != nil {
			return event.Event{}, err
		}
		if ok {
			return ev, nil
		}
	}
}

func (p *Parser) push(f frame) { p.stack = append(p.stack, f) }

// Version returns the dump format version once BeginDumpfile has been
// observed; 0 before that.
func (p *Parser) Version() uint32 { return p.version }

// ------------------------------------------------------------------
// dumpfile level
// ------------------------------------------------------------------

func (p *Parser) frameBeginDumpfile() (event.Event, bool, error) {
	if err := p.skipBlankLines(); err != nil {
		return event.Event{}, false, err
	}
	versionStr, err := p.parseDumpProperty("SVN-fs-dump-format-version", nil)
	if err != nil {
		return event.Event{}, false, err
	}
	version, convErr := strconv.Atoi(versionStr)
	if convErr != nil || version < 2 || version > 3 {
		return event.Event{}, false, fmt.Errorf(
			"revisionist: dump format version %q: %w", versionStr, dumperr.ErrVersionUnsupported)
	}
	p.version = uint32(version)

	if err := p.skipBlankLines(); err != nil {
		return event.Event{}, false, err
	}

	var uuid *string
	if p.matchDumpPropertyName("UUID") {
		u, err := p.parseDumpProperty("UUID", nil)
		if err != nil {
			return event.Event{}, false, err
		}
		uuid = &u
	}

	return event.BeginDumpfileEvent(p.version, uuid), true, nil
}

func (p *Parser) frameEndDumpfile() (event.Event, bool, error) {
	if !p.lr.EOF() {
		return event.Event{}, false, p.formatErr("unexpected trailing input after EndDumpfile")
	}
	return event.EndDumpfileEvent(), true, nil
}

func (p *Parser) frameRevisionsLoop() (event.Event, bool, error) {
	if p.matchBlankLine() {
		if err := p.lr.Advance(); err != nil {
			return event.Event{}, false, err
		}
		p.push(p.frameRevisionsLoop)
		return event.BlankLineEvent(), true, nil
	}
	if p.matchDumpPropertyName("Revision-number") {
		p.push(p.frameRevisionsLoop)
		p.push(p.frameParseRevisionHeader)
		return event.Event{}, false, nil
	}
	return event.Event{}, false, nil
}

// ------------------------------------------------------------------
// revision level
// ------------------------------------------------------------------

func (p *Parser) frameParseRevisionHeader() (event.Event, bool, error) {
	props := ordmap.New()
	if _, err := p.parseDumpProperty("Revision-number", props); err != nil {
		return event.Event{}, false, err
	}
	plenStr, err := p.parseDumpProperty("Prop-content-length", props)
	if err != nil {
		return event.Event{}, false, err
	}
	clenStr, err := p.parseDumpProperty("Content-length", props)
	if err != nil {
		return event.Event{}, false, err
	}
	plen, err1 := strconv.Atoi(plenStr)
	clen, err2 := strconv.Atoi(clenStr)
	if err1 != nil || err2 != nil {
		return event.Event{}, false, p.formatErr("revision header: non-numeric length field")
	}
	if clen != plen {
		return event.Event{}, false, p.formatErrf(
			"revision Content-length (%d) must equal Prop-content-length (%d); a revision never has text content", clen, plen)
	}

	p.push(p.makeRevisionBodyFrame(plen))
	return event.BeginRevisionEvent(props), true, nil
}

func (p *Parser) makeRevisionBodyFrame(plen int) frame {
	return func() (event.Event, bool, error) {
		if p.matchBlankLine() {
			if err := p.lr.Advance(); err != nil {
				return event.Event{}, false, err
			}
			p.push(p.makeRevisionUserPropsFrame(plen))
			return event.BlankLineEvent(), true, nil
		}
		p.push(p.makeRevisionUserPropsFrame(plen))
		return event.Event{}, false, nil
	}
}

func (p *Parser) makeRevisionUserPropsFrame(plen int) frame {
	return func() (event.Event, bool, error) {
		if plen > 0 {
			props, err := p.parseUserPropertiesBlock(plen, false)
			if err != nil {
				return event.Event{}, false, err
			}
			p.push(p.frameRevisionTrailingBlanks)
			return event.UserPropertiesEvent(props), true, nil
		}
		p.push(p.frameRevisionTrailingBlanks)
		return event.Event{}, false, nil
	}
}

func (p *Parser) frameRevisionTrailingBlanks() (event.Event, bool, error) {
	if p.matchBlankLine() {
		if err := p.lr.Advance(); err != nil {
			return event.Event{}, false, err
		}
		p.push(p.frameRevisionTrailingBlanks)
		return event.BlankLineEvent(), true, nil
	}
	p.push(p.frameEndRevisionNodes)
	p.push(p.frameNodesLoop)
	return event.EndRevisionHeaderEvent(), true, nil
}

func (p *Parser) frameNodesLoop() (event.Event, bool, error) {
	if p.matchDumpPropertyName("Node-path") {
		p.push(p.frameNodesLoop)
		p.push(p.frameParseNodeHeader)
		return event.Event{}, false, nil
	}
	return event.Event{}, false, nil
}

func (p *Parser) frameEndRevisionNodes() (event.Event, bool, error) {
	return event.EndRevisionNodesEvent(), true, nil
}

// ------------------------------------------------------------------
// node level
// ------------------------------------------------------------------

func (p *Parser) frameParseNodeHeader() (event.Event, bool, error) {
	props := ordmap.New()
	if _, err := p.parseDumpProperty("Node-path", props); err != nil {
		return event.Event{}, false, err
	}

	var tlen, plen, clen *int
	for p.matchAnyDumpProperty() {
		name, value, err := p.parseAnyDumpProperty(props)
		if err != nil {
			return event.Event{}, false, err
		}
		n, convErr := strconv.Atoi(value)
		switch name {
		case "Text-content-length":
			if convErr != nil {
				return event.Event{}, false, p.formatErr("Text-content-length: not a number")
			}
			tlen = &n
		case "Prop-content-length":
			if convErr != nil {
				return event.Event{}, false, p.formatErr("Prop-content-length: not a number")
			}
			plen = &n
		case "Content-length":
			if convErr != nil {
				return event.Event{}, false, p.formatErr("Content-length: not a number")
			}
			clen = &n
		}
	}

	propDelta := propTrue(props, "Prop-delta")
	textDelta := propTrue(props, "Text-delta")
	if propDelta && p.version < 3 {
		return event.Event{}, false, p.versionFeatureErr("Prop-delta")
	}
	if textDelta && p.version < 3 {
		return event.Event{}, false, p.versionFeatureErr("Text-delta")
	}

	plenV, clenV := derefOr(plen, 0), derefOr(clen, 0)
	var tlenV int
	if tlen != nil {
		tlenV = *tlen
		if tlenV != clenV-plenV {
			return event.Event{}, false, p.formatErrf(
				"node %q: Text-content-length (%d) does not equal Content-length (%d) - Prop-content-length (%d)",
				nodePath(props), tlenV, clenV, plenV)
		}
	} else {
		tlenV = clenV - plenV
	}

	textMD5, _ := props.GetString("Text-content-md5")
	p.push(p.makeNodeBodyFrame(plenV, tlenV, propDelta, textDelta, textMD5))
	return event.BeginNodeEvent(props), true, nil
}

func nodePath(props *ordmap.Map) string {
	v, _ := props.GetString("Node-path")
	return v
}

func derefOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func propTrue(props *ordmap.Map, key string) bool {
	v, ok := props.GetString(key)
	return ok && v == "true"
}

func (p *Parser) makeNodeBodyFrame(plen, tlen int, propDelta, textDelta bool, textMD5 string) frame {
	return func() (event.Event, bool, error) {
		if plen > 0 || tlen > 0 {
			if !p.matchBlankLine() {
				return event.Event{}, false, p.formatErr("expected blank line separating node header from its body")
			}
			if err := p.lr.Advance(); err != nil {
				return event.Event{}, false, err
			}
			p.push(p.makeNodeAfterSeparatorFrame(plen, tlen, propDelta, textDelta, textMD5))
			return event.BlankLineEvent(), true, nil
		}
		p.push(p.makeNodeAfterSeparatorFrame(plen, tlen, propDelta, textDelta, textMD5))
		return event.Event{}, false, nil
	}
}

func (p *Parser) makeNodeAfterSeparatorFrame(plen, tlen int, propDelta, textDelta bool, textMD5 string) frame {
	return func() (event.Event, bool, error) {
		if plen > 0 {
			props, err := p.parseUserPropertiesBlock(plen, propDelta)
			if err != nil {
				return event.Event{}, false, err
			}
			p.push(p.makeNodeTextFrame(tlen, textDelta, textMD5))
			return event.UserPropertiesEvent(props), true, nil
		}
		p.push(p.makeNodeTextFrame(tlen, textDelta, textMD5))
		return event.Event{}, false, nil
	}
}

func (p *Parser) makeNodeTextFrame(tlen int, textDelta bool, textMD5 string) frame {
	return func() (event.Event, bool, error) {
		if tlen > 0 {
			text, err := p.getBytes(tlen)
			if err != nil {
				return event.Event{}, false, err
			}
			if !textDelta && textMD5 != "" {
				sum := md5.Sum(text)
				got := hex.EncodeToString(sum[:])
				if got != textMD5 {
					return event.Event{}, false, fmt.Errorf(
						"revisionist: expected md5 %s, computed %s: %w\n%s",
						textMD5, got, dumperr.ErrChecksumMismatch, p.lr.Snapshot())
				}
			}
			p.push(p.frameNodeTrailingBlanks)
			p.push(p.frameNodeSyntheticNewline)
			return event.TextContentEvent(text), true, nil
		}
		p.push(p.frameNodeTrailingBlanks)
		return event.Event{}, false, nil
	}
}

// frameNodeSyntheticNewline reports, as a BlankLine event, the single
// trailing newline that terminates text content. getBytes has already
// consumed that byte; there is no line left to advance past here.
func (p *Parser) frameNodeSyntheticNewline() (event.Event, bool, error) {
	return event.BlankLineEvent(), true, nil
}

func (p *Parser) frameNodeTrailingBlanks() (event.Event, bool, error) {
	if p.matchBlankLine() {
		if err := p.lr.Advance(); err != nil {
			return event.Event{}, false, err
		}
		p.push(p.frameNodeTrailingBlanks)
		return event.BlankLineEvent(), true, nil
	}
	return event.EndNodeEvent(), true, nil
}

// ------------------------------------------------------------------
// user-properties block
// ------------------------------------------------------------------

func (p *Parser) parseUserPropertiesBlock(plen int, propDelta bool) (*ordmap.Map, error) {
	start := p.lr.Start()
	props := ordmap.New()

	for !p.matchPropsEnd() {
		switch {
		case p.matchPropEntryPrefix('K'):
			key, err := p.readPropertyEntry('K')
			if err != nil {
				return nil, err
			}
			if !p.matchPropEntryPrefix('V') {
				return nil, p.formatErrf("property %q: expected V line after K line", key)
			}
			value, err := p.readPropertyEntry('V')
			if err != nil {
				return nil, err
			}
			props.Set(key, []byte(value))
		case p.matchPropEntryPrefix('D'):
			if !propDelta {
				return nil, p.formatErr(
					"property deletion ('D' record) is only legal when the containing header declares Prop-delta: true")
			}
			key, err := p.readPropertyEntry('D')
			if err != nil {
				return nil, err
			}
			props.SetDeletionRecord(key)
		default:
			return nil, p.formatErr("expected a property entry (K/D) or PROPS-END")
		}
	}
	if err := p.lr.Advance(); err != nil { // consume PROPS-END line
		return nil, err
	}
	stop := p.lr.Start()
	if int(stop-start) != plen {
		return nil, p.formatErrf(
			"user-properties block is %d bytes, but Prop-content-length declared %d", stop-start, plen)
	}
	return props, nil
}

func (p *Parser) matchPropsEnd() bool {
	return bytes.Equal(p.lr.Line(), []byte("PROPS-END\n"))
}

func (p *Parser) matchPropEntryPrefix(ch byte) bool {
	line := p.lr.Line()
	return len(line) >= 2 && line[0] == ch && line[1] == ' '
}

// readPropertyEntry parses a "<ch> <n>\n" header line, already known
// to start with ch, then reads exactly n content bytes plus their
// terminating newline.
func (p *Parser) readPropertyEntry(ch byte) (string, error) {
	line := p.lr.Line()
	nStr := string(bytes.TrimSuffix(line[2:], []byte("\n")))
	n, err := strconv.Atoi(nStr)
	if err != nil {
		return "", p.formatErrf("malformed %c-record length %q", ch, nStr)
	}
	if err := p.lr.Advance(); err != nil {
		return "", err
	}
	content, err := p.getBytes(n)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// ------------------------------------------------------------------
// low-level helpers
// ------------------------------------------------------------------

// getBytes returns the next n bytes of input, consuming (but not
// returning) one additional trailing newline that terminates the
// value.
func (p *Parser) getBytes(n int) ([]byte, error) {
	var buf []byte
	for n >= len(buf) && !p.lr.EOF() {
		buf = append(buf, p.lr.Line()...)
		if err := p.lr.Advance(); err != nil {
			return nil, err
		}
	}
	if len(buf) != n+1 || buf[len(buf)-1] != '\n' {
		return nil, p.formatErr("didn't find expected newline terminator")
	}
	return buf[:len(buf)-1], nil
}

func (p *Parser) matchBlankLine() bool {
	return bytes.Equal(p.lr.Line(), []byte("\n"))
}

func (p *Parser) matchDumpPropertyName(name string) bool {
	return bytes.HasPrefix(p.lr.Line(), []byte(name+": "))
}

func (p *Parser) matchAnyDumpProperty() bool {
	if p.lr.EOF() {
		return false
	}
	return dumpPropertyRe.Match(bytes.TrimSuffix(p.lr.Line(), []byte("\n")))
}

// parseDumpProperty parses the current line as "<name>: <value>",
// requiring name == expectedName when expectedName is non-empty,
// storing the result into store (when non-nil), and advancing.
func (p *Parser) parseDumpProperty(expectedName string, store *ordmap.Map) (string, error) {
	return p.parseDumpPropertyGeneric(expectedName, store)
}

func (p *Parser) parseAnyDumpProperty(store *ordmap.Map) (name, value string, err error) {
	if p.lr.EOF() {
		return "", "", p.formatErr("expected a dump property, found end of input")
	}
	trimmed := bytes.TrimSuffix(p.lr.Line(), []byte("\n"))
	m := dumpPropertyRe.FindSubmatch(trimmed)
	if m == nil {
		return "", "", p.formatErr("expected a dump property")
	}
	name, value = string(m[1]), string(m[2])
	if store != nil {
		store.SetString(name, value)
	}
	if err := p.lr.Advance(); err != nil {
		return "", "", err
	}
	return name, value, nil
}

func (p *Parser) parseDumpPropertyGeneric(expectedName string, store *ordmap.Map) (string, error) {
	if p.lr.EOF() {
		want := expectedName
		if want == "" {
			want = "a dump property"
		}
		return "", p.formatErrf("expected %s, found end of input", want)
	}
	trimmed := bytes.TrimSuffix(p.lr.Line(), []byte("\n"))
	m := dumpPropertyRe.FindSubmatch(trimmed)
	if m == nil {
		return "", p.formatErr("expected a dump property (\"Name: value\")")
	}
	name, value := string(m[1]), string(m[2])
	if expectedName != "" && name != expectedName {
		return "", p.formatErrf("expected property %s, found %s", expectedName, name)
	}
	if store != nil {
		store.SetString(name, value)
	}
	if err := p.lr.Advance(); err != nil {
		return "", err
	}
	return value, nil
}

func (p *Parser) skipBlankLines() error {
	for p.matchBlankLine() {
		if err := p.lr.Advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) formatErr(msg string) error {
	return dumperr.NewFormatError(msg, p.lr.Snapshot())
}

func (p *Parser) formatErrf(format string, args ...interface{}) error {
	return dumperr.NewFormatError(fmt.Sprintf(format, args...), p.lr.Snapshot())
}

func (p *Parser) versionFeatureErr(feature string) error {
	return fmt.Errorf("revisionist: %s used in format-%d dumpfile: %w\n%s",
		feature, p.version, dumperr.ErrVersionFeature, p.lr.Snapshot())
}
