package editor

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsmannschott/revisionist/internal/dumperr"
	"github.com/bsmannschott/revisionist/pkg/dumpparser"
	"github.com/bsmannschott/revisionist/pkg/dumpwriter"
	"github.com/bsmannschott/revisionist/pkg/event"
	"github.com/bsmannschott/revisionist/pkg/ordmap"
)

const nodeFixture = "SVN-fs-dump-format-version: 2\n" +
	"\n" +
	"Revision-number: 1\n" +
	"Prop-content-length: 26\n" +
	"Content-length: 26\n" +
	"\n" +
	"K 3\n" +
	"foo\n" +
	"V 3\n" +
	"bar\n" +
	"PROPS-END\n" +
	"\n" +
	"Node-path: test.txt\n" +
	"Node-kind: file\n" +
	"Node-action: add\n" +
	"Text-content-length: 5\n" +
	"Text-content-md5: 5d41402abc4b2a76b9719d911017c592\n" +
	"Content-length: 5\n" +
	"\n" +
	"hello\n" +
	"\n"

// run feeds src through EditProperties(edit) and a writer, returning
// the re-serialized bytes.
func run(t *testing.T, src string, edit EditFunc) string {
	t.Helper()
	p, err := dumpparser.New(strings.NewReader(src))
	require.NoError(t, err)

	events := EditProperties(p, edit)
	var out bytes.Buffer
	w := dumpwriter.New(&out)
	for {
		evt, err := events.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.NoError(t, w.WriteEvent(evt))
	}
	require.NoError(t, w.Close())
	return out.String()
}

func TestEditProperties_RecomputesLengthsAfterMutation(t *testing.T) {
	out := run(t, nodeFixture, func(props *ordmap.Map) error {
		if v, ok := props.GetString("foo"); ok && v == "bar" {
			props.SetString("foo", "bar-extended")
		}
		return nil
	})

	assert.Contains(t, out, "Prop-content-length: 36\n")
	assert.Contains(t, out, "Content-length: 36\n")
	assert.Contains(t, out, "V 12\nbar-extended\n")
	// The node's own header and text content are untouched.
	assert.Contains(t, out, "Node-path: test.txt\n")
	assert.Contains(t, out, "Content-length: 5\n")
	assert.Contains(t, out, "hello\n")
}

func TestEditProperties_NoOpEditRoundTrips(t *testing.T) {
	out := run(t, nodeFixture, func(props *ordmap.Map) error { return nil })
	assert.Equal(t, nodeFixture, out)
}

func TestEditProperties_EditErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	p, err := dumpparser.New(strings.NewReader(nodeFixture))
	require.NoError(t, err)

	events := EditProperties(p, func(props *ordmap.Map) error { return boom })
	// BeginDumpfile passes through unedited; the edit first runs on the
	// BeginRevision header that follows it.
	var lastErr error
	for {
		_, err := events.Next()
		if err != nil {
			lastErr = err
			break
		}
	}
	require.Error(t, lastErr)
	assert.ErrorIs(t, lastErr, boom)
}

// fakeSource replays a fixed event slice, used to construct malformed
// streams the real parser would never produce (two UserProperties
// events in a single header window).
type fakeSource struct {
	events []event.Event
	i      int
}

func (f *fakeSource) Next() (event.Event, error) {
	if f.i >= len(f.events) {
		return event.Event{}, io.EOF
	}
	evt := f.events[f.i]
	f.i++
	return evt, nil
}

func TestEditProperties_MultipleUserPropertiesIsEditConsistencyError(t *testing.T) {
	propsA := ordmap.New()
	propsA.SetString("a", "1")
	propsB := ordmap.New()
	propsB.SetString("b", "2")
	header := ordmap.New()
	header.SetString("Node-path", "x.txt")

	fake := &fakeSource{events: []event.Event{
		event.BeginNodeEvent(header),
		event.UserPropertiesEvent(propsA),
		event.UserPropertiesEvent(propsB),
		event.EndNodeEvent(),
	}}

	events := EditProperties(fake, func(*ordmap.Map) error { return nil })
	_, err := events.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, dumperr.ErrEditConsistency)
}

func TestEchoProperties_WritesNamedValues(t *testing.T) {
	p, err := dumpparser.New(strings.NewReader(nodeFixture))
	require.NoError(t, err)

	var buf bytes.Buffer
	events := EchoProperties(p, []string{"foo", "Node-path"}, &buf)
	for {
		_, err := events.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Contains(t, buf.String(), "foo: bar\n")
	assert.Contains(t, buf.String(), "Node-path: test.txt\n")
}

func TestChain_ComposesStagesInOrder(t *testing.T) {
	p, err := dumpparser.New(strings.NewReader(nodeFixture))
	require.NoError(t, err)

	var buf bytes.Buffer
	events := Chain(p,
		func(s event.Source) event.Source {
			return EditProperties(s, func(props *ordmap.Map) error {
				if v, ok := props.GetString("foo"); ok && v == "bar" {
					props.SetString("foo", "baz")
				}
				return nil
			})
		},
		func(s event.Source) event.Source {
			return EchoProperties(s, []string{"foo"}, &buf)
		},
	)

	for {
		_, err := events.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Contains(t, buf.String(), "foo: baz\n")
}
