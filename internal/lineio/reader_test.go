package lineio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_BasicAdvance(t *testing.T) {
	r := New(strings.NewReader("one\ntwo\nthree"))

	require.NoError(t, r.Advance())
	assert.Equal(t, "one\n", string(r.Line()))
	assert.Equal(t, int64(0), r.Start())
	assert.Equal(t, int64(4), r.Stop())
	assert.Equal(t, 1, r.LineNumber())
	assert.False(t, r.EOF())

	require.NoError(t, r.Advance())
	assert.Equal(t, "two\n", string(r.Line()))
	assert.Equal(t, int64(4), r.Start())
	assert.Equal(t, int64(8), r.Stop())

	require.NoError(t, r.Advance())
	assert.Equal(t, "three", string(r.Line())) // unterminated trailing segment
	assert.False(t, r.EOF())

	require.NoError(t, r.Advance())
	assert.True(t, r.EOF())
	assert.Empty(t, r.Line())
	assert.Equal(t, r.Start(), r.Stop())
}

func TestReader_EmptyInput(t *testing.T) {
	r := New(strings.NewReader(""))
	require.NoError(t, r.Advance())
	assert.True(t, r.EOF())
	assert.Equal(t, int64(0), r.Start())
	assert.Equal(t, int64(0), r.Stop())
}

func TestReader_ClosesUnderlyingSourceOnce(t *testing.T) {
	cr := &countingCloser{Reader: strings.NewReader("a\n")}
	r := New(cr)

	require.NoError(t, r.Advance())
	require.NoError(t, r.Advance()) // hits EOF, closes
	require.NoError(t, r.Advance()) // already EOF, no-op
	assert.Equal(t, 1, cr.closes)
}

func TestReader_Snapshot(t *testing.T) {
	r := New(strings.NewReader("Revision-number: 1\n"))
	require.NoError(t, r.Advance())
	snap := r.Snapshot()
	assert.Contains(t, snap, "Revision-number: 1")
	assert.Contains(t, snap, "line[1]")
}

type countingCloser struct {
	*strings.Reader
	closes int
}

func (c *countingCloser) Close() error {
	c.closes++
	return nil
}
