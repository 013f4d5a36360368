package ordmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_OrderPreservedOnReassignment(t *testing.T) {
	m := New()
	m.SetString("Revision-number", "1")
	m.SetString("Prop-content-length", "10")
	m.SetString("Content-length", "10")

	m.SetString("Prop-content-length", "42") // reassign, position unchanged

	assert.Equal(t, []string{"Revision-number", "Prop-content-length", "Content-length"}, m.Keys())
	v, ok := m.GetString("Prop-content-length")
	require.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestMap_DeleteRemovesKeyAndPosition(t *testing.T) {
	m := New()
	m.SetString("a", "1")
	m.SetString("b", "2")
	m.SetString("c", "3")

	m.Delete("b")

	assert.Equal(t, []string{"a", "c"}, m.Keys())
	assert.False(t, m.Has("b"))
	assert.Equal(t, 2, m.Len())
}

func TestMap_ReinsertionAfterDeleteStartsNewPosition(t *testing.T) {
	m := New()
	m.SetString("a", "1")
	m.SetString("b", "2")
	m.Delete("a")
	m.SetString("a", "3")

	assert.Equal(t, []string{"b", "a"}, m.Keys())
}

func TestMap_DeletionRecordVsAbsent(t *testing.T) {
	m := New()
	m.SetString("svn:log", "hello")
	m.SetDeletionRecord("svn:old-prop")

	assert.False(t, m.IsDeletionRecord("svn:log"))
	assert.True(t, m.IsDeletionRecord("svn:old-prop"))

	_, ok := m.Get("svn:never-set")
	assert.False(t, ok)
}

func TestMap_Clone(t *testing.T) {
	m := New()
	m.SetString("k", "v")
	cp := m.Clone()
	cp.SetString("k", "changed")

	orig, _ := m.GetString("k")
	clone, _ := cp.GetString("k")
	assert.Equal(t, "v", orig)
	assert.Equal(t, "changed", clone)
}

func TestMap_CloneKeepsDeletionRecord(t *testing.T) {
	m := New()
	m.SetString("svn:log", "hello")
	m.SetDeletionRecord("svn:old-prop")

	cp := m.Clone()

	assert.True(t, m.IsDeletionRecord("svn:old-prop"))
	assert.True(t, cp.IsDeletionRecord("svn:old-prop"))
	v, ok := cp.GetString("svn:log")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestMap_EachVisitsInOrder(t *testing.T) {
	m := New()
	m.SetString("x", "1")
	m.SetString("y", "2")

	var seen []string
	m.Each(func(key string, value []byte) {
		seen = append(seen, key+"="+string(value))
	})
	assert.Equal(t, []string{"x=1", "y=2"}, seen)
}
