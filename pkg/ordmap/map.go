// Package ordmap provides an insertion-ordered string-keyed map.
//
// Both dump-property headers and user-property blocks need a mapping
// whose iteration order matches first-assignment order: reassigning an
// existing key must not move it, and the serialized form of a header
// depends on that order being preserved exactly. A plain Go map gives
// no iteration-order guarantee at all, so Map pairs a slice (for order)
// with an index (for O(1) lookup).
package ordmap

// Map is an insertion-ordered mapping from string keys to byte-slice
// values. The zero value is ready to use.
type Map struct {
	index   map[string]int
	entries []entry
}

type entry struct {
	key     string
	value   []byte
	deleted bool
}

// New returns an empty Map.
func New() *Map {
	return &Map{index: make(map[string]int)}
}

// Set assigns value to key, preserving key's existing position if it
// is already present.
func (m *Map) Set(key string, value []byte) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].value = value
		m.entries[i].deleted = false
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, entry{key: key, value: value})
}

// SetString is a convenience wrapper around Set for string values. The
// resulting value is never the Go nil slice, even for an empty string,
// so it is never confused with a deletion record (see SetDeletionRecord).
func (m *Map) SetString(key, value string) {
	v := []byte(value)
	if v == nil {
		v = []byte{}
	}
	m.Set(key, v)
}

// SetDeletionRecord assigns key a nil value, representing a user-
// properties deletion record. A nil value is otherwise never produced
// by this package, so IsDeletionRecord can tell the two apart
// unambiguously.
func (m *Map) SetDeletionRecord(key string) {
	m.Set(key, nil)
}

// IsDeletionRecord reports whether key is present with a nil value.
func (m *Map) IsDeletionRecord(key string) bool {
	v, ok := m.Get(key)
	return ok && v == nil
}

// Get returns the value for key and whether it was present (and not
// deleted).
func (m *Map) Get(key string) ([]byte, bool) {
	i, ok := m.index[key]
	if !ok || m.entries[i].deleted {
		return nil, false
	}
	return m.entries[i].value, true
}

// GetString is a convenience wrapper around Get.
func (m *Map) GetString(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return string(v), true
}

// Has reports whether key is present and not deleted.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key and its position. A later Set of the same key
// starts a new, trailing position.
func (m *Map) Delete(key string) {
	i, ok := m.index[key]
	if !ok {
		return
	}
	m.entries[i].deleted = true
	delete(m.index, key)
}

// Keys returns the live keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		if !e.deleted {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Len returns the number of live entries.
func (m *Map) Len() int {
	n := 0
	for _, e := range m.entries {
		if !e.deleted {
			n++
		}
	}
	return n
}

// Each calls fn for every live entry in insertion order. fn may mutate
// the value in place via m.Set without disturbing the iteration.
func (m *Map) Each(fn func(key string, value []byte)) {
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		fn(k, v)
	}
}

// Clone returns a deep copy of m; mutating the result never affects m.
func (m *Map) Clone() *Map {
	cp := New()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		if v == nil {
			cp.Set(k, nil)
			continue
		}
		vc := make([]byte, len(v))
		copy(vc, v)
		cp.Set(k, vc)
	}
	return cp
}
