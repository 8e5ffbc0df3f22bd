package format

import (
	"sort"
	"sync"
)

// Well-known Meta entry names.
const (
	// MetaTitle is the display title of the described entity.
	MetaTitle = "title"
	// MetaDescription is a human-readable description. Decoder modules
	// use it to name the codec implementation they selected.
	MetaDescription = "description"
	// MetaCodec is the human-readable codec name.
	MetaCodec = "codec"
)

// Meta is a small string-keyed metadata container. Decoder modules
// attach one to the decoder they open to describe themselves; the
// decoder owner releases it on Clean. Safe for concurrent use.
type Meta struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMeta returns an empty metadata container.
func NewMeta() *Meta {
	return &Meta{values: make(map[string]string)}
}

// Set stores a value under a name, replacing any previous value.
func (m *Meta) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
}

// Get returns the value stored under a name, or the empty string when
// none is set.
func (m *Meta) Get(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[name]
}

// Names returns the stored entry names in sorted order.
func (m *Meta) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.values))
	for name := range m.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of stored entries.
func (m *Meta) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
