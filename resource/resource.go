// Package resource implements the shared resource map: named immutable
// float buffers (impulse responses, wavetables) owned by the control
// context and handed to nodes by path during configuration.
package resource

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a path has no entry in the map.
var ErrNotFound = errors.New("resource: not found")

// Map stores named float buffers. Entries are inserted and replaced only
// from the control context; nodes read them during configuration, never
// while rendering, so lookups need no synchronization. Replacing an entry
// does not affect a node that already derived state from the old buffer.
type Map struct {
	buffers map[string][]float32
}

// NewMap returns an empty resource map.
func NewMap() *Map {
	return &Map{buffers: make(map[string][]float32)}
}

// Has reports whether path has an entry.
func (m *Map) Has(path string) bool {
	_, ok := m.buffers[path]
	return ok
}

// Get returns the buffer stored at path. The returned slice is shared and
// must be treated as read-only; nodes copy or derive from it.
func (m *Map) Get(path string) ([]float32, error) {
	buf, ok := m.buffers[path]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return buf, nil
}

// Put inserts or replaces the entry at path with a copy of data.
func (m *Map) Put(path string, data []float32) {
	buf := make([]float32, len(data))
	copy(buf, data)
	m.buffers[path] = buf
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.buffers)
}
