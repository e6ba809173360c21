package generator

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps format names to generators. The default formats are
// registered at construction; callers may add their own.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates a registry with the built-in formats registered:
// alphanumeric, numeric, hex, and uuid.
func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]Generator)}
	r.Register("alphanumeric", NewAlphanumericGenerator())
	r.Register("numeric", NewNumericGenerator())
	r.Register("hex", NewHexGenerator())
	r.Register("uuid", NewUUIDGenerator())
	return r
}

// Register adds or replaces a generator under the given format name.
func (r *Registry) Register(format string, g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[format] = g
}

// Get returns the generator for a format name.
func (r *Registry) Get(format string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.generators[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, format)
	}
	return g, nil
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
