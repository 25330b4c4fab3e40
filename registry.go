package wandio

import (
	"fmt"
	"strings"
	"sync"
)

// Source describes one pluggable io source.
//
// A source with a non-empty Prefix is a protocol source: it claims every
// target starting with the prefix and is opened with a nil parent. A source
// with an empty Prefix is a filter: Open receives the current chain and the
// returned Reader owns it.
type Source interface {
	// Name is a label used for diagnostics and duplicate detection.
	Name() string

	// Prefix is the protocol prefix, or "" for filter sources.
	Prefix() string

	// Probe reports whether the source wants target. It must not read from
	// or otherwise change parent.
	Probe(parent Reader, target string) bool

	// Open builds a new chain node for target.
	Open(parent Reader, target string) (Reader, error)
}

// IsProtocol reports whether src is a protocol source.
func IsProtocol(src Source) bool {
	return src.Prefix() != ""
}

// Registry is an ordered collection of sources. Registration order is probe
// priority. Sources cannot be removed.
type Registry struct {
	sources []Source
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends src. It fails with ErrInvalidSource for a nil source or
// an empty name, and with ErrSourceExists when the name is taken or the
// protocol prefix overlaps a registered one. A failed call leaves the
// registry unchanged.
func (r *Registry) Register(src Source) error {
	if src == nil {
		return fmt.Errorf("%w: nil source", ErrInvalidSource)
	}
	name := src.Name()
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSource)
	}
	prefix := src.Prefix()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sources {
		if existing.Name() == name {
			return fmt.Errorf("%w: name %q", ErrSourceExists, name)
		}
		other := existing.Prefix()
		if prefix == "" || other == "" {
			continue
		}
		if strings.HasPrefix(prefix, other) || strings.HasPrefix(other, prefix) {
			return fmt.Errorf("%w: prefix %q overlaps %q (%s)", ErrSourceExists, prefix, other, existing.Name())
		}
	}

	r.sources = append(r.sources, src)
	return nil
}

// MustRegister is like Register but panics on failure.
func (r *Registry) MustRegister(src Source) {
	if err := r.Register(src); err != nil {
		panic(err)
	}
}

// Sources returns the registered sources in priority order.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Lookup returns the source registered under name.
func (r *Registry) Lookup(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, src := range r.sources {
		if src.Name() == name {
			return src, true
		}
	}
	return nil, false
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
