package wandio

import (
	"fmt"
	"strings"
)

// WriteOptions selects how a write chain is built.
type WriteOptions struct {
	// Method is the codec; MethodNone (or "") writes plain bytes.
	Method Method

	// Level is 0..MaxLevel. 0 disables compression for every method.
	Level int

	// Buffered batches writes to the base sink.
	Buffered bool

	// BufferSize of the batching buffer (default: DefaultReadBufferSize).
	BufferSize int
}

// Validate checks the method and level without opening anything.
func (o WriteOptions) Validate() error {
	if o.Level < 0 || o.Level > MaxLevel {
		return fmt.Errorf("%w: %d (want 0-%d)", ErrInvalidLevel, o.Level, MaxLevel)
	}
	if o.Method == "" {
		return nil
	}
	_, err := LookupMethod(string(o.Method))
	return err
}

// Resolver turns target names into handle chains.
type Resolver struct {
	registry *Registry
	opener   Opener
}

// NewResolver creates a resolver over a populated registry. reg may be nil,
// in which case only base opens happen.
func NewResolver(reg *Registry, opener Opener) *Resolver {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Resolver{registry: reg, opener: opener}
}

// Registry returns the registry the resolver consults.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Open resolves target into a read chain and returns its outermost node.
//
// A protocol source whose prefix starts target performs the whole open and
// nothing else is consulted. Otherwise the base opener opens target, then
// filter sources are probed in registration order, each wrapping the chain
// at most once, until none matches.
func (r *Resolver) Open(target string) (Reader, error) {
	sources := r.registry.Sources()

	for _, src := range sources {
		if !IsProtocol(src) || !strings.HasPrefix(target, src.Prefix()) {
			continue
		}
		h, err := src.Open(nil, target)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: source %s: %w", ErrOpen, target, src.Name(), err)
		}
		if h == nil {
			return nil, fmt.Errorf("%w: %s: source %s returned no handle", ErrOpen, target, src.Name())
		}
		return h, nil
	}

	cur, err := r.opener.Open(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, target, err)
	}

	applied := make([]bool, len(sources))
	for {
		next, idx, err := r.wrapOnce(sources, applied, cur, target)
		if err != nil {
			cur.Close()
			return nil, err
		}
		if next == nil {
			return cur, nil
		}
		applied[idx] = true
		cur = next
	}
}

// wrapOnce applies the first unapplied filter whose probe accepts cur. It
// returns a nil Reader when nothing matched.
func (r *Resolver) wrapOnce(sources []Source, applied []bool, cur Reader, target string) (Reader, int, error) {
	for i, src := range sources {
		if applied[i] || IsProtocol(src) {
			continue
		}
		if !src.Probe(cur, target) {
			continue
		}
		next, err := src.Open(cur, target)
		if err != nil {
			return nil, i, fmt.Errorf("%w: %s: source %s: %w", ErrOpen, target, src.Name(), err)
		}
		if next == nil {
			return nil, i, fmt.Errorf("%w: %s: source %s returned no handle", ErrOpen, target, src.Name())
		}
		return next, i, nil
	}
	return nil, -1, nil
}

// Create resolves target into a write chain. No source is probed: the
// codec comes from opts alone.
func (r *Resolver) Create(target string, opts WriteOptions) (Writer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m := opts.Method
	if m != "" {
		m, _ = LookupMethod(string(m))
	}

	if m.Compresses(opts.Level) && !m.Available() {
		return nil, fmt.Errorf("%w: %s has no codec", ErrUnsupportedMethod, m)
	}

	w, err := r.opener.Create(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, target, err)
	}

	if opts.Buffered {
		size := opts.BufferSize
		if size <= 0 {
			size = DefaultReadBufferSize
		}
		w = newBufferedWriter(w, size)
	}

	if !m.Compresses(opts.Level) {
		return w, nil
	}

	cw, err := newCompressWriter(w, m, opts.Level)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, target, err)
	}
	return cw, nil
}
