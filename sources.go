package wandio

import (
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

const (
	// UserSuffix selects the user filter installed by RegisterUserSources.
	UserSuffix = ".user"
	// UserProtocol is the prefix of the user protocol source.
	UserProtocol = "user://"
)

// SuffixFilter is a filter source that wraps any target ending in a fixed
// suffix and rewrites every byte read through it.
type SuffixFilter struct {
	name      string
	suffix    string
	transform func(byte) byte
}

// NewSuffixFilter creates a filter source. transform is applied to each
// byte actually returned by the parent.
func NewSuffixFilter(name, suffix string, transform func(byte) byte) *SuffixFilter {
	return &SuffixFilter{name: name, suffix: suffix, transform: transform}
}

// Decrement is the user filter transform. Its only purpose is to make the
// filter's presence visible in the output.
func Decrement(b byte) byte {
	return b - 1
}

func (s *SuffixFilter) Name() string   { return s.name }
func (s *SuffixFilter) Prefix() string { return "" }

func (s *SuffixFilter) Probe(_ Reader, target string) bool {
	return strings.HasSuffix(target, s.suffix)
}

func (s *SuffixFilter) Open(parent Reader, _ string) (Reader, error) {
	if parent == nil {
		return nil, fmt.Errorf("%w: %s needs a parent", ErrInvalidSource, s.name)
	}
	return &filterReader{parent: parent, transform: s.transform}, nil
}

// filterReader has no Peek, Tell or Seek: positions past the transform are
// not the parent's positions.
type filterReader struct {
	parent    Reader
	transform func(byte) byte

	closed bool
	mu     sync.Mutex
}

func (fr *filterReader) Read(p []byte) (int, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	if fr.closed {
		return 0, fs.ErrClosed
	}
	n, err := fr.parent.Read(p)
	for i := 0; i < n; i++ {
		p[i] = fr.transform(p[i])
	}
	return n, err
}

func (fr *filterReader) Close() error {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	if fr.closed {
		return nil
	}
	fr.closed = true
	return fr.parent.Close()
}

// PrefixProtocol is a protocol source that strips its prefix and hands the
// rest of the target to an Opener.
type PrefixProtocol struct {
	name   string
	prefix string
	opener Opener
}

// NewPrefixProtocol creates a protocol source redirecting to opener.
func NewPrefixProtocol(name, prefix string, opener Opener) *PrefixProtocol {
	return &PrefixProtocol{name: name, prefix: prefix, opener: opener}
}

func (s *PrefixProtocol) Name() string   { return s.name }
func (s *PrefixProtocol) Prefix() string { return s.prefix }

// Probe matches the prefix anywhere in target, not only at its start.
func (s *PrefixProtocol) Probe(_ Reader, target string) bool {
	return strings.Contains(target, s.prefix)
}

// Open ignores parent and opens whatever follows the prefix.
func (s *PrefixProtocol) Open(_ Reader, target string) (Reader, error) {
	i := strings.Index(target, s.prefix)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", target, fs.ErrNotExist)
	}
	return s.opener.Open(target[i+len(s.prefix):])
}

// RegisterUserSources registers the ".user" decrementing filter and the
// "user://" protocol source, in that order.
func RegisterUserSources(reg *Registry, opener Opener) error {
	if err := reg.Register(NewSuffixFilter("user", UserSuffix, Decrement)); err != nil {
		return err
	}
	return reg.Register(NewPrefixProtocol("user-protocol", UserProtocol, opener))
}
