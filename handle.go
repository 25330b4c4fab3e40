package wandio

import (
	"errors"
	"io"
)

var (
	ErrInvalidSource     = errors.New("wandio: invalid io source")
	ErrSourceExists      = errors.New("wandio: io source already registered")
	ErrOpen              = errors.New("wandio: open failed")
	ErrUnsupported       = errors.New("wandio: operation not supported on this chain")
	ErrUnsupportedMethod = errors.New("wandio: unsupported compression method")
	ErrInvalidLevel      = errors.New("wandio: invalid compression level")
	ErrCorruptedData     = errors.New("wandio: corrupted compressed data")
)

// Reader is one node of a read chain. Closing a node closes every node
// beneath it.
type Reader interface {
	io.Reader
	io.Closer
}

// Writer is one node of a write chain.
type Writer interface {
	io.Writer
	io.Closer
}

// Peeker is implemented by readers that can return upcoming bytes without
// consuming them.
type Peeker interface {
	Peek(n int) ([]byte, error)
}

// Teller is implemented by readers that track their stream position.
type Teller interface {
	Tell() (int64, error)
}

// Capability names an optional Reader operation.
type Capability int

const (
	CapPeek Capability = iota + 1
	CapTell
	CapSeek
)

func (c Capability) String() string {
	switch c {
	case CapPeek:
		return "peek"
	case CapTell:
		return "tell"
	case CapSeek:
		return "seek"
	default:
		return "unknown"
	}
}

// capabilityReporter lets a node narrow the capabilities its method set
// suggests, e.g. a file reader that loses Seek once a codec is attached.
type capabilityReporter interface {
	Supports(Capability) bool
}

// Supports reports whether the outermost node of r provides c. It never
// looks at parents: a decorator that hides a capability hides it for the
// whole chain.
func Supports(r Reader, c Capability) bool {
	if r == nil {
		return false
	}
	if cr, ok := r.(capabilityReporter); ok {
		return cr.Supports(c)
	}
	switch c {
	case CapPeek:
		_, ok := r.(Peeker)
		return ok
	case CapTell:
		_, ok := r.(Teller)
		return ok
	case CapSeek:
		_, ok := r.(io.Seeker)
		return ok
	}
	return false
}

// Peek returns the next n bytes of r without advancing it.
func Peek(r Reader, n int) ([]byte, error) {
	if !Supports(r, CapPeek) {
		return nil, ErrUnsupported
	}
	return r.(Peeker).Peek(n)
}

// Tell returns the current position of r.
func Tell(r Reader) (int64, error) {
	if !Supports(r, CapTell) {
		return 0, ErrUnsupported
	}
	return r.(Teller).Tell()
}

// Seek repositions r.
func Seek(r Reader, offset int64, whence int) (int64, error) {
	if !Supports(r, CapSeek) {
		return 0, ErrUnsupported
	}
	return r.(io.Seeker).Seek(offset, whence)
}
