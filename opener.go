package wandio

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/absfs/absfs"
)

// StdioName is the target that stands for standard input on read and
// standard output on write.
const StdioName = "-"

// DefaultReadBufferSize is the read-ahead buffer of base readers.
const DefaultReadBufferSize = 64 * 1024

// Opener is the innermost source of every chain.
type Opener interface {
	// Open opens name for reading. A missing file yields an error
	// wrapping fs.ErrNotExist.
	Open(name string) (Reader, error)

	// Create opens name for writing, truncating it.
	Create(name string) (Writer, error)
}

// FileOpener opens targets on an absfs.Filer and unwraps compressed content
// it recognises.
type FileOpener struct {
	filer      absfs.Filer
	stdin      io.Reader
	stdout     io.Writer
	autoDetect bool
	bufferSize int
}

// OpenerOption configures a FileOpener.
type OpenerOption func(*FileOpener)

// WithStdio sets the streams used for the "-" target.
func WithStdio(in io.Reader, out io.Writer) OpenerOption {
	return func(o *FileOpener) {
		o.stdin = in
		o.stdout = out
	}
}

// WithAutoDetect enables or disables codec detection on Open (default: on).
func WithAutoDetect(enabled bool) OpenerOption {
	return func(o *FileOpener) {
		o.autoDetect = enabled
	}
}

// WithReadBufferSize sets the read-ahead buffer size, which also bounds
// how far Peek can look. Sizes smaller than the longest codec signature are
// raised to it.
func WithReadBufferSize(n int) OpenerOption {
	return func(o *FileOpener) {
		o.bufferSize = max(n, sniffLen)
	}
}

// NewFileOpener creates an opener over filer.
func NewFileOpener(filer absfs.Filer, opts ...OpenerOption) *FileOpener {
	o := &FileOpener{
		filer:      filer,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		autoDetect: true,
		bufferSize: DefaultReadBufferSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open opens name and, when auto-detection is on, wraps it in a
// decompressing reader if its leading bytes carry a known signature.
func (o *FileOpener) Open(name string) (Reader, error) {
	var base *fileReader
	if name == StdioName {
		base = newFileReader(name, o.stdin, nil, o.bufferSize)
	} else {
		f, err := o.filer.OpenFile(name, os.O_RDONLY, 0)
		if err != nil {
			return nil, err
		}
		base = newFileReader(name, f, f, o.bufferSize)
	}

	if !o.autoDetect {
		return base, nil
	}

	m, ok := base.detect()
	if !ok {
		return base, nil
	}
	r, err := newDecompressReader(base, m)
	if err != nil {
		base.Close()
		return nil, fmt.Errorf("%w: %s (%s): %w", ErrCorruptedData, name, m, err)
	}
	return r, nil
}

// Create opens name for writing. "-" and "" write to standard output.
func (o *FileOpener) Create(name string) (Writer, error) {
	if name == StdioName || name == "" {
		return &fileWriter{name: StdioName, w: o.stdout}, nil
	}
	f, err := o.filer.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, err
	}
	return &fileWriter{name: name, w: f, file: f}, nil
}

// fileReader is the innermost node of a read chain.
type fileReader struct {
	name string
	file absfs.File // nil for standard input
	br   *bufio.Reader
	pos  int64

	closed bool
	mu     sync.Mutex
}

func newFileReader(name string, src io.Reader, file absfs.File, size int) *fileReader {
	return &fileReader{
		name: name,
		file: file,
		br:   bufio.NewReaderSize(src, size),
	}
}

// detect sniffs the leading bytes without consuming them.
func (fr *fileReader) detect() (Method, bool) {
	head, _ := fr.br.Peek(sniffLen)
	if len(head) == 0 {
		return MethodNone, false
	}
	if m, ok := DetectMethod(head); ok {
		return m, true
	}
	if m, ok := MethodFromExtension(fr.name); ok && trustsExtension(m) {
		return m, true
	}
	return MethodNone, false
}

func (fr *fileReader) Name() string {
	return fr.name
}

func (fr *fileReader) Read(p []byte) (int, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	if fr.closed {
		return 0, fs.ErrClosed
	}
	n, err := fr.br.Read(p)
	fr.pos += int64(n)
	return n, err
}

func (fr *fileReader) Peek(n int) ([]byte, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	if fr.closed {
		return nil, fs.ErrClosed
	}
	return fr.br.Peek(n)
}

func (fr *fileReader) Tell() (int64, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	if fr.closed {
		return 0, fs.ErrClosed
	}
	return fr.pos, nil
}

func (fr *fileReader) Seek(offset int64, whence int) (int64, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	if fr.closed {
		return 0, fs.ErrClosed
	}
	if fr.file == nil {
		return 0, ErrUnsupported
	}

	// The file is ahead of the caller by whatever is still buffered.
	if whence == io.SeekCurrent {
		offset -= int64(fr.br.Buffered())
	}
	pos, err := fr.file.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	fr.br.Reset(fr.file)
	fr.pos = pos
	return pos, nil
}

func (fr *fileReader) Supports(c Capability) bool {
	switch c {
	case CapPeek, CapTell:
		return true
	case CapSeek:
		return fr.file != nil
	}
	return false
}

func (fr *fileReader) Close() error {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	if fr.closed {
		return nil
	}
	fr.closed = true
	if fr.file != nil {
		return fr.file.Close()
	}
	return nil
}

// fileWriter is the innermost node of a write chain.
type fileWriter struct {
	name string
	w    io.Writer
	file absfs.File // nil for standard output

	closed bool
	mu     sync.Mutex
}

func (fw *fileWriter) Name() string {
	return fw.name
}

func (fw *fileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return 0, fs.ErrClosed
	}
	return fw.w.Write(p)
}

func (fw *fileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return nil
	}
	fw.closed = true
	if fw.file == nil {
		return nil
	}
	return fw.file.Close()
}
