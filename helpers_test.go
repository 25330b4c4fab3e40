package wandio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"testing"

	"github.com/absfs/absfs"
)

func writeFile(t *testing.T, filer absfs.Filer, name string, data []byte) {
	t.Helper()
	f, err := filer.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close %s: %v", name, err)
	}
}

func readFile(t *testing.T, filer absfs.Filer, name string) []byte {
	t.Helper()
	f, err := filer.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return data
}

func readAll(t *testing.T, r Reader) []byte {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to read chain: %v", err)
	}
	return data
}

// newMemResolver returns a resolver over a fresh memFS with an empty
// registry.
func newMemResolver(t *testing.T) (*Resolver, absfs.Filer) {
	t.Helper()
	filer := NewMemFS()
	return NewResolver(NewRegistry(), NewFileOpener(filer)), filer
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (e logEntry) attr(key string) any {
	for i := 0; i+1 < len(e.args); i += 2 {
		if e.args[i] == key {
			return e.args[i+1]
		}
	}
	return nil
}

// recordingLogger captures log calls.
type recordingLogger struct {
	entries []logEntry
	mu      sync.Mutex
}

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

// stubOpener serves fixed contents and records every handle it hands out.
type stubOpener struct {
	files     map[string][]byte
	readers   []*stubReader
	writer    *stubWriter
	createErr error
}

func newStubOpener(files map[string][]byte) *stubOpener {
	return &stubOpener{files: files, writer: &stubWriter{}}
}

func (o *stubOpener) Open(name string) (Reader, error) {
	data, ok := o.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	r := &stubReader{name: name, Reader: bytes.NewReader(data)}
	o.readers = append(o.readers, r)
	return r, nil
}

func (o *stubOpener) Create(string) (Writer, error) {
	if o.createErr != nil {
		return nil, o.createErr
	}
	return o.writer, nil
}

type stubReader struct {
	*bytes.Reader
	name   string
	closes int
}

func (r *stubReader) Close() error {
	r.closes++
	return nil
}

var errDiskFull = errors.New("disk full")

type stubWriter struct {
	bytes.Buffer
	closes int
	fail   bool
}

func (w *stubWriter) Write(p []byte) (int, error) {
	if w.fail {
		return 0, errDiskFull
	}
	return w.Buffer.Write(p)
}

func (w *stubWriter) Close() error {
	w.closes++
	return nil
}

// countingFilter always matches and counts how often it was probed.
type countingFilter struct {
	name   string
	probes int
}

func (c *countingFilter) Name() string   { return c.name }
func (c *countingFilter) Prefix() string { return "" }

func (c *countingFilter) Probe(Reader, string) bool {
	c.probes++
	return true
}

func (c *countingFilter) Open(parent Reader, _ string) (Reader, error) {
	return &filterReader{parent: parent, transform: func(b byte) byte { return b }}, nil
}

// failingFilter matches everything and refuses to open.
type failingFilter struct{}

var errFilterRefused = errors.New("filter refused")

func (failingFilter) Name() string                        { return "failing" }
func (failingFilter) Prefix() string                      { return "" }
func (failingFilter) Probe(Reader, string) bool           { return true }
func (failingFilter) Open(Reader, string) (Reader, error) { return nil, errFilterRefused }
