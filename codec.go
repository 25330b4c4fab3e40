package wandio

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"sync"
)

// decompressReader unwraps a compressed parent. It can peek and tell in
// decompressed coordinates but cannot seek.
type decompressReader struct {
	parent Reader
	method Method
	dec    io.ReadCloser
	br     *bufio.Reader
	pos    int64

	closed bool
	mu     sync.Mutex
}

func newDecompressReader(parent Reader, m Method) (*decompressReader, error) {
	dec, err := createDecompressor(m, parent)
	if err != nil {
		return nil, err
	}
	return &decompressReader{
		parent: parent,
		method: m,
		dec:    dec,
		br:     bufio.NewReader(dec),
	}, nil
}

// Method returns the detected compression method.
func (dr *decompressReader) Method() Method {
	return dr.method
}

func (dr *decompressReader) Read(p []byte) (int, error) {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	if dr.closed {
		return 0, fs.ErrClosed
	}
	n, err := dr.br.Read(p)
	dr.pos += int64(n)
	return n, err
}

func (dr *decompressReader) Peek(n int) ([]byte, error) {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	if dr.closed {
		return nil, fs.ErrClosed
	}
	return dr.br.Peek(n)
}

func (dr *decompressReader) Tell() (int64, error) {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	if dr.closed {
		return 0, fs.ErrClosed
	}
	return dr.pos, nil
}

func (dr *decompressReader) Close() error {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	if dr.closed {
		return nil
	}
	dr.closed = true
	return errors.Join(dr.dec.Close(), dr.parent.Close())
}

// compressWriter compresses into its parent. Method and level are fixed
// for its lifetime.
type compressWriter struct {
	parent Writer
	method Method
	level  int
	enc    io.WriteCloser

	closed bool
	mu     sync.Mutex
}

func newCompressWriter(parent Writer, m Method, level int) (*compressWriter, error) {
	enc, err := createCompressor(m, parent, level)
	if err != nil {
		return nil, err
	}
	return &compressWriter{
		parent: parent,
		method: m,
		level:  level,
		enc:    enc,
	}, nil
}

func (cw *compressWriter) Method() Method {
	return cw.method
}

func (cw *compressWriter) Level() int {
	return cw.level
}

func (cw *compressWriter) Write(p []byte) (int, error) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.closed {
		return 0, fs.ErrClosed
	}
	return cw.enc.Write(p)
}

// Close flushes the codec trailer before closing the parent.
func (cw *compressWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.closed {
		return nil
	}
	cw.closed = true
	return errors.Join(cw.enc.Close(), cw.parent.Close())
}

// bufferedWriter batches small writes to its parent.
type bufferedWriter struct {
	parent Writer
	bw     *bufio.Writer

	closed bool
	mu     sync.Mutex
}

func newBufferedWriter(parent Writer, size int) *bufferedWriter {
	return &bufferedWriter{
		parent: parent,
		bw:     bufio.NewWriterSize(parent, size),
	}
}

func (bw *bufferedWriter) Write(p []byte) (int, error) {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.closed {
		return 0, fs.ErrClosed
	}
	return bw.bw.Write(p)
}

func (bw *bufferedWriter) Close() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.closed {
		return nil
	}
	bw.closed = true
	return errors.Join(bw.bw.Flush(), bw.parent.Close())
}
