package wandio

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Method is a compression method for write chains.
type Method string

const (
	MethodNone   Method = "none"
	MethodGzip   Method = "gzip"
	MethodBzip2  Method = "bzip2"
	MethodLZO    Method = "lzo"
	MethodLZMA   Method = "lzma"
	MethodZstd   Method = "zstd"
	MethodLZ4    Method = "lz4"
	MethodBrotli Method = "brotli"
	MethodSnappy Method = "snappy"
)

// MaxLevel is the highest accepted compression level. Level 0 disables
// compression whatever the method.
const MaxLevel = 9

// Methods lists every method known to LookupMethod, in display order.
var Methods = []Method{
	MethodNone,
	MethodGzip,
	MethodBzip2,
	MethodLZO,
	MethodLZMA,
	MethodZstd,
	MethodLZ4,
	MethodBrotli,
	MethodSnappy,
}

var methodAliases = map[string]Method{
	"":       MethodNone,
	"gz":     MethodGzip,
	"bz2":    MethodBzip2,
	"xz":     MethodLZMA,
	"zst":    MethodZstd,
	"br":     MethodBrotli,
	"sz":     MethodSnappy,
	"framed": MethodSnappy,
}

// LookupMethod resolves a method name (or a common alias) case-insensitively.
func LookupMethod(name string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, m := range Methods {
		if string(m) == key {
			return m, nil
		}
	}
	if m, ok := methodAliases[key]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, name)
}

// Compresses reports whether writing with m at level produces a codec
// wrapper at all.
func (m Method) Compresses(level int) bool {
	return m != MethodNone && m != "" && level != 0
}

// Available reports whether a codec is linked in for m. lzo is a known
// method name with no Go implementation.
func (m Method) Available() bool {
	switch m {
	case MethodNone, "", MethodLZO:
		return false
	}
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// createCompressor creates a compressor for the specified method.
func createCompressor(m Method, w io.Writer, level int) (io.WriteCloser, error) {
	if level < 1 || level > MaxLevel {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	switch m {
	case MethodGzip:
		return gzip.NewWriterLevel(w, level)
	case MethodBzip2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: level})
	case MethodLZMA:
		return xz.WriterConfig{DictCap: xzDictCap[level]}.NewWriter(w)
	case MethodZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	case MethodLZ4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
			return nil, err
		}
		return zw, nil
	case MethodBrotli:
		return brotli.NewWriterLevel(w, level), nil
	case MethodSnappy:
		// snappy has no levels
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, m)
	}
}

// createDecompressor creates a decompressor for the specified method.
func createDecompressor(m Method, r io.Reader) (io.ReadCloser, error) {
	switch m {
	case MethodGzip:
		return gzip.NewReader(r)
	case MethodBzip2:
		return bzip2.NewReader(r, nil)
	case MethodLZMA:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case MethodZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case MethodLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case MethodBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case MethodSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, m)
	}
}

// xz preset dictionary sizes, indexed by level.
var xzDictCap = [MaxLevel + 1]int{
	256 << 10,
	1 << 20,
	2 << 20,
	4 << 20,
	4 << 20,
	8 << 20,
	8 << 20,
	16 << 20,
	32 << 20,
	64 << 20,
}

var lz4Levels = [MaxLevel + 1]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1,
	lz4.Level2,
	lz4.Level3,
	lz4.Level4,
	lz4.Level5,
	lz4.Level6,
	lz4.Level7,
	lz4.Level8,
	lz4.Level9,
}

// CompressBytes compresses data with the given method and level.
func CompressBytes(data []byte, m Method, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := createCompressor(m, &buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressBytes decompresses data produced by CompressBytes.
func DecompressBytes(data []byte, m Method) ([]byte, error) {
	zr, err := createDecompressor(m, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return io.ReadAll(zr)
}
