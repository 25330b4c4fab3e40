package wandio

import (
	"bytes"
	"path/filepath"
	"strings"
)

// sniffLen is enough bytes to recognise any supported signature.
const sniffLen = 10

type signature struct {
	method Method
	magic  []byte
	// valid, when set, inspects the bytes after magic.
	valid func(rest []byte) bool
}

// Checked in order; no signature is a prefix of another.
var signatures = []signature{
	{MethodGzip, []byte{0x1f, 0x8b}, nil},
	{MethodBzip2, []byte("BZh"), bzip2BlockSize},
	{MethodLZMA, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, nil},
	{MethodZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}, nil},
	{MethodLZ4, []byte{0x04, 0x22, 0x4d, 0x18}, nil},
	{MethodSnappy, []byte{0xff, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}, nil},
}

var extensions = map[Method]string{
	MethodGzip:   ".gz",
	MethodBzip2:  ".bz2",
	MethodLZO:    ".lzo",
	MethodLZMA:   ".xz",
	MethodZstd:   ".zst",
	MethodLZ4:    ".lz4",
	MethodBrotli: ".br",
	MethodSnappy: ".sz",
}

var extensionMethods = map[string]Method{
	".gz":     MethodGzip,
	".gzip":   MethodGzip,
	".bz2":    MethodBzip2,
	".lzo":    MethodLZO,
	".xz":     MethodLZMA,
	".lzma":   MethodLZMA,
	".zst":    MethodZstd,
	".zstd":   MethodZstd,
	".lz4":    MethodLZ4,
	".br":     MethodBrotli,
	".sz":     MethodSnappy,
	".snappy": MethodSnappy,
}

// DetectMethod reports the method whose signature starts data.
func DetectMethod(data []byte) (Method, bool) {
	for _, sig := range signatures {
		if !bytes.HasPrefix(data, sig.magic) {
			continue
		}
		if sig.valid == nil || sig.valid(data[len(sig.magic):]) {
			return sig.method, true
		}
	}
	return MethodNone, false
}

// bzip2BlockSize requires the "BZh" magic to be followed by a block size
// digit, so plain text starting with "BZh" is left alone.
func bzip2BlockSize(rest []byte) bool {
	return len(rest) > 0 && rest[0] >= '1' && rest[0] <= '9'
}

// Extension returns the conventional file extension for m, or "".
func Extension(m Method) string {
	return extensions[m]
}

// MethodFromExtension detects the method from the extension of name.
func MethodFromExtension(name string) (Method, bool) {
	m, ok := extensionMethods[strings.ToLower(filepath.Ext(name))]
	return m, ok
}

// trustsExtension reports whether a method without a signature may be
// selected by extension alone.
func trustsExtension(m Method) bool {
	return m == MethodBrotli
}
