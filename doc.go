// Package wandio provides a uniform handle type for reading and writing byte
// streams that may be transparently wrapped by composable decorators chosen at
// open time from the target name.
//
// A caller sees no difference between a plain file, a compressed file, or a
// custom virtual source: every open returns a Reader (or Writer) chain whose
// outermost node is used as a single opaque stream.
//
// # Features
//
//   - Process-wide source registry with protocol and filter sources
//   - Open-time resolution that stacks filter decorators by name
//   - Automatic codec detection on read by magic bytes
//   - Compressing writers: gzip, bzip2, lzma (xz), zstd, lz4, brotli, snappy
//   - Optional peek/tell/seek capabilities, queryable per chain
//   - Streaming copy driver that concatenates inputs into one output
//
// # Quick Start
//
//	import "github.com/absfs/osfs"
//
//	host, _ := osfs.NewFS()
//	reg := wandio.NewRegistry()
//	opener := wandio.NewFileOpener(host)
//	res := wandio.NewResolver(reg, opener)
//
//	// Write a zstd compressed file
//	w, _ := res.Create("data.zst", wandio.WriteOptions{
//	    Method: wandio.MethodZstd,
//	    Level:  3,
//	})
//	w.Write([]byte("Hello, compressed world!"))
//	w.Close()
//
//	// Read it back, the codec is detected from the content
//	r, _ := res.Open("data.zst")
//	data, _ := io.ReadAll(r)
//	r.Close()
//
// # Resolution
//
// Opening a target for reading runs in three steps:
//
//   - A protocol source whose prefix starts the target performs the whole
//     open. Nothing else is consulted.
//   - Otherwise the base opener opens the target and unwraps any detected
//     codec.
//   - Filter sources are probed in registration order and wrap the chain one
//     at a time until none matches. A source is applied at most once.
//
// Writers are never probed: method and level come from the caller.
//
// # Custom sources
//
// Implement Source. A source with a non-empty Prefix is a protocol source and
// is opened with a nil parent; any other source is a filter and owns the
// parent it wraps. SuffixFilter and PrefixProtocol are small ready-made
// implementations; RegisterUserSources installs the ".user" and "user://"
// pair used by wandiocat -u.
package wandio
