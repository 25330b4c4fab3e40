package wandio

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
)

// cleanName maps absolute and relative spellings of a name to one key.
func cleanName(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return "."
	}
	return name
}

// memFS is an in-memory filesystem for tests and examples.
type memFS struct {
	nodes map[string]*memNode
	dirs  map[string]bool
	mu    sync.RWMutex
}

// NewMemFS creates an empty in-memory filesystem.
func NewMemFS() absfs.Filer {
	return &memFS{
		nodes: make(map[string]*memNode),
		dirs:  map[string]bool{".": true},
	}
}

// memNode is the content shared by every handle on one file.
type memNode struct {
	data    []byte
	mode    fs.FileMode
	modTime time.Time
	mu      sync.RWMutex
}

func (n *memNode) info(name string) fs.FileInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return &memFileInfo{
		name:    path.Base(name),
		size:    int64(len(n.data)),
		mode:    n.mode,
		modTime: n.modTime,
	}
}

func (m *memFS) Open(name string) (absfs.File, error) {
	return m.OpenFile(name, os.O_RDONLY, 0)
}

func (m *memFS) Create(name string) (absfs.File, error) {
	return m.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (m *memFS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	key := cleanName(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dirs[key] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: errors.New("is a directory")}
	}

	node, ok := m.nodes[key]
	switch {
	case !ok && flag&os.O_CREATE == 0:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	case ok && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrExist}
	case !ok:
		if !m.dirs[path.Dir(key)] {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		node = &memNode{mode: perm, modTime: time.Now()}
		m.nodes[key] = node
	}

	if flag&os.O_TRUNC != 0 {
		node.mu.Lock()
		node.data = nil
		node.modTime = time.Now()
		node.mu.Unlock()
	}

	return &memFile{name: name, key: key, node: node, flag: flag}, nil
}

func (m *memFS) Mkdir(name string, perm fs.FileMode) error {
	key := cleanName(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dirs[key] || m.nodes[key] != nil {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	if !m.dirs[path.Dir(key)] {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrNotExist}
	}
	m.dirs[key] = true
	return nil
}

func (m *memFS) Remove(name string) error {
	key := cleanName(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[key]; ok {
		delete(m.nodes, key)
		return nil
	}
	if m.dirs[key] && key != "." {
		delete(m.dirs, key)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
}

func (m *memFS) Rename(oldpath, newpath string) error {
	from, to := cleanName(oldpath), cleanName(newpath)

	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[from]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	m.nodes[to] = node
	delete(m.nodes, from)
	return nil
}

func (m *memFS) Stat(name string) (fs.FileInfo, error) {
	key := cleanName(name)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if node, ok := m.nodes[key]; ok {
		return node.info(key), nil
	}
	if m.dirs[key] {
		return &memFileInfo{name: path.Base(key), mode: fs.ModeDir | 0755}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

func (m *memFS) ReadDir(name string) ([]fs.DirEntry, error) {
	key := cleanName(name)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.dirs[key] {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}

	var entries []fs.DirEntry
	for k, node := range m.nodes {
		if path.Dir(k) == key {
			entries = append(entries, fs.FileInfoToDirEntry(node.info(k)))
		}
	}
	for k := range m.dirs {
		if k != "." && path.Dir(k) == key {
			entries = append(entries, fs.FileInfoToDirEntry(&memFileInfo{name: path.Base(k), mode: fs.ModeDir | 0755}))
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

func (m *memFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	node, ok := m.nodes[cleanName(name)]
	m.mu.RUnlock()

	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	node.mu.RLock()
	defer node.mu.RUnlock()
	return append([]byte(nil), node.data...), nil
}

// Sub returns a read-only view rooted at dir.
func (m *memFS) Sub(dir string) (fs.FS, error) {
	return absfs.FilerToFS(m, cleanName(dir))
}

func (m *memFS) Chmod(name string, mode os.FileMode) error {
	return m.withNode("chmod", name, func(n *memNode) { n.mode = mode })
}

func (m *memFS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return m.withNode("chtimes", name, func(n *memNode) { n.modTime = mtime })
}

// Chown only checks that name exists.
func (m *memFS) Chown(name string, uid, gid int) error {
	return m.withNode("chown", name, func(*memNode) {})
}

func (m *memFS) withNode(op, name string, fn func(*memNode)) error {
	m.mu.RLock()
	node, ok := m.nodes[cleanName(name)]
	m.mu.RUnlock()

	if !ok {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	node.mu.Lock()
	fn(node)
	node.mu.Unlock()
	return nil
}

// memFile is one open handle with its own position.
type memFile struct {
	name   string
	key    string
	node   *memNode
	flag   int
	pos    int64
	closed bool
	mu     sync.Mutex
}

func (f *memFile) Name() string {
	return f.name
}

func (f *memFile) readable() bool {
	return f.flag&os.O_WRONLY == 0
}

func (f *memFile) writable() bool {
	return f.flag&(os.O_WRONLY|os.O_RDWR) != 0
}

func (f *memFile) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.readAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if off < 0 {
		return 0, &fs.PathError{Op: "readat", Path: f.name, Err: fs.ErrInvalid}
	}
	n, err := f.readAt(p, off)
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (f *memFile) readAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if !f.readable() {
		return 0, &fs.PathError{Op: "read", Path: f.name, Err: fs.ErrPermission}
	}

	f.node.mu.RLock()
	defer f.node.mu.RUnlock()

	if off >= int64(len(f.node.data)) {
		return 0, io.EOF
	}
	return copy(p, f.node.data[off:]), nil
}

func (f *memFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.flag&os.O_APPEND != 0 {
		f.node.mu.RLock()
		f.pos = int64(len(f.node.data))
		f.node.mu.RUnlock()
	}
	n, err := f.writeAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if off < 0 {
		return 0, &fs.PathError{Op: "writeat", Path: f.name, Err: fs.ErrInvalid}
	}
	return f.writeAt(p, off)
}

func (f *memFile) writeAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if !f.writable() {
		return 0, &fs.PathError{Op: "write", Path: f.name, Err: fs.ErrPermission}
	}

	f.node.mu.Lock()
	defer f.node.mu.Unlock()

	end := off + int64(len(p))
	if end > int64(len(f.node.data)) {
		grown := make([]byte, end)
		copy(grown, f.node.data)
		f.node.data = grown
	}
	copy(f.node.data[off:], p)
	f.node.modTime = time.Now()
	return len(p), nil
}

func (f *memFile) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, fs.ErrClosed
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.pos
	case io.SeekEnd:
		f.node.mu.RLock()
		base = int64(len(f.node.data))
		f.node.mu.RUnlock()
	default:
		return 0, &fs.PathError{Op: "seek", Path: f.name, Err: fs.ErrInvalid}
	}
	if base+offset < 0 {
		return 0, &fs.PathError{Op: "seek", Path: f.name, Err: fs.ErrInvalid}
	}
	f.pos = base + offset
	return f.pos, nil
}

func (f *memFile) Truncate(size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fs.ErrClosed
	}
	if size < 0 {
		return &fs.PathError{Op: "truncate", Path: f.name, Err: fs.ErrInvalid}
	}

	f.node.mu.Lock()
	defer f.node.mu.Unlock()

	if size <= int64(len(f.node.data)) {
		f.node.data = f.node.data[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, f.node.data)
		f.node.data = grown
	}
	f.node.modTime = time.Now()
	return nil
}

func (f *memFile) Stat() (fs.FileInfo, error) {
	return f.node.info(f.key), nil
}

func (f *memFile) Sync() error {
	return nil
}

func (f *memFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

// A memFile is never a directory.
func (f *memFile) Readdir(int) ([]os.FileInfo, error) {
	return nil, &fs.PathError{Op: "readdir", Path: f.name, Err: fs.ErrInvalid}
}

func (f *memFile) Readdirnames(int) ([]string, error) {
	return nil, &fs.PathError{Op: "readdirnames", Path: f.name, Err: fs.ErrInvalid}
}

func (f *memFile) ReadDir(int) ([]fs.DirEntry, error) {
	return nil, &fs.PathError{Op: "readdir", Path: f.name, Err: fs.ErrInvalid}
}

type memFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *memFileInfo) Name() string       { return fi.name }
func (fi *memFileInfo) Size() int64        { return fi.size }
func (fi *memFileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *memFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *memFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *memFileInfo) Sys() interface{}   { return nil }
