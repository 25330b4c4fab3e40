package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/absfs/absfs"
	"github.com/absfs/wandio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	filer  absfs.Filer
	stdin  *strings.Reader
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T, files map[string][]byte) *harness {
	t.Helper()
	h := &harness{
		filer:  wandio.NewMemFS(),
		stdin:  strings.NewReader(""),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	for name, data := range files {
		f, err := h.filer.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	return h
}

func (h *harness) run(args ...string) error {
	cmd := newRootCmd(env{filer: h.filer, stdin: h.stdin, stdout: h.stdout, stderr: h.stderr})
	cmd.SetArgs(args)
	return cmd.Execute()
}

// open reads name back through a resolver, decompressing as needed.
func (h *harness) open(t *testing.T, name string) []byte {
	t.Helper()
	r, err := wandio.NewResolver(nil, wandio.NewFileOpener(h.filer)).Open(name)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func TestConcatenatesToStdout(t *testing.T) {
	h := newHarness(t, map[string][]byte{
		"a.txt": []byte("first\n"),
		"b.txt": []byte("second\n"),
	})

	require.NoError(t, h.run("a.txt", "b.txt"))
	assert.Equal(t, "first\nsecond\n", h.stdout.String())
	assert.Empty(t, h.stderr.String())
}

func TestMissingInputIsReportedAndSkipped(t *testing.T) {
	h := newHarness(t, map[string][]byte{
		"a.txt": []byte("a"),
		"c.txt": []byte("c"),
	})

	require.NoError(t, h.run("a.txt", "b.txt", "c.txt"))
	assert.Equal(t, "ac", h.stdout.String())

	lines := strings.Split(strings.TrimSpace(h.stderr.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "level=ERROR")
	assert.Contains(t, lines[0], "target=b.txt")
}

func TestAllInputsMissingStillSucceeds(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.run("x", "y"))
	assert.Empty(t, h.stdout.String())
}

func TestCompressedOutput(t *testing.T) {
	payload := bytes.Repeat([]byte("compress me "), 100)
	h := newHarness(t, map[string][]byte{"in.txt": payload})

	require.NoError(t, h.run("-o", "out.gz", "-Z", "gzip", "-z", "6", "in.txt"))

	raw := h.open(t, "out.gz")
	assert.Equal(t, payload, raw)

	f, err := h.filer.OpenFile("out.gz", os.O_RDONLY, 0)
	require.NoError(t, err)
	defer f.Close()
	head := make([]byte, 2)
	_, err = io.ReadFull(f, head)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, head)
}

func TestLevelZeroWritesPlain(t *testing.T) {
	h := newHarness(t, map[string][]byte{"in.txt": []byte("plain")})

	require.NoError(t, h.run("-Z", "zstd", "in.txt"))
	assert.Equal(t, "plain", h.stdout.String())
}

func TestUserSourcesFlag(t *testing.T) {
	h := newHarness(t, map[string][]byte{
		"notes.txt.user": {5, 6, 7},
		"hosts":          {5, 6, 7},
	})

	require.NoError(t, h.run("-u", "notes.txt.user", "user://hosts"))
	assert.Equal(t, []byte{4, 5, 6, 5, 6, 7}, h.stdout.Bytes())
}

func TestUserSuffixIgnoredWithoutFlag(t *testing.T) {
	h := newHarness(t, map[string][]byte{"notes.txt.user": {5, 6, 7}})

	require.NoError(t, h.run("notes.txt.user"))
	assert.Equal(t, []byte{5, 6, 7}, h.stdout.Bytes())
}

func TestStdinInput(t *testing.T) {
	h := newHarness(t, nil)
	h.stdin = strings.NewReader("piped")

	require.NoError(t, h.run("-"))
	assert.Equal(t, "piped", h.stdout.String())
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown method", []string{"-Z", "rar", "in"}},
		{"level too high", []string{"-Z", "gzip", "-z", "12", "in"}},
		{"non-numeric level", []string{"-z", "high", "in"}},
		{"unknown flag", []string{"--nope"}},
		{"unknown preset", []string{"--preset", "bogus"}},
		{"lzo has no codec", []string{"-Z", "lzo", "-z", "1", "-o", "out", "in"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, map[string][]byte{"in": []byte("x")})
			assert.Error(t, h.run(tt.args...))
		})
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wandio.toml")
	require.NoError(t, os.WriteFile(path, []byte("output = \"out.zst\"\nmethod = \"zstd\"\nlevel = 3\n"), 0644))

	payload := bytes.Repeat([]byte("zstd from config "), 50)
	h := newHarness(t, map[string][]byte{"in": payload})

	require.NoError(t, h.run("-c", path, "in"))
	assert.Empty(t, h.stdout.String())
	assert.Equal(t, payload, h.open(t, "out.zst"))
}

func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wandio.toml")
	require.NoError(t, os.WriteFile(path, []byte("output = \"out.zst\"\nmethod = \"zstd\"\nlevel = 3\n"), 0644))

	h := newHarness(t, map[string][]byte{"in": []byte("override")})

	require.NoError(t, h.run("-c", path, "-o", "-", "-z", "0", "in"))
	assert.Equal(t, "override", h.stdout.String())
}

func TestPresetRefinedByConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wandio.toml")
	require.NoError(t, os.WriteFile(path, []byte("output = \"out.bin\"\n"), 0644))

	payload := []byte("hello from a preset")
	h := newHarness(t, map[string][]byte{"in": payload})

	require.NoError(t, h.run("--preset", "compatible", "-c", path, "in"))
	assert.Empty(t, h.stdout.String())

	f, err := h.filer.OpenFile("out.bin", os.O_RDONLY, 0)
	require.NoError(t, err)
	defer f.Close()
	head := make([]byte, 2)
	_, err = io.ReadFull(f, head)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, head, "compatible preset writes gzip")
	assert.Equal(t, payload, h.open(t, "out.bin"))
}

func TestPresetFlag(t *testing.T) {
	payload := bytes.Repeat([]byte("preset "), 100)
	h := newHarness(t, map[string][]byte{"in": payload})

	require.NoError(t, h.run("--preset", "fastest", "-o", "out.lz4", "in"))
	assert.Equal(t, payload, h.open(t, "out.lz4"))
}

func TestVerboseLogsSummary(t *testing.T) {
	h := newHarness(t, map[string][]byte{"in": []byte("x")})

	require.NoError(t, h.run("-v", "in"))
	assert.Contains(t, h.stderr.String(), "msg=finished")
}
