package wandio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Output != StdioName {
		t.Errorf("Output = %q, want %q", c.Output, StdioName)
	}
	if c.Method != MethodNone || c.Level != 0 {
		t.Errorf("Default must not compress: %s/%d", c.Method, c.Level)
	}
	if c.BlockSize != DefaultBlockSize {
		t.Errorf("BlockSize = %d", c.BlockSize)
	}
	if !c.AutoDetect {
		t.Error("AutoDetect should default to true")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestPresets(t *testing.T) {
	for _, name := range []string{"default", "fastest", "compatible", "recommended", "best"} {
		t.Run(name, func(t *testing.T) {
			c, err := Preset(name)
			if err != nil {
				t.Fatal(err)
			}
			if err := c.Validate(); err != nil {
				t.Fatalf("Preset invalid: %v", err)
			}
			if name != "default" && !c.Method.Compresses(c.Level) {
				t.Errorf("Preset %s does not compress", name)
			}
		})
	}

	if _, err := Preset("bogus"); err == nil {
		t.Error("Expected an error for an unknown preset")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wandio.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
output = "out.gz"
method = "gzip"
level = 6
buffered = true
user-sources = true
`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.Output != "out.gz" || c.Method != MethodGzip || c.Level != 6 {
		t.Errorf("Unexpected config: %+v", c)
	}
	if !c.Buffered || !c.UserSources {
		t.Errorf("Flags not loaded: %+v", c)
	}
	// absent keys keep their defaults
	if c.BlockSize != DefaultBlockSize || !c.AutoDetect {
		t.Errorf("Defaults lost: %+v", c)
	}

	opts := c.WriteOptions()
	if opts.Method != MethodGzip || opts.Level != 6 || !opts.Buffered {
		t.Errorf("Unexpected write options: %+v", opts)
	}
}

func TestLoadOntoPreset(t *testing.T) {
	c := CompatibleConfig()
	if err := c.Load(writeConfig(t, `output = "out.bin"`)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Output != "out.bin" {
		t.Errorf("Output = %q, expected out.bin", c.Output)
	}
	// the preset survives wherever the file is silent
	if c.Method != MethodGzip || c.Level != 6 {
		t.Errorf("Preset lost: %+v", c)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"bad level", "level = 12", ErrInvalidLevel},
		{"bad method", `method = "rar"`, ErrUnsupportedMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("syntax", func(t *testing.T) {
		if _, err := LoadConfig(writeConfig(t, "level = ")); err == nil {
			t.Fatal("Expected a parse error")
		}
	})
	t.Run("missing", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("Expected os.ErrNotExist, got %v", err)
		}
	})
	t.Run("block size", func(t *testing.T) {
		if _, err := LoadConfig(writeConfig(t, "block-size = 0")); err == nil {
			t.Fatal("Expected an error for a zero block size")
		}
	})
}
