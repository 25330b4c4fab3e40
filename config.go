package wandio

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds the settings of a copy run.
type Config struct {
	// Output target (default: "-", standard output)
	Output string `toml:"output"`

	// Compression method for the output (default: none)
	Method Method `toml:"method"`

	// Compression level, 0-9. 0 writes uncompressed whatever the method.
	Level int `toml:"level"`

	// Block size of the copy loop (default: 1MB)
	BlockSize int `toml:"block-size"`

	// Batch small writes to the output (default: false)
	Buffered bool `toml:"buffered"`

	// Detect compressed inputs by magic bytes (default: true)
	AutoDetect bool `toml:"auto-detect"`

	// Register the ".user" filter and "user://" protocol sources
	UserSources bool `toml:"user-sources"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output:     StdioName,
		Method:     MethodNone,
		Level:      0,
		BlockSize:  DefaultBlockSize,
		AutoDetect: true,
	}
}

// FastestConfig returns a configuration optimized for speed
func FastestConfig() *Config {
	c := DefaultConfig()
	c.Method = MethodLZ4
	c.Level = 1
	return c
}

// CompatibleConfig returns a configuration using gzip for maximum compatibility
func CompatibleConfig() *Config {
	c := DefaultConfig()
	c.Method = MethodGzip
	c.Level = 6
	return c
}

// RecommendedConfig uses zstd level 3, a good ratio at high speed
func RecommendedConfig() *Config {
	c := DefaultConfig()
	c.Method = MethodZstd
	c.Level = 3
	return c
}

// BestCompressionConfig returns a configuration optimized for maximum compression
func BestCompressionConfig() *Config {
	c := DefaultConfig()
	c.Method = MethodLZMA
	c.Level = 9
	c.Buffered = true
	return c
}

var presets = map[string]func() *Config{
	"default":     DefaultConfig,
	"fastest":     FastestConfig,
	"compatible":  CompatibleConfig,
	"recommended": RecommendedConfig,
	"best":        BestCompressionConfig,
}

// Preset returns the named preset configuration.
func Preset(name string) (*Config, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("wandio: unknown preset %q", name)
	}
	return fn(), nil
}

// LoadConfig reads a TOML config file. Keys absent from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if err := c.Load(path); err != nil {
		return nil, err
	}
	return c, nil
}

// Load decodes a TOML config file onto c. Keys absent from the file keep
// the values c already holds, so a preset can be refined by a file.
func (c *Config) Load(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("cannot load %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Validate checks the method, level and block size.
func (c *Config) Validate() error {
	if c.BlockSize <= 0 {
		return fmt.Errorf("wandio: invalid block size %d", c.BlockSize)
	}
	return c.WriteOptions().Validate()
}

// WriteOptions returns the output options described by c.
func (c *Config) WriteOptions() WriteOptions {
	return WriteOptions{
		Method:   c.Method,
		Level:    c.Level,
		Buffered: c.Buffered,
	}
}
