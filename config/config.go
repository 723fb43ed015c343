// Package config holds the settings shared by every zarrdist command.
package config

import (
	toml "github.com/pelletier/go-toml"
	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/errors"
	"github.com/qri-io/zarrdist/logger"
	"go.uber.org/zap/zapcore"
)

// Config is the command line configuration. Every field is also a flag of
// the same name, an environment variable prefixed with ZARRDIST_ and a key
// of the TOML config file.
type Config struct {
	// Store is the directory holding zarr arrays.
	Store string `toml:"store"`

	// Workers bounds the partitions processed at once; 0 uses every CPU.
	Workers int `toml:"workers"`

	LogLevel string `toml:"log-level"`

	// Compressor names the codec chunks are written with: "gzip", "zstd",
	// or empty for none.
	Compressor string `toml:"compressor"`

	// Metrics prints the engine counters when a command finishes.
	Metrics bool `toml:"metrics"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Store:    ".",
		Workers:  0,
		LogLevel: "info",
	}
}

var compressors = map[string]bool{
	"":     true,
	"gzip": true,
	"zstd": true,
}

// Validate checks every field.
func (c *Config) Validate() error {
	if c.Store == "" {
		return errors.Errorf("store directory is required")
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log-level")
	}
	if !compressors[c.Compressor] {
		return errors.Errorf("unknown compressor %q", c.Compressor)
	}
	return nil
}

// Compression returns the chunk compressor metadata, nil for none.
func (c *Config) Compression() *zarr.CompressionMeta {
	if c.Compressor == "" {
		return nil
	}
	return &zarr.CompressionMeta{ID: c.Compressor}
}

// Logger builds the logger LogLevel asks for.
func (c *Config) Logger() (logger.Logger, error) {
	return logger.New(c.LogLevel)
}

// Marshal renders c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(*c)
}

// Unmarshal reads TOML into c, leaving fields the document omits unchanged.
func (c *Config) Unmarshal(data []byte) error {
	return toml.Unmarshal(data, c)
}
