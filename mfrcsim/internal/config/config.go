package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultStorePath    = "cards.json"
	DefaultCardDigits   = 2
	DefaultIndent       = 2
	DefaultAccessDelay  = 120 * time.Millisecond
	DefaultPollInterval = 50 * time.Millisecond
	DefaultSector       = 2
	DefaultTimeout      = 30 * time.Second
)

type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Reader  ReaderConfig  `yaml:"reader"`
	Runtime RuntimeConfig `yaml:"runtime"`
}

type StoreConfig struct {
	Path       string `yaml:"path"`
	CardDigits *int   `yaml:"card_digits"`
	Indent     *int   `yaml:"indent"`
}

type ReaderConfig struct {
	AccessDelay   *time.Duration `yaml:"access_delay"`
	PollInterval  *time.Duration `yaml:"poll_interval"`
	DefaultSector *int           `yaml:"default_sector"`
	Timeout       *time.Duration `yaml:"timeout"`
}

type RuntimeConfig struct {
	ReaderIndex *int `yaml:"reader_index"`
}

// Default returns the configuration used when no config file exists, with
// the store path relative to baseDir.
func Default(baseDir string) *Config {
	var cfg Config
	cfg.applyDefaults()
	cfg.Store.Path = resolvePath(baseDir, cfg.Store.Path)
	return &cfg
}

func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	// An empty file decodes to io.EOF and means "all defaults".
	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.resolvePaths(path)
	return &cfg, nil
}

func (c *Config) Validate() error {
	if d := c.Store.CardDigits; d != nil && (*d < 1 || *d > 3) {
		return fmt.Errorf("config.store.card_digits must be 1..3")
	}
	if i := c.Store.Indent; i != nil && (*i < 1 || *i > 8) {
		return fmt.Errorf("config.store.indent must be 1..8")
	}
	if d := c.Reader.AccessDelay; d != nil && *d < 0 {
		return fmt.Errorf("config.reader.access_delay must be >= 0")
	}
	if d := c.Reader.PollInterval; d != nil && *d <= 0 {
		return fmt.Errorf("config.reader.poll_interval must be > 0")
	}
	if s := c.Reader.DefaultSector; s != nil && (*s < 0 || *s > 3) {
		return fmt.Errorf("config.reader.default_sector must be 0..3")
	}
	if d := c.Reader.Timeout; d != nil && *d < 0 {
		return fmt.Errorf("config.reader.timeout must be >= 0")
	}
	if r := c.Runtime.ReaderIndex; r != nil && *r < 0 {
		return fmt.Errorf("config.runtime.reader_index must be >= 0")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = DefaultStorePath
	}
	setDefault(&c.Store.CardDigits, DefaultCardDigits)
	setDefault(&c.Store.Indent, DefaultIndent)
	setDefault(&c.Reader.AccessDelay, DefaultAccessDelay)
	setDefault(&c.Reader.PollInterval, DefaultPollInterval)
	setDefault(&c.Reader.DefaultSector, DefaultSector)
	setDefault(&c.Reader.Timeout, DefaultTimeout)
	setDefault(&c.Runtime.ReaderIndex, 0)
}

func setDefault[T any](field **T, v T) {
	if *field == nil {
		*field = &v
	}
}

func (c *Config) resolvePaths(configPath string) {
	configDir := filepath.Dir(configPath)
	c.Store.Path = resolvePath(configDir, c.Store.Path)
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Clean(filepath.Join(baseDir, trimmed))
}
