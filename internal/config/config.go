package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nethoundsh/dedupe/pkg/fileinfo"
	"github.com/nethoundsh/dedupe/pkg/filter"
	"github.com/nethoundsh/dedupe/pkg/preserve"
	"github.com/nethoundsh/dedupe/pkg/traverse"
)

// Config holds all dedupe configuration.
type Config struct {
	Include        IncludeConfig `yaml:"include"`
	PreservePolicy uint8         `yaml:"preserve_policy"`
	AutoPrompt     bool          `yaml:"auto_prompt"`
	MaxEntries     int           `yaml:"max_entries"`
	MinSize        int64         `yaml:"-"`
	MinSizeStr     string        `yaml:"min_size"`
	Cache          CacheConfig   `yaml:"cache"`
	Log            LogConfig     `yaml:"log"`
}

// IncludeConfig selects which result types are listed after grouping.
type IncludeConfig struct {
	Empty     bool `yaml:"empty"`
	Directory bool `yaml:"directory"`
	Duplicate bool `yaml:"duplicate"`
	Unique    bool `yaml:"unique"`
}

// CacheConfig controls the digest cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	MaxAge  string `yaml:"max_age"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with all default values populated.
func Default() *Config {
	return &Config{
		Include: IncludeConfig{
			Empty:     true,
			Directory: true,
			Duplicate: true,
			Unique:    true,
		},
		PreservePolicy: uint8(preserve.ModifiedFirst),
		AutoPrompt:     true,
		MaxEntries:     traverse.MaxEntries,
		MinSizeStr:     "0",
		Cache: CacheConfig{
			Enabled: true,
			MaxAge:  "30d",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// DefaultPath is ~/.config/dedupe/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "dedupe", "config.yaml"), nil
}

// Load loads config from the given path. If path is empty, it uses the
// default location. If the file does not exist, it creates it with
// default values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	return LoadFrom(path)
}

// LoadFrom loads and parses config from the given path. Missing fields
// keep their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	size, err := fileinfo.ParseSize(cfg.MinSizeStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse min_size %q: %w", cfg.MinSizeStr, err)
	}
	cfg.MinSize = size
	return cfg, nil
}

// Save marshals the config to YAML and writes it to the given path,
// creating parent directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Includes converts the include toggles and min_size for the filter pass.
func (c *Config) Includes() filter.Include {
	return filter.Include{
		Empty:     c.Include.Empty,
		Directory: c.Include.Directory,
		Duplicate: c.Include.Duplicate,
		Unique:    c.Include.Unique,
		MinSize:   c.MinSize,
	}
}

// Policy maps the stored byte; out-of-range values mean no policy.
func (c *Config) Policy() preserve.Policy {
	return preserve.FromByte(c.PreservePolicy)
}

// CacheMaxAge returns the parsed cache.max_age, or 0 when unset.
func (c *Config) CacheMaxAge() time.Duration {
	d, err := ParseDuration(c.Cache.MaxAge)
	if err != nil {
		return 0
	}
	return d
}

// ParseDuration parses "30d" style day counts as well as anything
// time.ParseDuration accepts. Empty means zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n >= 0 {
			return time.Duration(n) * 24 * time.Hour, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
