package config

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nethoundsh/dedupe/pkg/preserve"
	"github.com/nethoundsh/dedupe/pkg/traverse"
)

// Warning is a non-fatal problem found in a config file.
type Warning struct {
	Field      string
	Message    string
	Suggestion string
}

var knownKeys = map[string]bool{
	"include": true, "preserve_policy": true, "auto_prompt": true,
	"max_entries": true, "min_size": true, "cache": true, "log": true,
}

// Validate checks values that parse but make no sense.
func (c *Config) Validate() []Warning {
	var warnings []Warning
	if c.Policy() == preserve.None {
		warnings = append(warnings, Warning{
			Field:      "preserve_policy",
			Message:    fmt.Sprintf("value %d is out of range; auto dedupe keeps the existing order", c.PreservePolicy),
			Suggestion: "use 0 (modified-first) through 5 (name-descending)",
		})
	}
	if c.MaxEntries <= 0 || c.MaxEntries > traverse.MaxEntries {
		warnings = append(warnings, Warning{
			Field:      "max_entries",
			Message:    fmt.Sprintf("value %d is outside 1..%d; the default is used", c.MaxEntries, traverse.MaxEntries),
			Suggestion: fmt.Sprintf("max_entries: %d", traverse.MaxEntries),
		})
	}
	if _, err := ParseDuration(c.Cache.MaxAge); err != nil {
		warnings = append(warnings, Warning{
			Field:      "cache.max_age",
			Message:    err.Error(),
			Suggestion: `use a day count like "30d" or a duration like "12h"`,
		})
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, Warning{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown level %q", c.Log.Level),
		})
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		warnings = append(warnings, Warning{
			Field:   "log.format",
			Message: fmt.Sprintf("unknown format %q", c.Log.Format),
		})
	}
	if !c.Include.Empty && !c.Include.Directory && !c.Include.Duplicate && !c.Include.Unique {
		warnings = append(warnings, Warning{
			Field:   "include",
			Message: "every result type is excluded; only errors will be listed",
		})
	}
	return warnings
}

// EffectiveMaxEntries is max_entries clamped to the valid range.
func (c *Config) EffectiveMaxEntries() int {
	if c.MaxEntries <= 0 || c.MaxEntries > traverse.MaxEntries {
		return traverse.MaxEntries
	}
	return c.MaxEntries
}

// LoadAndValidate parses raw YAML and reports unknown keys along with
// the value checks of Validate.
func LoadAndValidate(data []byte) (*Config, []Warning) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, []Warning{{Message: fmt.Sprintf("invalid YAML: %v", err)}}
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var warnings []Warning
	for _, key := range keys {
		if !knownKeys[key] {
			warnings = append(warnings, Warning{
				Field:   key,
				Message: "unknown key",
			})
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, append(warnings, Warning{Message: err.Error()})
	}
	return cfg, append(warnings, cfg.Validate()...)
}
