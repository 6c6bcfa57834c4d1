// Package config loads the extraction configuration consumed by the
// analysis engine: the user status-line prefix, key aliases, the dynamic
// key pattern, and the skip window.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the configuration surface consumed by the extraction engine.
// All fields have working defaults; a config file is optional.
type Config struct {
	// FieldPrefix is the prefix identifying user-defined status lines,
	// e.g. "MyApp Status". A trailing separator (":" or "=") is optional
	// on the log line, as is a bracketed monitor identifier between the
	// prefix and the separator.
	FieldPrefix string `yaml:"fieldPrefix"`

	// Aliases maps raw status keys to display names used as column
	// headings, e.g. iq: "queued input".
	Aliases map[string]string `yaml:"aliases"`

	// KeyRegex identifies which user-status keys are dynamic, i.e. not
	// known until the whole file has been scanned. Keys that do not match
	// are ignored. Defaults to matching every key.
	KeyRegex string `yaml:"keyRegex"`

	// MaxKeys caps the number of distinct dynamic keys that get their own
	// column. Keys beyond the cap are folded into an "other" bucket, or
	// dropped if OtherBucket is false.
	MaxKeys int `yaml:"maxKeys"`

	// OtherBucket folds values of over-cap keys into a single "other"
	// column instead of dropping them.
	OtherBucket bool `yaml:"otherBucket"`

	// SkipFraction discards data rows whose instant falls within the
	// first fraction of a file's time span (0.1 = first 10%). Startup
	// banner lines are always retained.
	SkipFraction float64 `yaml:"skipFraction"`

	// UTCOffsetMinutes is the offset of the timezone the logs were
	// recorded in, east of UTC. Instants are normalized to UTC using this
	// offset; the offset itself is carried through to the chart report.
	UTCOffsetMinutes int `yaml:"utcOffsetMinutes"`
}

// Load reads a YAML config file and applies defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.KeyRegex == "" {
		c.KeyRegex = ".*"
	}
	if c.MaxKeys == 0 {
		c.MaxKeys = 64
	}
	if c.SkipFraction == 0 {
		c.SkipFraction = 0.1
	}
	if c.Aliases == nil {
		c.Aliases = map[string]string{}
	}
}

// Validate checks the configuration for values the engine cannot work with.
func (c *Config) Validate() error {
	if c.SkipFraction < 0 || c.SkipFraction >= 1 {
		return fmt.Errorf("skipFraction must be in [0, 1), got %v", c.SkipFraction)
	}
	if c.MaxKeys < 1 {
		return fmt.Errorf("maxKeys must be at least 1, got %d", c.MaxKeys)
	}
	if _, err := regexp.Compile(c.KeyRegex); err != nil {
		return fmt.Errorf("invalid keyRegex: %w", err)
	}
	return nil
}

// CompileKeyRegex returns the compiled dynamic-key pattern.
// Validate must have succeeded first.
func (c *Config) CompileKeyRegex() *regexp.Regexp {
	return regexp.MustCompile(c.KeyRegex)
}

// MergeAliasFlags folds "field:alias" command-line pairs into the alias
// map, overriding any file-supplied values.
func (c *Config) MergeAliasFlags(pairs []string) error {
	for _, p := range pairs {
		field, alias, ok := strings.Cut(p, ":")
		if !ok || field == "" || alias == "" {
			return fmt.Errorf("invalid alias %q, expected field:alias", p)
		}
		c.Aliases[field] = alias
	}
	return nil
}
