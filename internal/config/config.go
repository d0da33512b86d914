// Package config loads engine settings with layered precedence:
// built-in defaults, then an optional YAML file, then GRAPHKB_-prefixed
// environment variables. Scalar settings can come from any layer;
// list-valued settings (edge class lists) come from defaults or the
// file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/bcgsc/pori-graphkb-core/internal/query"
)

// EnvPrefix namespaces environment overrides: GRAPHKB_MAX_LIMIT sets
// max_limit.
const EnvPrefix = "GRAPHKB_"

// Config holds the tunable limits and edge-class conventions of the
// engine.
type Config struct {
	// MaxLimit caps the per-query result limit.
	MaxLimit int `koanf:"max_limit"`

	// MaxNeighbors caps the neighbors expansion directive.
	MaxNeighbors int `koanf:"max_neighbors"`

	// MinWordLength is the shortest token accepted in text-contains
	// predicates.
	MinWordLength int `koanf:"min_word_length"`

	// ParamPrefix names bound statement parameters.
	ParamPrefix string `koanf:"param_prefix"`

	// FuzzyEdgeClasses are the equivalence edges followed by fuzzy
	// matching.
	FuzzyEdgeClasses []string `koanf:"fuzzy_edge_classes"`

	// TreeEdgeClasses are the hierarchy edges followed by
	// ancestor/descendant traversals.
	TreeEdgeClasses []string `koanf:"tree_edge_classes"`

	// DefaultFetchDepth is the linked-record expansion depth for reads
	// that follow a mutation.
	DefaultFetchDepth int `koanf:"default_fetch_depth"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxLimit:          1000,
		MaxNeighbors:      4,
		MinWordLength:     4,
		ParamPrefix:       "param",
		FuzzyEdgeClasses:  []string{"AliasOf", "DeprecatedBy"},
		TreeEdgeClasses:   []string{"SubClassOf"},
		DefaultFetchDepth: 3,
	}
}

// Load builds a Config from the default values, the YAML file at path
// (skipped when path is empty or the file does not exist) and the
// process environment, in increasing precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"max_limit":           defaults.MaxLimit,
		"max_neighbors":       defaults.MaxNeighbors,
		"min_word_length":     defaults.MinWordLength,
		"param_prefix":        defaults.ParamPrefix,
		"fuzzy_edge_classes":  defaults.FuzzyEdgeClasses,
		"tree_edge_classes":   defaults.TreeEdgeClasses,
		"default_fetch_depth": defaults.DefaultFetchDepth,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		}
	}

	// Transform: GRAPHKB_MAX_LIMIT -> max_limit
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot operate under.
func (c *Config) Validate() error {
	if c.MaxLimit < 1 {
		return fmt.Errorf("max_limit must be at least 1, got %d", c.MaxLimit)
	}
	if c.MaxNeighbors < 0 {
		return fmt.Errorf("max_neighbors must not be negative, got %d", c.MaxNeighbors)
	}
	if c.MinWordLength < 1 {
		return fmt.Errorf("min_word_length must be at least 1, got %d", c.MinWordLength)
	}
	if c.DefaultFetchDepth < 0 {
		return fmt.Errorf("default_fetch_depth must not be negative, got %d", c.DefaultFetchDepth)
	}
	return nil
}

// Normalizer builds a query parameter normalizer with this config's
// limits.
func (c *Config) Normalizer() query.Normalizer {
	return query.Normalizer{
		MaxLimit:      c.MaxLimit,
		MaxNeighbors:  c.MaxNeighbors,
		MinWordLength: c.MinWordLength,
	}
}
