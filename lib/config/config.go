// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Event output formats.
const (
	FormatJSONL = "jsonl"
	FormatCBOR  = "cbor"
	FormatArrow = "arrow"
)

// Formats lists the accepted event output formats.
var Formats = []string{FormatJSONL, FormatCBOR, FormatArrow}

// Config is the master configuration for rootscan.
type Config struct {
	// Source configures how container files are read.
	Source SourceConfig `yaml:"source"`

	// Events configures the events command.
	Events EventsConfig `yaml:"events"`
}

// SourceConfig configures local and remote sources.
type SourceConfig struct {
	// HTTPTimeout bounds each HTTP request.
	// Default: 60s
	HTTPTimeout string `yaml:"http_timeout"`

	// HTTPRetries is the number of retries after a transient HTTP
	// failure.
	// Default: 3
	HTTPRetries int `yaml:"http_retries"`

	// HTTPBackoff is the wait before the first retry; it doubles on
	// each further retry.
	// Default: 500ms
	HTTPBackoff string `yaml:"http_backoff"`

	// CacheDir, when set, keeps fetched ranges of remote files on
	// disk so repeated runs do not download them again.
	// Default: empty (no cache)
	CacheDir string `yaml:"cache_dir"`

	// Mmap memory-maps local files instead of reading them.
	// Default: true
	Mmap bool `yaml:"mmap"`
}

// EventsConfig configures event decoding and output.
type EventsConfig struct {
	// Tree is the name of the event tree.
	// Default: esdTree
	Tree string `yaml:"tree"`

	// Format is the output format: jsonl, cbor or arrow.
	// Default: jsonl
	Format string `yaml:"format"`

	// Jobs is the number of files decoded in parallel.
	// Default: 4
	Jobs int `yaml:"jobs"`

	// TriggerTable is a YAML trigger table replacing the built-in
	// LHC10h table.
	// Default: empty (built-in table)
	TriggerTable string `yaml:"trigger_table"`

	// BatchSize is the number of events per Arrow record batch.
	// Default: 4096
	BatchSize int `yaml:"batch_size"`

	// ArrowCompression is the Arrow IPC buffer compression: none, lz4
	// or zstd.
	// Default: none
	ArrowCompression string `yaml:"arrow_compression"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			HTTPTimeout: "60s",
			HTTPRetries: 3,
			HTTPBackoff: "500ms",
			Mmap:        true,
		},
		Events: EventsConfig{
			Tree:             "esdTree",
			Format:           FormatJSONL,
			Jobs:             4,
			BatchSize:        4096,
			ArrowCompression: "none",
		},
	}
}

// Load loads configuration from the ROOTSCAN_CONFIG environment
// variable. It fails when the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv("ROOTSCAN_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("ROOTSCAN_CONFIG environment variable not set; " +
			"set it to the path of your rootscan.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Values the
// file does not set keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Source.CacheDir = expandVars(c.Source.CacheDir, vars)
	c.Events.TriggerTable = expandVars(c.Events.TriggerTable, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// HTTPTimeout returns source.http_timeout as a duration. Zero means no
// timeout.
func (c *Config) HTTPTimeout() (time.Duration, error) {
	return parseDuration("source.http_timeout", c.Source.HTTPTimeout)
}

// HTTPBackoff returns source.http_backoff as a duration.
func (c *Config) HTTPBackoff() (time.Duration, error) {
	return parseDuration("source.http_backoff", c.Source.HTTPBackoff)
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", field, value)
	}
	return duration, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.HTTPTimeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.HTTPBackoff(); err != nil {
		errs = append(errs, err)
	}
	if c.Source.HTTPRetries < 0 {
		errs = append(errs, fmt.Errorf("source.http_retries must not be negative"))
	}

	if c.Events.Tree == "" {
		errs = append(errs, fmt.Errorf("events.tree is required"))
	}
	if !slices.Contains(Formats, c.Events.Format) {
		errs = append(errs, fmt.Errorf("events.format must be one of: %v", Formats))
	}
	if c.Events.Jobs < 1 {
		errs = append(errs, fmt.Errorf("events.jobs must be at least 1"))
	}
	if c.Events.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("events.batch_size must be at least 1"))
	}
	compressions := []string{"none", "lz4", "zstd"}
	if !slices.Contains(compressions, c.Events.ArrowCompression) {
		errs = append(errs, fmt.Errorf("events.arrow_compression must be one of: %v", compressions))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
