// Package config loads and validates the .pushwork/config file: exclude
// patterns, move-detection thresholds, parallelism, and artifact
// directories.
package config

import (
	"fmt"

	"github.com/inkandswitch/pushwork/pkg/encoding"
	"github.com/inkandswitch/pushwork/pkg/ignore"
)

// MoveThresholds holds the move-detection tier boundaries.
type MoveThresholds struct {
	Auto   float64 `yaml:"auto"`
	Prompt float64 `yaml:"prompt"`
}

// Config is the decoded shape of .pushwork/config.
type Config struct {
	// SyncServerURL and SyncServerIdentity are placeholders for the
	// out-of-scope network transport's peer addressing; the Sync Engine
	// itself only needs the document tree root, which lives in the
	// snapshot.
	SyncServerURL      string `yaml:"syncServerURL,omitempty"`
	SyncServerIdentity string `yaml:"syncServerIdentity,omitempty"`

	Exclude []string `yaml:"exclude"`

	Move MoveThresholds `yaml:"move"`

	Parallelism int `yaml:"parallelism"`

	ArtifactDirectories []string `yaml:"artifactDirectories"`
}

// Default returns the configuration used by `init` when no config file is
// supplied, matching the defaults stated in the component design.
func Default() *Config {
	return &Config{
		Move: MoveThresholds{
			Auto:   0.8,
			Prompt: 0.5,
		},
		Parallelism: 4,
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := encoding.LoadAndUnmarshalYAML(path, cfg); err != nil {
		return nil, fmt.Errorf("unable to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists the configuration atomically.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return encoding.MarshalAndSaveYAML(path, cfg)
}

// Validate checks the configuration's invariants: valid ignore patterns,
// sane thresholds, and positive parallelism.
func (c *Config) Validate() error {
	for _, pattern := range c.Exclude {
		if !ignore.Valid(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	if c.Move.Auto < c.Move.Prompt {
		return fmt.Errorf("move.auto threshold (%v) must be >= move.prompt threshold (%v)", c.Move.Auto, c.Move.Prompt)
	}
	if c.Move.Auto < 0 || c.Move.Auto > 1 || c.Move.Prompt < 0 || c.Move.Prompt > 1 {
		return fmt.Errorf("move thresholds must be in [0, 1]")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive, got %d", c.Parallelism)
	}
	return nil
}

// IgnoreMatcher builds an ignore.Matcher from the configured exclude
// patterns.
func (c *Config) IgnoreMatcher() (*ignore.Matcher, error) {
	return ignore.New(c.Exclude)
}

// IsArtifactPath reports whether relPath falls under one of the configured
// artifact directories, enabling the snapshot's content-hash optimization.
func (c *Config) IsArtifactPath(relPath string) bool {
	for _, dir := range c.ArtifactDirectories {
		if hasPathPrefix(relPath, dir) {
			return true
		}
	}
	return false
}

func hasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if path == prefix {
		return true
	}
	return len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}
