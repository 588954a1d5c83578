// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no --config
// flag is passed.
const EnvVar = "LOGRING_CONFIG"

// Config is the master configuration for the rotation daemon.
type Config struct {
	// WatchDir is the directory monitored for sealed segments. It
	// must exist and be writable before the daemon starts.
	// Default: var/log/
	WatchDir string `yaml:"watch_dir"`

	// Streams is the ordered registry of stream base names. Event
	// classification matches in this order, first match wins, so the
	// order is part of the configuration contract.
	// Default: [ipstrc, pdtrc, ipmgr, inttrc]
	Streams []string `yaml:"streams"`

	// MaxGenerations is the ring depth N: generations are numbered
	// <base>.log.0 through <base>.log.N and filling slot N triggers
	// archival. Must be >= 1.
	// Default: 5
	MaxGenerations int `yaml:"max_generations"`

	// Archiver selects and configures the packager.
	Archiver ArchiverConfig `yaml:"archiver"`

	// DeletePriorArchive removes a stream's previous archive when a
	// new one is produced for the same stream.
	// Default: true
	DeletePriorArchive bool `yaml:"delete_prior_archive"`

	// DeleteOriginals removes the packaged generation files after a
	// successful archive.
	// Default: true
	DeleteOriginals bool `yaml:"delete_originals"`

	// ChecksumArchives records a BLAKE3 digest for every produced
	// archive, in the log and in a <archive>.b3 sidecar file.
	// Default: true
	ChecksumArchives bool `yaml:"checksum_archives"`

	// MetricsListen is the host:port for the Prometheus /metrics
	// endpoint. Empty disables the listener.
	MetricsListen string `yaml:"metrics_listen"`

	// LogLevel is the minimum slog level: debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`
}

// ArchiverConfig configures how archives are produced.
type ArchiverConfig struct {
	// Mode selects the packager: "exec" invokes the external Command,
	// "native" packages in-process.
	// Default: exec
	Mode string `yaml:"mode"`

	// Command is the external packager binary for exec mode. It is
	// invoked as: <command> -czf <archive> -C <watch_dir> <members...>
	// and must exit zero on success.
	// Default: tar
	Command string `yaml:"command"`
}

// Default returns the default configuration. The defaults are complete:
// the daemon runs without a config file.
func Default() *Config {
	return &Config{
		WatchDir:           "var/log/",
		Streams:            []string{"ipstrc", "pdtrc", "ipmgr", "inttrc"},
		MaxGenerations:     5,
		Archiver:           ArchiverConfig{Mode: "exec", Command: "tar"},
		DeletePriorArchive: true,
		DeleteOriginals:    true,
		ChecksumArchives:   true,
		LogLevel:           "info",
	}
}

// Load reads the configuration file at path, layered over Default().
// An empty path falls back to the LOGRING_CONFIG environment variable;
// if that is also empty, the defaults are returned as-is. The result
// is always validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run
// with. It does not touch the filesystem; existence of the watch
// directory is the engine's startup concern.
func (c *Config) Validate() error {
	if c.WatchDir == "" {
		return fmt.Errorf("watch_dir must not be empty")
	}
	if len(c.Streams) == 0 {
		return fmt.Errorf("streams must name at least one stream")
	}
	for _, name := range c.Streams {
		if err := validateStreamName(name); err != nil {
			return err
		}
	}
	if c.MaxGenerations < 1 {
		return fmt.Errorf("max_generations must be >= 1, got %d", c.MaxGenerations)
	}
	switch c.Archiver.Mode {
	case "exec":
		if c.Archiver.Command == "" {
			return fmt.Errorf("archiver.command must not be empty in exec mode")
		}
	case "native":
	default:
		return fmt.Errorf("archiver.mode must be %q or %q, got %q", "exec", "native", c.Archiver.Mode)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

// validateStreamName rejects base names that would break filename
// classification: dots would collide with the sealed-segment suffix
// grammar, slashes would escape the watch directory, and whitespace
// never appears in producer names.
func validateStreamName(name string) error {
	if name == "" {
		return fmt.Errorf("stream names must not be empty")
	}
	if strings.ContainsAny(name, "./\\ \t\n") {
		return fmt.Errorf("stream name %q must not contain dots, slashes, or whitespace", name)
	}
	return nil
}
