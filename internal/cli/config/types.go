// Package config loads leapgraph CLI configuration from defaults, a YAML
// file, LEAPGRAPH_ environment variables and command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultStateFile = ".leapgraph/state.db"
	DefaultOutput    = "auto" // TTY=text, non-TTY=markdown
	DefaultLogLevel  = "warn"
	DefaultDebounce  = 200 * time.Millisecond
)

// ConfigFileNames are probed, in order, when no explicit file is given.
var ConfigFileNames = []string{"leapgraph.yaml", "leapgraph.yml"}

// CompilerConfig tunes the graph compiler.
type CompilerConfig struct {
	Workers           int           `koanf:"workers"`
	CollectReferences bool          `koanf:"collect_references"`
	GroupOrder        []string      `koanf:"group_order"`
	Timeout           time.Duration `koanf:"timeout"`
}

// WatchConfig controls --watch recompilation.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Config holds all CLI configuration options.
type Config struct {
	Sources      []string       `koanf:"sources"`
	StatePath    string         `koanf:"state_path"`
	LogLevel     string         `koanf:"log_level"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"output"`
	Compiler     CompilerConfig `koanf:"compiler"`
	Watch        WatchConfig    `koanf:"watch"`

	ProjectRoot string `koanf:"-"`
}

// Level parses LogLevel. Verbose forces debug.
func (c *Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Compiler.Workers < 0 {
		return fmt.Errorf("compiler.workers must be >= 0, got %d", c.Compiler.Workers)
	}
	if c.Compiler.Timeout < 0 {
		return fmt.Errorf("compiler.timeout must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	switch c.OutputFormat {
	case "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown output format %q (use auto, text, markdown or json)", c.OutputFormat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}
