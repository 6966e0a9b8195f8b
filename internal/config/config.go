// Package config loads xlcalc CLI settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "xlcalc.toml"

// Config contains the CLI settings. Fields missing from the file keep their
// defaults.
type Config struct {
	// Store is the path of the xlsx workbook holding the spreadsheets.
	Store string `toml:"store"`

	// Sheet is the spreadsheet used when --sheet is not given.
	Sheet string `toml:"sheet"`

	// LockTimeout is how long to wait for the workbook lock.
	LockTimeout Duration `toml:"lock_timeout"`

	// Verbose enables transaction logging on stderr.
	Verbose bool `toml:"verbose"`
}

// Duration is a wrapper for time.Duration that supports TOML marshaling.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Store:       "xlcalc.xlsx",
		Sheet:       "default",
		LockTimeout: Duration{5 * time.Second},
	}
}

// Load reads path over the defaults. An empty path means DefaultPath, which
// may be absent; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Sheet == "" {
		return nil, fmt.Errorf("parsing %s: sheet must not be empty", path)
	}
	return cfg, nil
}
