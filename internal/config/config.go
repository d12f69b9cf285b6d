package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level viewer configuration.
type Config struct {
	// ServiceURL is the event service base URL (scheme://host[:port]).
	ServiceURL string `yaml:"service_url" json:"service_url"`

	// Timezone is the IANA zone events are viewed and authored in.
	// It is always passed explicitly into the date logic; nothing in
	// the core falls back to the system zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday is the first column of calendar
	// views. Supported values:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// background invalidation of cached listings in watch mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// PageSize is the listing page size requested from the service.
	PageSize int `yaml:"page_size" json:"page_size"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		ServiceURL:  "http://127.0.0.1:8000",
		Timezone:    "UTC",
		WeekStart:   "monday",
		RefreshCron: "*/15 * * * *",
		PageSize:    50,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.ServiceURL == "" {
		c.ServiceURL = "http://127.0.0.1:8000"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	switch c.WeekStart {
	case "monday", "sunday":
		// ok
	case "":
		c.WeekStart = "monday"
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
}

// WeekStartWeekday maps the configured week start onto time.Weekday.
func (c *Config) WeekStartWeekday() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".tcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
